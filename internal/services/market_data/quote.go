package market_data

import (
	"time"

	"stockresearch/internal/adapters/polygon"
)

// ProjectQuote turns an aggregates response into a quote built from its
// last bar. Responses without bars (including in-band errors) are returned
// unchanged, so callers must handle both shapes.
func ProjectQuote(symbol string, data polygon.Result) polygon.Result {
	bars, ok := data["results"].([]any)
	if !ok || len(bars) == 0 {
		return data
	}

	latest, ok := bars[len(bars)-1].(map[string]any)
	if !ok {
		return data
	}

	return polygon.Result{
		"symbol":    NormalizeSymbol(symbol),
		"price":     latest["c"],
		"open":      latest["o"],
		"high":      latest["h"],
		"low":       latest["l"],
		"volume":    latest["v"],
		"timestamp": latest["t"],
		"date":      barDate(latest["t"]),
	}
}

// barDate converts a millisecond epoch timestamp to a UTC calendar date.
// Missing or zero timestamps yield nil.
func barDate(ts any) any {
	ms, ok := ts.(float64)
	if !ok || ms == 0 {
		return nil
	}
	return time.UnixMilli(int64(ms)).UTC().Format(polygon.DateLayout)
}

// Bar is one OHLCV record decoded from an aggregates response
type Bar struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// ParseBars extracts the bars of an aggregates response in provider order
func ParseBars(data polygon.Result) []Bar {
	raw, _ := data["results"].([]any)
	bars := make([]Bar, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		bar := Bar{
			Open:   number(m["o"]),
			High:   number(m["h"]),
			Low:    number(m["l"]),
			Close:  number(m["c"]),
			Volume: number(m["v"]),
		}
		if ms := number(m["t"]); ms > 0 {
			bar.Timestamp = time.UnixMilli(int64(ms)).UTC()
		}
		bars = append(bars, bar)
	}
	return bars
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
