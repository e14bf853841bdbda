package market_data

import (
	"context"
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"stockresearch/internal/adapters/polygon"
)

const (
	DefaultIndicatorDays = 120

	rsiPeriod = 14
	maPeriod  = 20
)

// RSIBands are the RSI thresholds below which a symbol counts as oversold
// and above which it counts as overbought
type RSIBands struct {
	Oversold   int
	Overbought int
}

// DefaultRSIBands is the classic 30/70 split
var DefaultRSIBands = RSIBands{Oversold: 30, Overbought: 70}

// Signal classifies an RSI reading
func (b RSIBands) Signal(rsi decimal.Decimal) string {
	switch {
	case rsi.LessThan(decimal.NewFromInt(int64(b.Oversold))):
		return "oversold"
	case rsi.GreaterThan(decimal.NewFromInt(int64(b.Overbought))):
		return "overbought"
	default:
		return "neutral"
	}
}

// Indicators is a snapshot of the latest technical readings for one symbol
type Indicators struct {
	Symbol    string
	Bars      int
	LastClose decimal.Decimal
	RSI       decimal.Decimal
	SMA       decimal.Decimal
	EMA       decimal.Decimal
	AsOf      string
}

// Result renders the snapshot for agent tools, classifying RSI with bands
func (i Indicators) Result(bands RSIBands) polygon.Result {
	return polygon.Result{
		"symbol":     i.Symbol,
		"bars":       i.Bars,
		"last_close": i.LastClose.InexactFloat64(),
		"rsi_14":     i.RSI.InexactFloat64(),
		"sma_20":     i.SMA.InexactFloat64(),
		"ema_20":     i.EMA.InexactFloat64(),
		"rsi_signal": bands.Signal(i.RSI),
		"rsi_bands":  []int{bands.Oversold, bands.Overbought},
		"as_of":      i.AsOf,
	}
}

// ComputeIndicators derives RSI(14), SMA(20) and EMA(20) from daily bars
func ComputeIndicators(symbol string, bars []Bar) (Indicators, error) {
	if len(bars) <= maPeriod {
		return Indicators{}, fmt.Errorf("need more than %d bars to compute indicators for %s, got %d", maPeriod, symbol, len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	last := len(closes) - 1
	rsi := talib.Rsi(closes, rsiPeriod)
	sma := talib.Sma(closes, maPeriod)
	ema := talib.Ema(closes, maPeriod)

	ind := Indicators{
		Symbol:    NormalizeSymbol(symbol),
		Bars:      len(bars),
		LastClose: round(closes[last]),
		RSI:       round(rsi[last]),
		SMA:       round(sma[last]),
		EMA:       round(ema[last]),
	}
	if ts := bars[last].Timestamp; !ts.IsZero() {
		ind.AsOf = ts.Format(polygon.DateLayout)
	}
	return ind, nil
}

// GetTechnicalIndicators fetches `days` of daily bars and computes indicators.
// Fetch failures and short histories come back in-band.
func (s *Service) GetTechnicalIndicators(ctx context.Context, symbol string, days int) polygon.Result {
	if days <= 0 {
		days = DefaultIndicatorDays
	}

	data := s.GetHistoricalData(ctx, symbol, days)
	if data.IsError() {
		return data
	}

	ind, err := ComputeIndicators(symbol, ParseBars(data))
	if err != nil {
		return polygon.Result{"error": err.Error()}
	}
	return ind.Result(s.rsiBands)
}

func round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
