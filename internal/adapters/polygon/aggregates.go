package polygon

import (
	"context"
	"strings"
	"time"
)

// AggregatesTool is the Polygon MCP tool returning OHLCV bars
const AggregatesTool = "get_aggs"

// DateLayout is the calendar-date format the aggregates tool expects
const DateLayout = "2006-01-02"

// Timespan values accepted by the aggregates tool
const (
	TimespanMinute  = "minute"
	TimespanHour    = "hour"
	TimespanDay     = "day"
	TimespanWeek    = "week"
	TimespanMonth   = "month"
	TimespanQuarter = "quarter"
	TimespanYear    = "year"
)

// ValidTimespan reports whether ts is a bar size the aggregates tool accepts
func ValidTimespan(ts string) bool {
	switch ts {
	case TimespanMinute, TimespanHour, TimespanDay, TimespanWeek, TimespanMonth, TimespanQuarter, TimespanYear:
		return true
	}
	return false
}

const (
	defaultLookback = 30 * 24 * time.Hour
	defaultLimit    = 100
)

// AggregatesRequest asks for bars of one ticker over a date range.
// Zero values are filled by Normalize.
type AggregatesRequest struct {
	Ticker     string
	Multiplier int
	Timespan   string
	From       time.Time
	To         time.Time
	Limit      int
}

// Normalize applies defaults relative to now: multiplier 1, daily bars,
// the last 30 days and at most 100 results.
func (r AggregatesRequest) Normalize(now time.Time) AggregatesRequest {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	if r.Multiplier <= 0 {
		r.Multiplier = 1
	}
	if r.Timespan == "" {
		r.Timespan = TimespanDay
	}
	if r.To.IsZero() {
		r.To = now
	}
	if r.From.IsZero() {
		r.From = now.Add(-defaultLookback)
	}
	if r.Limit <= 0 {
		r.Limit = defaultLimit
	}
	return r
}

// Arguments renders the request in the shape the remote tool declares.
// Dates are taken in UTC, the zone bar timestamps are reported in.
func (r AggregatesRequest) Arguments() map[string]any {
	return map[string]any{
		"ticker":     r.Ticker,
		"multiplier": r.Multiplier,
		"timespan":   r.Timespan,
		"from_":      r.From.UTC().Format(DateLayout),
		"to":         r.To.UTC().Format(DateLayout),
		"limit":      r.Limit,
	}
}

// GetAggregates fetches aggregate bars. req must already be normalized.
func (c *Client) GetAggregates(ctx context.Context, req AggregatesRequest) Result {
	return c.Call(ctx, AggregatesTool, req.Arguments())
}
