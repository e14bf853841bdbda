package market_data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockresearch/internal/adapters/polygon"
	"stockresearch/pkg/logger"
)

const (
	DefaultHistoryDays   = 30
	DefaultIntradayHours = 24
	DefaultBatchDays     = 7
	DefaultBatchDelay    = 100 * time.Millisecond

	// intradayLookback is fixed regardless of the requested hour count;
	// more hours only raise the result limit.
	intradayLookback = 2 * 24 * time.Hour

	weeklyTrendDays = 90
)

// ClientFactory returns a client with its own, not yet opened, session
type ClientFactory func() *polygon.Client

// Service exposes stock data operations over the Polygon MCP bridge.
// Every top-level operation acquires a fresh session and releases it on return.
type Service struct {
	newClient  ClientFactory
	batchDelay time.Duration
	rsiBands   RSIBands
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	log        *logger.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithBatchDelay sets the fixed pause after each symbol in batch operations
func WithBatchDelay(d time.Duration) Option {
	return func(s *Service) { s.batchDelay = d }
}

// WithRSIBands sets the thresholds used to label RSI readings
func WithRSIBands(oversold, overbought int) Option {
	return func(s *Service) { s.rsiBands = RSIBands{Oversold: oversold, Overbought: overbought} }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSleep overrides the batch pause
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) { s.sleep = sleep }
}

// NewService creates a market data service
func NewService(newClient ClientFactory, opts ...Option) *Service {
	s := &Service{
		newClient:  newClient,
		batchDelay: DefaultBatchDelay,
		rsiBands:   DefaultRSIBands,
		now:        time.Now,
		sleep:      sleepContext,
		log:        logger.Get().With("component", "market_data"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStockQuote returns the latest daily bar as a normalized quote, or the
// raw provider response when it carries no bars.
func (s *Service) GetStockQuote(ctx context.Context, symbol string) polygon.Result {
	var out polygon.Result
	s.scoped(ctx, &out, func(ctx context.Context, c *polygon.Client) {
		out = s.quote(ctx, c, symbol)
	})
	return out
}

// GetHistoricalData returns `days` of daily bars ending now
func (s *Service) GetHistoricalData(ctx context.Context, symbol string, days int) polygon.Result {
	var out polygon.Result
	s.scoped(ctx, &out, func(ctx context.Context, c *polygon.Client) {
		out = s.historical(ctx, c, symbol, days)
	})
	return out
}

// GetIntradayData returns up to `hours` hourly bars from the last two days
func (s *Service) GetIntradayData(ctx context.Context, symbol string, hours int) polygon.Result {
	if hours <= 0 {
		hours = DefaultIntradayHours
	}

	var out polygon.Result
	s.scoped(ctx, &out, func(ctx context.Context, c *polygon.Client) {
		now := s.now()
		out = c.GetAggregates(ctx, polygon.AggregatesRequest{
			Ticker:     symbol,
			Multiplier: 1,
			Timespan:   polygon.TimespanHour,
			From:       now.Add(-intradayLookback),
			To:         now,
			Limit:      hours,
		}.Normalize(now))
	})
	return out
}

// GetMultipleQuotes fetches quotes one symbol at a time over a single session
func (s *Service) GetMultipleQuotes(ctx context.Context, symbols []string) *BatchResult {
	return s.batch(ctx, symbols, func(ctx context.Context, c *polygon.Client, symbol string) polygon.Result {
		return s.quote(ctx, c, symbol)
	})
}

// GetMarketDataBatch fetches `days` of bars with the given timespan for each symbol
func (s *Service) GetMarketDataBatch(ctx context.Context, symbols []string, timespan string, days int) *BatchResult {
	if timespan == "" {
		timespan = polygon.TimespanDay
	}
	if days <= 0 {
		days = DefaultBatchDays
	}

	now := s.now()
	return s.batch(ctx, symbols, func(ctx context.Context, c *polygon.Client, symbol string) polygon.Result {
		return c.GetAggregates(ctx, polygon.AggregatesRequest{
			Ticker:     symbol,
			Multiplier: 1,
			Timespan:   timespan,
			From:       now.AddDate(0, 0, -days),
			To:         now,
			Limit:      days,
		}.Normalize(now))
	})
}

// GetComprehensiveAnalysis combines the current quote with 30 and 90 day
// history. Unlike batches, any failure outside the in-band results
// collapses the whole answer into one error.
func (s *Service) GetComprehensiveAnalysis(ctx context.Context, symbol string) polygon.Result {
	c := s.newClient()

	var analysis polygon.Result
	err := c.Do(ctx, func(ctx context.Context) error {
		quote := s.quote(ctx, c, symbol)
		daily := s.historical(ctx, c, symbol, DefaultHistoryDays)
		weekly := s.historical(ctx, c, symbol, weeklyTrendDays)
		if err := ctx.Err(); err != nil {
			return err
		}

		analysis = polygon.Result{
			"symbol":             NormalizeSymbol(symbol),
			"current_quote":      quote,
			"daily_trend":        daily,
			"weekly_trend":       weekly,
			"analysis_timestamp": s.now().UTC().Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		s.log.Warnf("Comprehensive analysis for %s failed: %v", symbol, err)
		return polygon.Result{"error": fmt.Sprintf("Failed to get comprehensive analysis for %s: %s", symbol, err)}
	}

	return analysis
}

func (s *Service) quote(ctx context.Context, c *polygon.Client, symbol string) polygon.Result {
	now := s.now()
	data := c.GetAggregates(ctx, polygon.AggregatesRequest{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   polygon.TimespanDay,
		Limit:      1,
	}.Normalize(now))

	return ProjectQuote(symbol, data)
}

func (s *Service) historical(ctx context.Context, c *polygon.Client, symbol string, days int) polygon.Result {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	now := s.now()
	return c.GetAggregates(ctx, polygon.AggregatesRequest{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   polygon.TimespanDay,
		From:       now.AddDate(0, 0, -days),
		To:         now,
		Limit:      days,
	}.Normalize(now))
}

// scoped runs fn inside one session. A failed open is reported in-band through out.
func (s *Service) scoped(ctx context.Context, out *polygon.Result, fn func(ctx context.Context, c *polygon.Client)) {
	c := s.newClient()
	err := c.Do(ctx, func(ctx context.Context) error {
		fn(ctx, c)
		return nil
	})
	if err != nil {
		s.log.Warnf("Polygon session failed: %v", err)
		*out = polygon.ErrorResult(err)
	}
}

func (s *Service) batch(
	ctx context.Context,
	symbols []string,
	fetch func(ctx context.Context, c *polygon.Client, symbol string) polygon.Result,
) *BatchResult {
	results := NewBatchResult()
	c := s.newClient()

	err := c.Do(ctx, func(ctx context.Context) error {
		for _, symbol := range symbols {
			results.Set(symbol, fetch(ctx, c, symbol))

			if err := s.sleep(ctx, s.batchDelay); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warnf("Batch over %d symbols stopped early: %v", len(symbols), err)
		failure := polygon.ErrorResult(err)
		for _, symbol := range symbols {
			if _, ok := results.Get(symbol); !ok {
				results.Set(symbol, failure)
			}
		}
	}

	return results
}

// NormalizeSymbol uppercases and trims a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
