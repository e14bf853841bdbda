package market

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockresearch/internal/adapters/polygon"
	"stockresearch/internal/services/market_data"
	"stockresearch/pkg/errors"
)

type call struct {
	method   string
	symbols  []string
	timespan string
	n        int
}

type fakeSource struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeSource) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeSource) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeSource) GetStockQuote(_ context.Context, symbol string) polygon.Result {
	f.record(call{method: GetStockQuote, symbols: []string{symbol}})
	return polygon.Result{"symbol": symbol, "price": 101.5}
}

func (f *fakeSource) GetHistoricalData(_ context.Context, symbol string, days int) polygon.Result {
	f.record(call{method: GetHistoricalData, symbols: []string{symbol}, n: days})
	return polygon.Result{"results": []any{}}
}

func (f *fakeSource) GetIntradayData(_ context.Context, symbol string, hours int) polygon.Result {
	f.record(call{method: GetIntradayData, symbols: []string{symbol}, n: hours})
	return polygon.Result{"results": []any{}}
}

func (f *fakeSource) GetMultipleQuotes(_ context.Context, symbols []string) *market_data.BatchResult {
	f.record(call{method: GetMultipleQuotes, symbols: symbols})
	out := market_data.NewBatchResult()
	for _, s := range symbols {
		out.Set(s, polygon.Result{"symbol": s})
	}
	return out
}

func (f *fakeSource) GetMarketDataBatch(_ context.Context, symbols []string, timespan string, days int) *market_data.BatchResult {
	f.record(call{method: GetMarketDataBatch, symbols: symbols, timespan: timespan, n: days})
	out := market_data.NewBatchResult()
	for _, s := range symbols {
		out.Set(s, polygon.Result{"results": []any{}})
	}
	return out
}

func (f *fakeSource) GetComprehensiveAnalysis(_ context.Context, symbol string) polygon.Result {
	f.record(call{method: GetComprehensiveAnalysis, symbols: []string{symbol}})
	return polygon.Result{"symbol": symbol}
}

func (f *fakeSource) GetTechnicalIndicators(_ context.Context, symbol string, days int) polygon.Result {
	f.record(call{method: GetTechnicalIndicators, symbols: []string{symbol}, n: days})
	return polygon.Result{"symbol": symbol, "rsi_14": "55.1"}
}

func TestTools(t *testing.T) {
	built, err := Tools(&fakeSource{}, time.Second)
	require.NoError(t, err)

	names := make([]string, 0, len(built))
	for _, tl := range built {
		names = append(names, tl.Name())
		assert.NotEmpty(t, tl.Description(), tl.Name())
	}
	assert.Equal(t, []string{
		GetStockQuote,
		GetHistoricalData,
		GetIntradayData,
		GetMultipleQuotes,
		GetMarketDataBatch,
		GetComprehensiveAnalysis,
		GetTechnicalIndicators,
	}, names)
}

func TestStockQuoteHandler(t *testing.T) {
	src := &fakeSource{}
	fn := StockQuoteHandler(src)

	t.Run("normalizes symbol", func(t *testing.T) {
		out, err := fn(context.Background(), SymbolArgs{Symbol: " aapl "})
		require.NoError(t, err)
		assert.Equal(t, "AAPL", out["symbol"])
		assert.Equal(t, []string{"AAPL"}, src.last().symbols)
	})

	t.Run("empty symbol is rejected", func(t *testing.T) {
		_, err := fn(context.Background(), SymbolArgs{Symbol: "  "})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)

		var verr *errors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "symbol", verr.Field)
	})
}

func TestHistoricalAndIntradayHandlers(t *testing.T) {
	src := &fakeSource{}

	_, err := HistoricalDataHandler(src)(context.Background(), HistoricalArgs{Symbol: "msft", Days: 30})
	require.NoError(t, err)
	assert.Equal(t, call{method: GetHistoricalData, symbols: []string{"MSFT"}, n: 30}, src.last())

	_, err = IntradayDataHandler(src)(context.Background(), IntradayArgs{Symbol: "msft"})
	require.NoError(t, err)
	assert.Equal(t, 0, src.last().n, "zero hours defers to the service default")

	_, err = HistoricalDataHandler(src)(context.Background(), HistoricalArgs{Symbol: "msft", Days: -1})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = IntradayDataHandler(src)(context.Background(), IntradayArgs{Symbol: "msft", Hours: -5})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestMultipleQuotesHandler(t *testing.T) {
	src := &fakeSource{}
	fn := MultipleQuotesHandler(src)

	out, err := fn(context.Background(), SymbolsArgs{Symbols: []string{"aapl", "AAPL", "tsla"}})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "TSLA")

	_, err = fn(context.Background(), SymbolsArgs{})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = fn(context.Background(), SymbolsArgs{Symbols: []string{"AAPL", ""}})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	tooMany := make([]string, MaxBatchSymbols+1)
	for i := range tooMany {
		tooMany[i] = "AAPL"
	}
	_, err = fn(context.Background(), SymbolsArgs{Symbols: tooMany})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestMarketDataBatchHandler(t *testing.T) {
	src := &fakeSource{}
	fn := MarketDataBatchHandler(src)

	_, err := fn(context.Background(), BatchArgs{Symbols: []string{"nvda"}, Timespan: "Week", Days: 14})
	require.NoError(t, err)
	assert.Equal(t, call{method: GetMarketDataBatch, symbols: []string{"NVDA"}, timespan: "week", n: 14}, src.last())

	_, err = fn(context.Background(), BatchArgs{Symbols: []string{"nvda"}})
	require.NoError(t, err)
	assert.Empty(t, src.last().timespan)

	_, err = fn(context.Background(), BatchArgs{Symbols: []string{"nvda"}, Timespan: "fortnight"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestAnalysisHandlers(t *testing.T) {
	src := &fakeSource{}

	out, err := ComprehensiveAnalysisHandler(src)(context.Background(), SymbolArgs{Symbol: "googl"})
	require.NoError(t, err)
	assert.Equal(t, "GOOGL", out["symbol"])

	out, err = TechnicalIndicatorsHandler(src)(context.Background(), IndicatorArgs{Symbol: "googl", Days: 200})
	require.NoError(t, err)
	assert.Equal(t, "55.1", out["rsi_14"])
	assert.Equal(t, 200, src.last().n)
}
