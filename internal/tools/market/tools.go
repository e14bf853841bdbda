package market

import (
	"context"
	"strings"
	"time"

	"google.golang.org/adk/tool"

	"stockresearch/internal/adapters/polygon"
	"stockresearch/internal/services/market_data"
	"stockresearch/internal/tools/shared"
	"stockresearch/pkg/errors"
)

// Tool names as seen by the model
const (
	GetStockQuote            = "get_stock_quote"
	GetHistoricalData        = "get_historical_data"
	GetIntradayData          = "get_intraday_data"
	GetMultipleQuotes        = "get_multiple_quotes"
	GetMarketDataBatch       = "get_market_data_batch"
	GetComprehensiveAnalysis = "get_comprehensive_analysis"
	GetTechnicalIndicators   = "get_technical_indicators"
)

// MaxBatchSymbols caps a single batch request
const MaxBatchSymbols = 20

// DataSource is the subset of market_data.Service the tools need
type DataSource interface {
	GetStockQuote(ctx context.Context, symbol string) polygon.Result
	GetHistoricalData(ctx context.Context, symbol string, days int) polygon.Result
	GetIntradayData(ctx context.Context, symbol string, hours int) polygon.Result
	GetMultipleQuotes(ctx context.Context, symbols []string) *market_data.BatchResult
	GetMarketDataBatch(ctx context.Context, symbols []string, timespan string, days int) *market_data.BatchResult
	GetComprehensiveAnalysis(ctx context.Context, symbol string) polygon.Result
	GetTechnicalIndicators(ctx context.Context, symbol string, days int) polygon.Result
}

var _ DataSource = (*market_data.Service)(nil)

type SymbolArgs struct {
	Symbol string `json:"symbol" jsonschema:"Stock ticker symbol, for example AAPL"`
}

type HistoricalArgs struct {
	Symbol string `json:"symbol" jsonschema:"Stock ticker symbol, for example AAPL"`
	Days   int    `json:"days,omitempty" jsonschema:"Number of calendar days of daily bars to fetch (default 30)"`
}

type IntradayArgs struct {
	Symbol string `json:"symbol" jsonschema:"Stock ticker symbol, for example AAPL"`
	Hours  int    `json:"hours,omitempty" jsonschema:"Maximum number of hourly bars from the last two days (default 24)"`
}

type SymbolsArgs struct {
	Symbols []string `json:"symbols" jsonschema:"Ticker symbols to fetch, processed in order"`
}

type BatchArgs struct {
	Symbols  []string `json:"symbols" jsonschema:"Ticker symbols to fetch, processed in order"`
	Timespan string   `json:"timespan,omitempty" jsonschema:"Bar size: minute, hour, day, week, month, quarter or year (default day)"`
	Days     int      `json:"days,omitempty" jsonschema:"Number of calendar days to cover (default 7)"`
}

type IndicatorArgs struct {
	Symbol string `json:"symbol" jsonschema:"Stock ticker symbol, for example AAPL"`
	Days   int    `json:"days,omitempty" jsonschema:"Calendar days of daily history to compute from (default 120)"`
}

// Tools builds every market data tool over src. timeout bounds one invocation.
func Tools(src DataSource, timeout time.Duration) ([]tool.Tool, error) {
	builders := []func(DataSource, time.Duration) (tool.Tool, error){
		NewStockQuoteTool,
		NewHistoricalDataTool,
		NewIntradayDataTool,
		NewMultipleQuotesTool,
		NewMarketDataBatchTool,
		NewComprehensiveAnalysisTool,
		NewTechnicalIndicatorsTool,
	}

	out := make([]tool.Tool, 0, len(builders))
	for _, build := range builders {
		t, err := build(src, timeout)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func NewStockQuoteTool(src DataSource, timeout time.Duration) (tool.Tool, error) {
	return build(GetStockQuote, StockQuoteHandler(src), timeout)
}

func NewHistoricalDataTool(src DataSource, timeout time.Duration) (tool.Tool, error) {
	return build(GetHistoricalData, HistoricalDataHandler(src), timeout)
}

func NewIntradayDataTool(src DataSource, timeout time.Duration) (tool.Tool, error) {
	return build(GetIntradayData, IntradayDataHandler(src), timeout)
}

func NewMultipleQuotesTool(src DataSource, timeout time.Duration) (tool.Tool, error) {
	return build(GetMultipleQuotes, MultipleQuotesHandler(src), timeout)
}

func NewMarketDataBatchTool(src DataSource, timeout time.Duration) (tool.Tool, error) {
	return build(GetMarketDataBatch, MarketDataBatchHandler(src), timeout)
}

func NewComprehensiveAnalysisTool(src DataSource, timeout time.Duration) (tool.Tool, error) {
	return build(GetComprehensiveAnalysis, ComprehensiveAnalysisHandler(src), timeout)
}

func NewTechnicalIndicatorsTool(src DataSource, timeout time.Duration) (tool.Tool, error) {
	return build(GetTechnicalIndicators, TechnicalIndicatorsHandler(src), timeout)
}

func build[T any](name string, fn shared.Handler[T], timeout time.Duration) (tool.Tool, error) {
	schema, err := InputSchema(name)
	if err != nil {
		return nil, err
	}
	return shared.NewToolBuilder(name, Description(name), fn).
		WithInputSchema(schema).
		WithTimeout(timeout).
		WithStats().
		Build()
}

func StockQuoteHandler(src DataSource) shared.Handler[SymbolArgs] {
	return func(ctx context.Context, args SymbolArgs) (map[string]any, error) {
		symbol, err := requireSymbol(args.Symbol)
		if err != nil {
			return nil, err
		}
		return src.GetStockQuote(ctx, symbol), nil
	}
}

func HistoricalDataHandler(src DataSource) shared.Handler[HistoricalArgs] {
	return func(ctx context.Context, args HistoricalArgs) (map[string]any, error) {
		symbol, err := requireSymbol(args.Symbol)
		if err != nil {
			return nil, err
		}
		if args.Days < 0 {
			return nil, errors.NewValidationError("days", "must not be negative", args.Days)
		}
		return src.GetHistoricalData(ctx, symbol, args.Days), nil
	}
}

func IntradayDataHandler(src DataSource) shared.Handler[IntradayArgs] {
	return func(ctx context.Context, args IntradayArgs) (map[string]any, error) {
		symbol, err := requireSymbol(args.Symbol)
		if err != nil {
			return nil, err
		}
		if args.Hours < 0 {
			return nil, errors.NewValidationError("hours", "must not be negative", args.Hours)
		}
		return src.GetIntradayData(ctx, symbol, args.Hours), nil
	}
}

func MultipleQuotesHandler(src DataSource) shared.Handler[SymbolsArgs] {
	return func(ctx context.Context, args SymbolsArgs) (map[string]any, error) {
		symbols, err := requireSymbols(args.Symbols)
		if err != nil {
			return nil, err
		}
		return src.GetMultipleQuotes(ctx, symbols).Map(), nil
	}
}

func MarketDataBatchHandler(src DataSource) shared.Handler[BatchArgs] {
	return func(ctx context.Context, args BatchArgs) (map[string]any, error) {
		symbols, err := requireSymbols(args.Symbols)
		if err != nil {
			return nil, err
		}
		timespan := strings.ToLower(strings.TrimSpace(args.Timespan))
		if timespan != "" && !polygon.ValidTimespan(timespan) {
			return nil, errors.NewValidationError("timespan", "unsupported bar size", args.Timespan)
		}
		if args.Days < 0 {
			return nil, errors.NewValidationError("days", "must not be negative", args.Days)
		}
		return src.GetMarketDataBatch(ctx, symbols, timespan, args.Days).Map(), nil
	}
}

func ComprehensiveAnalysisHandler(src DataSource) shared.Handler[SymbolArgs] {
	return func(ctx context.Context, args SymbolArgs) (map[string]any, error) {
		symbol, err := requireSymbol(args.Symbol)
		if err != nil {
			return nil, err
		}
		return src.GetComprehensiveAnalysis(ctx, symbol), nil
	}
}

func TechnicalIndicatorsHandler(src DataSource) shared.Handler[IndicatorArgs] {
	return func(ctx context.Context, args IndicatorArgs) (map[string]any, error) {
		symbol, err := requireSymbol(args.Symbol)
		if err != nil {
			return nil, err
		}
		if args.Days < 0 {
			return nil, errors.NewValidationError("days", "must not be negative", args.Days)
		}
		return src.GetTechnicalIndicators(ctx, symbol, args.Days), nil
	}
}

func requireSymbol(symbol string) (string, error) {
	s := market_data.NormalizeSymbol(symbol)
	if s == "" {
		return "", errors.NewValidationError("symbol", "is required", symbol)
	}
	return s, nil
}

func requireSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, errors.NewValidationError("symbols", "at least one symbol is required", symbols)
	}
	if len(symbols) > MaxBatchSymbols {
		return nil, errors.NewValidationError("symbols", "too many symbols in one request", len(symbols))
	}

	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm, err := requireSymbol(s)
		if err != nil {
			return nil, err
		}
		out = append(out, norm)
	}
	return out, nil
}
