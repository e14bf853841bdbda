package tools

import (
	"github.com/google/jsonschema-go/jsonschema"

	"stockresearch/internal/tools/market"
	"stockresearch/pkg/errors"
)

// ToolCategory groups tools in listings and prompts
type ToolCategory string

const (
	CategoryMarketData ToolCategory = "market_data"
	CategoryAnalysis   ToolCategory = "analysis"
)

// Definition describes a tool independently of its ADK wrapper
type Definition struct {
	Name        string
	Description string
	Category    ToolCategory
	InputSchema *jsonschema.Schema
}

// Definitions returns the catalog of market tools with the same input
// schemas the function tools declare to the model.
func Definitions() ([]Definition, error) {
	var (
		defs []Definition
		errs errors.MultiError
	)
	collect := func(def Definition, err error) {
		if err != nil {
			errs.Add(err)
			return
		}
		defs = append(defs, def)
	}

	collect(define(market.GetStockQuote, CategoryMarketData))
	collect(define(market.GetHistoricalData, CategoryMarketData))
	collect(define(market.GetIntradayData, CategoryMarketData))
	collect(define(market.GetMultipleQuotes, CategoryMarketData))
	collect(define(market.GetMarketDataBatch, CategoryMarketData))
	collect(define(market.GetComprehensiveAnalysis, CategoryAnalysis))
	collect(define(market.GetTechnicalIndicators, CategoryAnalysis))

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return defs, nil
}

func define(name string, category ToolCategory) (Definition, error) {
	schema, err := market.InputSchema(name)
	if err != nil {
		return Definition{}, err
	}
	return Definition{
		Name:        name,
		Description: market.Description(name),
		Category:    category,
		InputSchema: schema,
	}, nil
}
