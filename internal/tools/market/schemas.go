package market

import (
	"github.com/google/jsonschema-go/jsonschema"

	"stockresearch/internal/adapters/polygon"
	"stockresearch/pkg/errors"
)

// Timespans lists the bar sizes get_market_data_batch accepts
var Timespans = []string{
	polygon.TimespanMinute,
	polygon.TimespanHour,
	polygon.TimespanDay,
	polygon.TimespanWeek,
	polygon.TimespanMonth,
	polygon.TimespanQuarter,
	polygon.TimespanYear,
}

// InputSchema returns the argument schema declared to the model for a tool.
// It is inferred from the argument struct and then narrowed with the limits
// the handlers enforce, so the function tool rejects bad calls before they
// reach the data source.
func InputSchema(name string) (*jsonschema.Schema, error) {
	var (
		schema *jsonschema.Schema
		err    error
	)
	switch name {
	case GetStockQuote, GetComprehensiveAnalysis:
		schema, err = jsonschema.For[SymbolArgs](nil)
	case GetHistoricalData:
		schema, err = jsonschema.For[HistoricalArgs](nil)
	case GetIntradayData:
		schema, err = jsonschema.For[IntradayArgs](nil)
	case GetMultipleQuotes:
		schema, err = jsonschema.For[SymbolsArgs](nil)
	case GetMarketDataBatch:
		schema, err = jsonschema.For[BatchArgs](nil)
	case GetTechnicalIndicators:
		schema, err = jsonschema.For[IndicatorArgs](nil)
	default:
		return nil, errors.Wrapf(errors.ErrNotFound, "input schema for tool %s", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "infer input schema for %s", name)
	}

	constrain(schema)
	return schema, nil
}

func constrain(schema *jsonschema.Schema) {
	for name, prop := range schema.Properties {
		switch name {
		case "symbol":
			prop.MinLength = jsonschema.Ptr(1)
		case "symbols":
			prop.MinItems = jsonschema.Ptr(1)
			prop.MaxItems = jsonschema.Ptr(MaxBatchSymbols)
			if prop.Items != nil {
				prop.Items.MinLength = jsonschema.Ptr(1)
			}
		case "timespan":
			prop.Enum = make([]any, 0, len(Timespans))
			for _, ts := range Timespans {
				prop.Enum = append(prop.Enum, ts)
			}
		case "days", "hours":
			prop.Minimum = jsonschema.Ptr(0.0)
		}
	}
}
