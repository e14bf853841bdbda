package schemas

import "google.golang.org/genai"

// StockInformation merges the market, sentiment and fundamentals summaries
// into one object for the strategy agent.
type StockInformation struct {
	Ticker           string  `json:"ticker" validate:"required"`
	CurrentPrice     float64 `json:"current_price" validate:"gte=0"`
	RSI              float64 `json:"rsi" validate:"gte=0,lte=100"`
	SentimentSummary string  `json:"sentiment_summary" validate:"required"`
	ValuationSummary string  `json:"valuation_summary" validate:"required"`
	// Recommendation stays null until the strategy agent has run
	Recommendation *string `json:"recommendation"`
}

// StockInformationSchema is the output schema of the output agent
var StockInformationSchema = &genai.Schema{
	Type:        "OBJECT",
	Description: "Structured stock analysis combining market data, sentiment and fundamentals",
	Properties: map[string]*genai.Schema{
		"ticker": {
			Type:        "STRING",
			Description: "Stock ticker symbol, for example AAPL",
		},
		"current_price": {
			Type:        "NUMBER",
			Description: "Latest trading price in USD",
			Minimum:     float64Ptr(0),
		},
		"rsi": {
			Type:        "NUMBER",
			Description: "Relative Strength Index (0-100)",
			Minimum:     float64Ptr(0),
			Maximum:     float64Ptr(100),
		},
		"sentiment_summary": {
			Type:        "STRING",
			Description: "Descriptive paragraph summarizing market sentiment",
		},
		"valuation_summary": {
			Type:        "STRING",
			Description: "Key valuation and financial health points",
		},
		"recommendation": {
			Type:        "STRING",
			Description: "Left null; filled in by the strategy agent",
			Nullable:    boolPtr(true),
		},
	},
	Required: []string{"ticker", "current_price", "rsi", "sentiment_summary", "valuation_summary"},
	PropertyOrdering: []string{
		"ticker", "current_price", "rsi", "sentiment_summary", "valuation_summary", "recommendation",
	},
}
