package market

var descriptions = map[string]string{
	GetStockQuote: "Get the latest daily quote for a stock: open, high, low, close (as price), " +
		"volume and bar date.",
	GetHistoricalData:  "Get daily OHLCV bars for a stock covering the last N days.",
	GetIntradayData:    "Get up to N hourly bars for a stock from the last two days.",
	GetMultipleQuotes:  "Get the latest quote for several stocks. Results are keyed by uppercase ticker; failed symbols carry an error entry.",
	GetMarketDataBatch: "Get OHLCV bars with a chosen bar size for several stocks over the last N days, keyed by uppercase ticker.",
	GetComprehensiveAnalysis: "Get the current quote together with 30 day and 90 day daily history for one stock " +
		"in a single call.",
	GetTechnicalIndicators: "Compute RSI(14), SMA(20) and EMA(20) from daily closes and classify RSI as " +
		"oversold, neutral or overbought against the thresholds returned in rsi_bands.",
}

// Description returns the model-facing description of a market tool
func Description(name string) string {
	return descriptions[name]
}
