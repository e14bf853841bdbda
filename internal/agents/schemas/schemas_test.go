package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockresearch/pkg/errors"
)

func TestDecodeStockInformation(t *testing.T) {
	t.Run("json string from state", func(t *testing.T) {
		raw := `{"ticker":"AAPL","current_price":189.5,"rsi":41.2,"sentiment_summary":"Cautiously optimistic","valuation_summary":"P/E near 29","recommendation":null}`

		info, err := Decode[StockInformation](raw)
		require.NoError(t, err)
		assert.Equal(t, "AAPL", info.Ticker)
		assert.InDelta(t, 189.5, info.CurrentPrice, 1e-9)
		assert.InDelta(t, 41.2, info.RSI, 1e-9)
		assert.Nil(t, info.Recommendation)
	})

	t.Run("markdown fenced", func(t *testing.T) {
		raw := "```json\n{\"ticker\":\"MSFT\",\"current_price\":400,\"rsi\":55,\"sentiment_summary\":\"Positive\",\"valuation_summary\":\"Premium\"}\n```"

		info, err := Decode[StockInformation](raw)
		require.NoError(t, err)
		assert.Equal(t, "MSFT", info.Ticker)
	})

	t.Run("parsed map from an agent tool", func(t *testing.T) {
		info, err := Decode[StockInformation](map[string]any{
			"ticker":            "NVDA",
			"current_price":     120.0,
			"rsi":               72.0,
			"sentiment_summary": "Positive",
			"valuation_summary": "Expensive",
		})
		require.NoError(t, err)
		assert.Equal(t, "NVDA", info.Ticker)
	})

	t.Run("rsi out of range", func(t *testing.T) {
		raw := `{"ticker":"AAPL","current_price":1,"rsi":140,"sentiment_summary":"x","valuation_summary":"y"}`

		_, err := Decode[StockInformation](raw)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)

		var vErr *errors.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "StockInformation.RSI", vErr.Field)
	})

	t.Run("missing ticker", func(t *testing.T) {
		_, err := Decode[StockInformation](`{"current_price":1,"rsi":50,"sentiment_summary":"x","valuation_summary":"y"}`)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Decode[StockInformation]("The stock looks fine.")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode[StockInformation](nil)
		assert.ErrorIs(t, err, errors.ErrOutputMissing)

		_, err = Decode[StockInformation]("  ")
		assert.ErrorIs(t, err, errors.ErrOutputMissing)
	})
}

func TestDecodeReport(t *testing.T) {
	raw := `{
		"ticker": "AAPL",
		"report_title": "Apple: Steady Growth",
		"fundamentals": {
			"valuation_summary": "Trades at a premium.",
			"key_metrics": [{"name": "P/E", "value": "29.1"}, {"name": "EPS", "value": "6.43"}]
		},
		"technicals": {
			"market_overview": "Range bound.",
			"key_indicators": {"RSI": 48.5, "SMA(20)": 187, "Above SMA": true}
		},
		"sentiment": {"sentiment_summary": "Neutral."},
		"conclusion": "Hold."
	}`

	report, err := Decode[Report](raw)
	require.NoError(t, err)

	assert.Equal(t, Metrics{"P/E": "29.1", "EPS": "6.43"}, report.Fundamentals.KeyMetrics)
	assert.Equal(t, Metrics{"RSI": "48.5", "SMA(20)": "187", "Above SMA": "true"}, report.Technicals.KeyIndicators)
	assert.Equal(t, "Hold.", report.Conclusion)
}

func TestDecodeReport_MissingSection(t *testing.T) {
	raw := `{"ticker":"AAPL","report_title":"t","fundamentals":{"valuation_summary":"v"},"technicals":{"market_overview":"m"},"sentiment":{},"conclusion":"c"}`

	_, err := Decode[Report](raw)
	var vErr *errors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Report.Sentiment.SentimentSummary", vErr.Field)
}

func TestMetricsUnmarshal(t *testing.T) {
	var m Metrics

	require.NoError(t, m.UnmarshalJSON([]byte(`[{"name":"Market Cap","value":"2.9T"},{"name":"","value":"skipped"}]`)))
	assert.Equal(t, Metrics{"Market Cap": "2.9T"}, m)

	require.NoError(t, m.UnmarshalJSON([]byte(`{"Market Cap":2900000000000,"Beta":null}`)))
	assert.Equal(t, Metrics{"Market Cap": "2900000000000"}, m)

	assert.ErrorIs(t, m.UnmarshalJSON([]byte(`"P/E 29"`)), errors.ErrInvalidInput)
}

func TestDecodeScreeningStatus(t *testing.T) {
	t.Run("success with criteria", func(t *testing.T) {
		raw := `{"success":true,"criteria":{"sectors":["Technology"],"market_cap_min_usd":10000000000,"pe_ratio_max":20,"positive_earnings_growth":true},"error_message":null}`

		status, err := Decode[ScreeningStatus](raw)
		require.NoError(t, err)
		require.NotNil(t, status.Criteria)
		assert.Equal(t, []string{"Technology"}, status.Criteria.Sectors)
		assert.InDelta(t, 1e10, *status.Criteria.MarketCapMinUSD, 1)
		assert.Nil(t, status.Criteria.MarketCapMaxUSD)
		assert.True(t, *status.Criteria.PositiveEarningsGrowth)
		assert.False(t, status.Criteria.Empty())
	})

	t.Run("failure with message", func(t *testing.T) {
		status, err := Decode[ScreeningStatus](`{"success":false,"criteria":null,"error_message":"I can only help with stock screening."}`)
		require.NoError(t, err)
		assert.Nil(t, status.Criteria)
		assert.Equal(t, "I can only help with stock screening.", *status.ErrorMessage)
	})

	t.Run("success without criteria is rejected", func(t *testing.T) {
		_, err := Decode[ScreeningStatus](`{"success":true,"criteria":null}`)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("failure without message is rejected", func(t *testing.T) {
		_, err := Decode[ScreeningStatus](`{"success":false}`)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("negative market cap is rejected", func(t *testing.T) {
		_, err := Decode[ScreeningStatus](`{"success":true,"criteria":{"market_cap_min_usd":-5}}`)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestSchemasDeclareRequiredFields(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"ticker", "current_price", "rsi", "sentiment_summary", "valuation_summary"},
		StockInformationSchema.Required)
	assert.True(t, *StockInformationSchema.Properties["recommendation"].Nullable)

	assert.Equal(t, "ARRAY", string(ReportSchema.Properties["fundamentals"].Properties["key_metrics"].Type))
	assert.Equal(t, "ARRAY", string(ReportSchema.Properties["technicals"].Properties["key_indicators"].Type))

	assert.Equal(t, []string{"success"}, ScreeningStatusSchema.Required)
	assert.True(t, *ScreeningStatusSchema.Properties["criteria"].Nullable)
	assert.True(t, *ScreeningStatusSchema.Properties["error_message"].Nullable)
}
