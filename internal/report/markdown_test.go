package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"stockresearch/internal/agents/schemas"
)

type heading struct {
	Level int
	Text  string
}

// outline parses markdown and returns its headings in document order
func outline(t *testing.T, markdown string) []heading {
	t.Helper()
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var headings []heading
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		headings = append(headings, heading{Level: h.Level, Text: inlineText(h, source)})
		return ast.WalkSkipChildren, nil
	})
	require.NoError(t, err)
	return headings
}

const reportJSON = `{
	"ticker": "aapl",
	"report_title": "Apple Inc. Investor Report",
	"fundamentals": {
		"valuation_summary": "Apple trades at a premium to the sector.",
		"key_metrics": [
			{"name": "P/E", "value": "29.456"},
			{"name": "Market Cap", "value": "2950000000000"},
			{"name": "EPS", "value": 6.43}
		]
	},
	"technicals": {
		"market_overview": "Price sits below its 20-day average.",
		"key_indicators": {"RSI": 28.4, "SMA 20": "1234.5"}
	},
	"sentiment": {"sentiment_summary": "Positive after earnings."},
	"conclusion": "Oversold with solid fundamentals."
}`

func TestRenderMarkdown_SectionOrder(t *testing.T) {
	r, err := schemas.Decode[schemas.Report](reportJSON)
	require.NoError(t, err)

	md := RenderMarkdown(*r)

	assert.Equal(t, []heading{
		{Level: 1, Text: "Apple Inc. Investor Report"},
		{Level: 2, Text: SectionFundamentals},
		{Level: 3, Text: SubsectionMetrics},
		{Level: 2, Text: SectionTechnicals},
		{Level: 3, Text: SubsectionIndicators},
		{Level: 2, Text: SectionSentiment},
		{Level: 2, Text: SectionConclusion},
	}, outline(t, md))

	assert.Contains(t, md, "**Ticker:** AAPL\n")
	assert.Contains(t, md, "- **EPS:** 6.43\n- **Market Cap:** 2,950,000,000,000\n- **P/E:** 29.46\n")
	assert.Contains(t, md, "- **RSI:** 28.4\n- **SMA 20:** 1,234.5\n")
	assert.Contains(t, md, "Oversold with solid fundamentals.\n")
}

func TestRenderMarkdown_SparseReport(t *testing.T) {
	md := RenderMarkdown(schemas.Report{
		Ticker:     "msft",
		Conclusion: "Hold.",
	})

	assert.Equal(t, []heading{
		{Level: 1, Text: "MSFT Investor Report"},
		{Level: 2, Text: SectionFundamentals},
		{Level: 2, Text: SectionTechnicals},
		{Level: 2, Text: SectionSentiment},
		{Level: 2, Text: SectionConclusion},
	}, outline(t, md))
	assert.Contains(t, md, "## Sentiment\n\n_Not available._\n")
}

func TestFormatValue(t *testing.T) {
	cases := map[string]string{
		"28.456":        "28.46",
		"30":            "30",
		" 6.43 ":        "6.43",
		"0.5":           "0.5",
		"1234.5":        "1,234.5",
		"-1500":         "-1,500",
		"2950000000000": "2,950,000,000,000",
		// beyond int64
		"12345678901234567890123": "12,345,678,901,234,567,890,123",
		"-9300000000000000000":    "-9,300,000,000,000,000,000",
		"$2.9T":         "$2.9T",
		"Strong Buy":    "Strong Buy",
		"":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatValue(in), "input %q", in)
	}
}

func TestPlainText(t *testing.T) {
	md := "# The *big* `AAPL` call\n\n**Ticker:** AAPL\n\n## Key Metrics\n\n- **P/E:** 29.46\n- **EPS:** 6.43\n\n## Sentiment\n\n_Not available._\n"

	assert.Equal(t, "The big AAPL call\n=================\n\n"+
		"Ticker: AAPL\n\n"+
		"Key Metrics\n\n"+
		"- P/E: 29.46\n- EPS: 6.43\n\n"+
		"Sentiment\n\n"+
		"Not available.\n", PlainText(md))

	assert.Empty(t, PlainText("  \n"))
}

func TestRenderStockInformation(t *testing.T) {
	info, err := schemas.Decode[schemas.StockInformation](`{
		"ticker": "nvda",
		"current_price": 1234.5,
		"rsi": 28.44,
		"sentiment_summary": "Upbeat after earnings.",
		"valuation_summary": "Rich multiple, strong margins.",
		"recommendation": null
	}`)
	require.NoError(t, err)

	md := RenderStockInformation(*info, "  Buy below $1,200.\n")
	assert.Equal(t, []heading{
		{Level: 1, Text: "NVDA Stock Analysis"},
		{Level: 2, Text: SectionSentiment},
		{Level: 2, Text: SectionValuation},
		{Level: 2, Text: SectionRecommendation},
	}, outline(t, md))
	assert.Contains(t, md, "- **Price:** $1,234.5\n- **RSI:** 28.44\n")
	assert.Contains(t, md, "## Recommendation\n\nBuy below $1,200.\n")

	t.Run("falls back to the embedded recommendation", func(t *testing.T) {
		hold := "Hold."
		info.Recommendation = &hold
		assert.Contains(t, RenderStockInformation(*info, ""), "## Recommendation\n\nHold.\n")

		info.Recommendation = nil
		assert.Contains(t, RenderStockInformation(*info, ""), "## Recommendation\n\n_Not available._\n")
	})
}
