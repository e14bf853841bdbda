package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockresearch/internal/agents/schemas"
)

// Section titles of the trader analysis
const (
	SectionValuation      = "Valuation"
	SectionRecommendation = "Recommendation"
)

// RenderStockInformation renders the merged trader analysis followed by the
// strategy agent's recommendation. An empty recommendation falls back to the
// one carried in info.
func RenderStockInformation(info schemas.StockInformation, recommendation string) string {
	var b strings.Builder

	ticker := strings.ToUpper(strings.TrimSpace(info.Ticker))
	fmt.Fprintf(&b, "# %s Stock Analysis\n\n", ticker)
	fmt.Fprintf(&b, "- **Price:** $%s\n", FormatValue(decimal.NewFromFloat(info.CurrentPrice).StringFixed(2)))
	fmt.Fprintf(&b, "- **RSI:** %s\n\n", FormatValue(decimal.NewFromFloat(info.RSI).String()))

	writeSection(&b, SectionSentiment, info.SentimentSummary)
	writeSection(&b, SectionValuation, info.ValuationSummary)

	recommendation = strings.TrimSpace(recommendation)
	if recommendation == "" && info.Recommendation != nil {
		recommendation = *info.Recommendation
	}
	writeSection(&b, SectionRecommendation, recommendation)

	return strings.TrimRight(b.String(), "\n") + "\n"
}
