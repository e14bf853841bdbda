// Package report renders agent results for the terminal: investor reports
// and trader analyses as Markdown, and any Markdown as plain text.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"stockresearch/internal/agents/schemas"
)

// Section titles in render order
const (
	SectionFundamentals  = "Fundamentals"
	SectionTechnicals    = "Technicals"
	SectionSentiment     = "Sentiment"
	SectionConclusion    = "Conclusion"
	SubsectionMetrics    = "Key Metrics"
	SubsectionIndicators = "Key Indicators"
)

var thousand = decimal.NewFromInt(1000)

// RenderMarkdown renders r with a fixed layout: title, ticker, then the
// fundamentals, technicals, sentiment and conclusion sections. Empty metric
// lists are left out.
func RenderMarkdown(r schemas.Report) string {
	var b strings.Builder

	title := strings.TrimSpace(r.ReportTitle)
	if title == "" {
		title = strings.ToUpper(r.Ticker) + " Investor Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Ticker:** %s\n\n", strings.ToUpper(strings.TrimSpace(r.Ticker)))

	writeSection(&b, SectionFundamentals, r.Fundamentals.ValuationSummary)
	writeMetrics(&b, SubsectionMetrics, r.Fundamentals.KeyMetrics)

	writeSection(&b, SectionTechnicals, r.Technicals.MarketOverview)
	writeMetrics(&b, SubsectionIndicators, r.Technicals.KeyIndicators)

	writeSection(&b, SectionSentiment, r.Sentiment.SentimentSummary)
	writeSection(&b, SectionConclusion, r.Conclusion)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	body = strings.TrimSpace(body)
	if body == "" {
		body = "_Not available._"
	}
	b.WriteString(body)
	b.WriteString("\n\n")
}

func writeMetrics(b *strings.Builder, title string, metrics schemas.Metrics) {
	if len(metrics) == 0 {
		return
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(b, "### %s\n\n", title)
	for _, name := range names {
		fmt.Fprintf(b, "- **%s:** %s\n", name, FormatValue(metrics[name]))
	}
	b.WriteString("\n")
}

// FormatValue pretty-prints numeric metric values: two decimals at most and
// thousands separators from 1,000 up. Anything that is not a plain number
// ("$2.9T", "28.1x", "Strong Buy") is returned trimmed but otherwise as given.
func FormatValue(raw string) string {
	value := strings.TrimSpace(raw)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return value
	}

	d = d.Round(2)
	if d.Abs().LessThan(thousand) {
		return d.String()
	}
	if d.IsInteger() {
		return humanize.BigComma(d.BigInt())
	}
	return humanize.CommafWithDigits(d.InexactFloat64(), 2)
}
