package schemas

import (
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/genai"

	"stockresearch/pkg/errors"
)

// Report is the structured investor report produced by the report generator
type Report struct {
	Ticker       string              `json:"ticker" validate:"required"`
	ReportTitle  string              `json:"report_title" validate:"required"`
	Fundamentals FundamentalsSection `json:"fundamentals"`
	Technicals   TechnicalsSection   `json:"technicals"`
	Sentiment    SentimentSection    `json:"sentiment"`
	Conclusion   string              `json:"conclusion" validate:"required"`
}

type FundamentalsSection struct {
	ValuationSummary string  `json:"valuation_summary" validate:"required"`
	KeyMetrics       Metrics `json:"key_metrics"`
}

type TechnicalsSection struct {
	MarketOverview string  `json:"market_overview" validate:"required"`
	KeyIndicators  Metrics `json:"key_indicators"`
}

type SentimentSection struct {
	SentimentSummary string `json:"sentiment_summary" validate:"required"`
}

// Metrics maps a metric name (EPS, P/E, RSI) to its reported value.
//
// Gemini cannot emit free-form objects under a response schema, so the schema
// asks for a list of name/value pairs. A plain JSON object is accepted too.
type Metrics map[string]string

// UnmarshalJSON accepts either [{"name": "P/E", "value": "28.1"}] or {"P/E": 28.1}
func (m *Metrics) UnmarshalJSON(data []byte) error {
	out := Metrics{}

	var pairs []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(data, &pairs); err == nil {
		for _, p := range pairs {
			if p.Name == "" || p.Value == nil {
				continue
			}
			out[p.Name] = metricString(p.Value)
		}
		*m = out
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "metrics must be an object or a list of name/value pairs: %v", err)
	}
	for k, v := range obj {
		if v == nil {
			continue
		}
		out[k] = metricString(v)
	}
	*m = out
	return nil
}

func metricString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func metricListSchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        "ARRAY",
		Description: description,
		Items: &genai.Schema{
			Type: "OBJECT",
			Properties: map[string]*genai.Schema{
				"name":  {Type: "STRING", Description: "Metric name, for example P/E or RSI"},
				"value": {Type: "STRING", Description: "Metric value as reported, including units"},
			},
			Required:         []string{"name", "value"},
			PropertyOrdering: []string{"name", "value"},
		},
	}
}

// ReportSchema is the output schema of the report generator
var ReportSchema = &genai.Schema{
	Type:        "OBJECT",
	Description: "Investor report synthesized from the research agents",
	Properties: map[string]*genai.Schema{
		"ticker": {
			Type:        "STRING",
			Description: "The stock ticker symbol (e.g., AAPL).",
		},
		"report_title": {
			Type:        "STRING",
			Description: "A concise, descriptive title for the investor report.",
		},
		"fundamentals": {
			Type: "OBJECT",
			Properties: map[string]*genai.Schema{
				"valuation_summary": {
					Type:        "STRING",
					Description: "A descriptive paragraph summarizing key valuation metrics (e.g., P/E, P/S, market cap) and financial health.",
				},
				"key_metrics": metricListSchema("Key fundamental metrics like EPS, P/E, Market Cap."),
			},
			Required:         []string{"valuation_summary", "key_metrics"},
			PropertyOrdering: []string{"valuation_summary", "key_metrics"},
		},
		"technicals": {
			Type: "OBJECT",
			Properties: map[string]*genai.Schema{
				"market_overview": {
					Type:        "STRING",
					Description: "A descriptive paragraph summarizing the stock's recent price action and overall market trends.",
				},
				"key_indicators": metricListSchema("Key technical indicators like RSI and moving averages."),
			},
			Required:         []string{"market_overview", "key_indicators"},
			PropertyOrdering: []string{"market_overview", "key_indicators"},
		},
		"sentiment": {
			Type: "OBJECT",
			Properties: map[string]*genai.Schema{
				"sentiment_summary": {
					Type:        "STRING",
					Description: "A descriptive paragraph summarizing the latest news, social media, and analyst sentiment for the stock.",
				},
			},
			Required: []string{"sentiment_summary"},
		},
		"conclusion": {
			Type:        "STRING",
			Description: "A concluding summary of the research, highlighting key insights and potential risks.",
		},
	},
	Required: []string{"ticker", "report_title", "fundamentals", "technicals", "sentiment", "conclusion"},
	PropertyOrdering: []string{
		"ticker", "report_title", "fundamentals", "technicals", "sentiment", "conclusion",
	},
}
