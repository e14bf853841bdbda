package schemas

import "google.golang.org/genai"

// ScreeningCriteria is a stock screen extracted from a natural language query.
// Every field is optional since users rarely name all of them.
type ScreeningCriteria struct {
	Sectors                []string `json:"sectors,omitempty" validate:"omitempty,dive,required"`
	MarketCapMinUSD        *float64 `json:"market_cap_min_usd,omitempty" validate:"omitempty,gte=0"`
	MarketCapMaxUSD        *float64 `json:"market_cap_max_usd,omitempty" validate:"omitempty,gte=0"`
	PERatioMax             *float64 `json:"pe_ratio_max,omitempty" validate:"omitempty,gt=0"`
	PositiveEarningsGrowth *bool    `json:"positive_earnings_growth,omitempty"`
	PositiveRevenueGrowth  *bool    `json:"positive_revenue_growth,omitempty"`
}

// Empty reports whether no criterion was identified
func (c ScreeningCriteria) Empty() bool {
	return len(c.Sectors) == 0 &&
		c.MarketCapMinUSD == nil && c.MarketCapMaxUSD == nil &&
		c.PERatioMax == nil &&
		c.PositiveEarningsGrowth == nil && c.PositiveRevenueGrowth == nil
}

// ScreeningStatus is the NLP screener output. Criteria is set on success and
// ErrorMessage on failure.
type ScreeningStatus struct {
	Success      bool               `json:"success"`
	Criteria     *ScreeningCriteria `json:"criteria" validate:"required_if=Success true"`
	ErrorMessage *string            `json:"error_message" validate:"required_if=Success false"`
}

// ScreeningStatusSchema is the output schema of the NLP screener agent
var ScreeningStatusSchema = &genai.Schema{
	Type: "OBJECT",
	Properties: map[string]*genai.Schema{
		"success": {
			Type:        "BOOLEAN",
			Description: "True if the agent successfully identified screening criteria. False if the query was not understood or out of scope.",
		},
		"criteria": {
			Type:        "OBJECT",
			Description: "The structured screening criteria object. Will be null if success is false.",
			Nullable:    boolPtr(true),
			Properties: map[string]*genai.Schema{
				"sectors": {
					Type:        "ARRAY",
					Description: "A list of stock sectors to filter by (e.g., 'Technology', 'Healthcare').",
					Items:       &genai.Schema{Type: "STRING"},
					Nullable:    boolPtr(true),
				},
				"market_cap_min_usd": {
					Type:        "NUMBER",
					Description: "The minimum market capitalization in USD to filter by.",
					Nullable:    boolPtr(true),
				},
				"market_cap_max_usd": {
					Type:        "NUMBER",
					Description: "The maximum market capitalization in USD to filter by.",
					Nullable:    boolPtr(true),
				},
				"pe_ratio_max": {
					Type:        "NUMBER",
					Description: "The maximum Price-to-Earnings (P/E) ratio for finding undervalued stocks.",
					Nullable:    boolPtr(true),
				},
				"positive_earnings_growth": {
					Type:        "BOOLEAN",
					Description: "True if the user is looking for stocks with positive earnings growth.",
					Nullable:    boolPtr(true),
				},
				"positive_revenue_growth": {
					Type:        "BOOLEAN",
					Description: "True if the user is looking for stocks with positive revenue growth.",
					Nullable:    boolPtr(true),
				},
			},
		},
		"error_message": {
			Type:        "STRING",
			Description: "A user-friendly message explaining why the query could not be processed. Will be null if success is true.",
			Nullable:    boolPtr(true),
		},
	},
	Required:         []string{"success"},
	PropertyOrdering: []string{"success", "criteria", "error_message"},
}
