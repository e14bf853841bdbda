package state

import (
	"encoding/json"
	"fmt"

	"google.golang.org/adk/session"
)

// Output keys agents publish to session state. Later agents read them through
// {key} placeholders in their instructions.
const (
	KeyMarketResult           = "market_agent_result"
	KeyFundamentalsResult     = "fundamentals_agent_result"
	KeySentimentResult        = "sentiment_agent_result"
	KeyStockInformationResult = "stock_information_result"
	KeyStrategyResult         = "strategy_agent_result"

	KeyStockDataResult = "stock_data_agent_result"
	KeyInvestorReport  = "investor_report"
	KeyScreeningResult = "screening_result"
)

// GetString reads key as text. Non-string values (maps published by agent
// tools) are returned as JSON.
func GetString(st session.ReadonlyState, key string) (string, bool) {
	val, err := st.Get(key)
	if err != nil || val == nil {
		return "", false
	}
	s, err := Stringify(val)
	if err != nil {
		return "", false
	}
	return s, true
}

// Stringify renders a state value the way it is shown to later agents
func Stringify(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// Snapshot copies the listed keys that are present in st
func Snapshot(st session.ReadonlyState, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if s, ok := GetString(st, key); ok {
			out[key] = s
		}
	}
	return out
}
