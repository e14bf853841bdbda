package state

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/adk/session"
)

type mapState map[string]any

func (m mapState) Get(key string) (any, error) {
	v, ok := m[key]
	if !ok {
		return nil, session.ErrStateKeyNotExist
	}
	return v, nil
}

func (m mapState) Set(key string, val any) error {
	m[key] = val
	return nil
}

func (m mapState) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for k, v := range m {
			if !yield(k, v) {
				return
			}
		}
	}
}

var _ session.State = mapState(nil)

func TestGetString(t *testing.T) {
	st := mapState{
		KeyMarketResult:    "AAPL trades at 189.50",
		KeyInvestorReport:  map[string]any{"ticker": "AAPL"},
		KeyScreeningResult: nil,
	}

	s, ok := GetString(st, KeyMarketResult)
	assert.True(t, ok)
	assert.Equal(t, "AAPL trades at 189.50", s)

	s, ok = GetString(st, KeyInvestorReport)
	assert.True(t, ok)
	assert.JSONEq(t, `{"ticker":"AAPL"}`, s)

	_, ok = GetString(st, KeyScreeningResult)
	assert.False(t, ok)

	_, ok = GetString(st, KeyStrategyResult)
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	st := mapState{
		KeyMarketResult:    "m",
		KeySentimentResult: "s",
	}

	got := Snapshot(st, KeyMarketResult, KeySentimentResult, KeyFundamentalsResult)
	assert.Equal(t, map[string]string{
		KeyMarketResult:    "m",
		KeySentimentResult: "s",
	}, got)
}
