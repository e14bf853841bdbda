package market_data

import (
	"bytes"
	"encoding/json"

	"stockresearch/internal/adapters/polygon"
)

// BatchResult maps uppercased symbols to their individual results.
// Keys keep first-insertion order; a later write for the same symbol
// replaces the value in place.
type BatchResult struct {
	keys   []string
	values map[string]polygon.Result
}

func NewBatchResult() *BatchResult {
	return &BatchResult{values: map[string]polygon.Result{}}
}

// Set stores v under the normalized symbol
func (b *BatchResult) Set(symbol string, v polygon.Result) {
	key := NormalizeSymbol(symbol)
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
}

func (b *BatchResult) Get(symbol string) (polygon.Result, bool) {
	v, ok := b.values[NormalizeSymbol(symbol)]
	return v, ok
}

// Keys returns symbols in insertion order
func (b *BatchResult) Keys() []string {
	return append([]string(nil), b.keys...)
}

func (b *BatchResult) Len() int {
	return len(b.keys)
}

// Map returns the results as a plain map, as handed to agent tools
func (b *BatchResult) Map() map[string]any {
	out := make(map[string]any, len(b.keys))
	for _, k := range b.keys {
		out[k] = map[string]any(b.values[k])
	}
	return out
}

// MarshalJSON writes the object with keys in insertion order
func (b *BatchResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
