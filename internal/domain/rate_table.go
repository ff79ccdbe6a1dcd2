package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// RateTable is an immutable snapshot of rates keyed by ordered pair.
// Callers only ever see copies of the underlying map.
type RateTable struct {
	rates      map[Pair]float64
	capturedAt time.Time
}

func NewRateTable(rates map[Pair]float64, capturedAt time.Time) (*RateTable, error) {
	copied := make(map[Pair]float64, len(rates))
	for pair, rate := range rates {
		if err := ValidateRate(rate); err != nil {
			return nil, fmt.Errorf("%s: %w", pair, err)
		}
		copied[pair] = rate
	}
	if capturedAt.IsZero() {
		return nil, fmt.Errorf("%w: zero capture time", ErrInvalidRate)
	}
	return &RateTable{rates: copied, capturedAt: capturedAt}, nil
}

// ValidateRate reports whether r can be stored in a table.
func ValidateRate(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, r)
	}
	return nil
}

func (t *RateTable) Rate(pair Pair) (float64, bool) {
	if t == nil {
		return 0, false
	}
	r, ok := t.rates[pair]
	return r, ok
}

func (t *RateTable) Rates() map[Pair]float64 {
	out := make(map[Pair]float64, len(t.rates))
	for k, v := range t.rates {
		out[k] = v
	}
	return out
}

// Pairs returns the stored pairs sorted by key.
func (t *RateTable) Pairs() []Pair {
	pairs := make([]Pair, 0, len(t.rates))
	for p := range t.rates {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].String() < pairs[j].String()
	})
	return pairs
}

func (t *RateTable) Len() int {
	return len(t.rates)
}

func (t *RateTable) CapturedAt() time.Time {
	return t.capturedAt
}

// Timestamp is the capture time in milliseconds since epoch.
func (t *RateTable) Timestamp() int64 {
	return t.capturedAt.UnixMilli()
}

// Age returns how long ago the table was captured relative to now.
func (t *RateTable) Age(now time.Time) time.Duration {
	return now.Sub(t.capturedAt)
}

// KeyedRates renders the rates with "FROM-TO" string keys.
func (t *RateTable) KeyedRates() map[string]float64 {
	out := make(map[string]float64, len(t.rates))
	for p, r := range t.rates {
		out[p.String()] = r
	}
	return out
}

func (t *RateTable) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(t.rates)+1)
	for p, r := range t.rates {
		body[p.String()] = r
	}
	body["timestamp"] = t.Timestamp()
	return json.Marshal(body)
}

func (t *RateTable) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var ts int64
	rates := make(map[Pair]float64, len(raw))
	for key, value := range raw {
		if key == "timestamp" {
			if err := json.Unmarshal(value, &ts); err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
			continue
		}
		pair, err := ParsePair(key)
		if err != nil {
			return err
		}
		var rate float64
		if err := json.Unmarshal(value, &rate); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		rates[pair] = rate
	}
	if ts <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRate)
	}

	table, err := NewRateTable(rates, time.UnixMilli(ts))
	if err != nil {
		return err
	}
	*t = *table
	return nil
}
