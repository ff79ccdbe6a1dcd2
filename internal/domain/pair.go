package domain

import (
	"fmt"
	"strings"
)

// Pair is an ordered currency pair: one unit of From expressed in To.
type Pair struct {
	From Currency
	To   Currency
}

func NewPair(from, to Currency) Pair {
	return Pair{From: from, To: to}
}

// ParsePair accepts the "FROM-TO" key form used on the wire.
func ParsePair(key string) (Pair, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("%w: malformed pair %q", ErrUnsupportedCurrency, key)
	}
	from, err := ParseCurrency(parts[0])
	if err != nil {
		return Pair{}, err
	}
	to, err := ParseCurrency(parts[1])
	if err != nil {
		return Pair{}, err
	}
	return Pair{From: from, To: to}, nil
}

func (p Pair) Reversed() Pair {
	return Pair{From: p.To, To: p.From}
}

func (p Pair) IsIdentity() bool {
	return p.From == p.To
}

func (p Pair) String() string {
	return string(p.From) + "-" + string(p.To)
}

// CanonicalPairs are the seven pairs the aggregator is responsible for.
func CanonicalPairs() []Pair {
	return []Pair{
		{USD, NGN},
		{USD, EUR},
		{USD, GBP},
		{BTC, USD},
		{BTC, NGN},
		{BTC, EUR},
		{BTC, GBP},
	}
}

// AllPairs enumerates every ordered pair of distinct supported currencies.
func AllPairs() []Pair {
	list := Currencies()
	pairs := make([]Pair, 0, len(list)*(len(list)-1))
	for _, from := range list {
		for _, to := range list {
			if from == to {
				continue
			}
			pairs = append(pairs, Pair{From: from, To: to})
		}
	}
	return pairs
}
