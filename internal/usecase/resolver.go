package usecase

import (
	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

// GapObserver is told about pairs that could only be answered with the
// neutral fallback of 1.
type GapObserver func(from, to domain.Currency)

// Resolver answers any ordered pair from a sparse table. The zero value is
// ready to use and silently ignores gaps.
type Resolver struct {
	onGap GapObserver
}

func NewResolver(onGap GapObserver) Resolver {
	return Resolver{onGap: onGap}
}

// Resolve is the shared entry point for callers that do not observe gaps.
func Resolve(table *domain.RateTable, from, to domain.Currency) float64 {
	return Resolver{}.Resolve(table, from, to)
}

// Resolve returns the value of one unit of from expressed in to.
//
// A nil table yields the sentinel 0. Otherwise the answer is, in order:
// 1 for identity, the direct entry, the inverse of the reverse entry, or the
// product of from->USD and USD->to where each missing leg counts as 1.
func (r Resolver) Resolve(table *domain.RateTable, from, to domain.Currency) float64 {
	if table == nil {
		return 0
	}
	if from == to {
		return 1
	}
	if rate, ok := lookup(table, from, to); ok {
		return rate
	}

	toUSD, okFrom := leg(table, from, domain.USD)
	fromUSD, okTo := leg(table, domain.USD, to)
	if (!okFrom || !okTo) && r.onGap != nil {
		r.onGap(from, to)
	}
	return toUSD * fromUSD
}

// ResolvedRate is one entry of a fully resolved matrix.
type ResolvedRate struct {
	Pair domain.Pair
	Rate float64
}

// Matrix resolves all 20 ordered pairs over the supported currencies.
func (r Resolver) Matrix(table *domain.RateTable) []ResolvedRate {
	pairs := domain.AllPairs()
	out := make([]ResolvedRate, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, ResolvedRate{Pair: p, Rate: r.Resolve(table, p.From, p.To)})
	}
	return out
}

func lookup(table *domain.RateTable, from, to domain.Currency) (float64, bool) {
	if rate, ok := table.Rate(domain.NewPair(from, to)); ok {
		return rate, true
	}
	if rate, ok := table.Rate(domain.NewPair(to, from)); ok {
		return 1 / rate, true
	}
	return 0, false
}

func leg(table *domain.RateTable, from, to domain.Currency) (float64, bool) {
	if from == to {
		return 1, true
	}
	if rate, ok := lookup(table, from, to); ok {
		return rate, true
	}
	return 1, false
}
