package domain

import "context"

type RateSource string

const (
	SourceCrypto       RateSource = "crypto"
	SourceFiatPrimary  RateSource = "fiat_primary"
	SourceFiatFallback RateSource = "fiat_fallback"
)

// CryptoPriceProvider quotes one BTC in the requested currencies.
type CryptoPriceProvider interface {
	GetBTCPrices(ctx context.Context, quotes []Currency) (map[Currency]float64, error)
	GetName() string
}

// FiatRateProvider quotes one USD in the requested currencies.
type FiatRateProvider interface {
	GetUSDRates(ctx context.Context, quotes []Currency) (map[Currency]float64, error)
	GetName() string
}

// AggregationReport describes how a table was assembled.
type AggregationReport struct {
	SourceErrors map[RateSource]error
	// Pairs filled from fallback feed or configured defaults.
	FromFallback []Pair
	FromDefaults []Pair
	Derived      []Pair
}

func (r AggregationReport) Degraded() bool {
	return len(r.SourceErrors) > 0 || len(r.FromDefaults) > 0
}

// DefaultRates are last-resort placeholders used when upstream feeds fail.
type DefaultRates struct {
	USDNGN float64
	USDEUR float64
	USDGBP float64
	BTCUSD float64
}

func (d DefaultRates) USDTo(c Currency) float64 {
	switch c {
	case NGN:
		return d.USDNGN
	case EUR:
		return d.USDEUR
	case GBP:
		return d.USDGBP
	case USD:
		return 1
	}
	return 0
}
