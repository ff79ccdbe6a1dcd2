package usecase

import (
	"fmt"
	"math"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/shopspring/decimal"
)

type Conversion struct {
	From      domain.Currency
	To        domain.Currency
	Amount    float64
	Rate      float64
	Result    float64
	Formatted string
	Timestamp int64
}

// Convert multiplies amount by the resolved from->to rate. The formatted
// result uses 8 decimal places for BTC and 2 for everything else.
func Convert(table *domain.RateTable, from, to domain.Currency, amount float64) (Conversion, error) {
	return Resolver{}.Convert(table, from, to, amount)
}

func (r Resolver) Convert(table *domain.RateTable, from, to domain.Currency, amount float64) (Conversion, error) {
	if !from.IsValid() {
		return Conversion{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCurrency, from)
	}
	if !to.IsValid() {
		return Conversion{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedCurrency, to)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return Conversion{}, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, amount)
	}

	rate := r.Resolve(table, from, to)
	if rate == 0 {
		return Conversion{}, domain.ErrRatesUnavailable
	}
	if math.IsInf(rate, 0) {
		return Conversion{}, fmt.Errorf("%w: %s-%s rate overflows", domain.ErrRatesUnavailable, from, to)
	}

	result := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate))
	value, _ := result.Float64()
	// Results beyond float64 range cannot be represented on the wire.
	if math.IsInf(value, 0) {
		return Conversion{}, fmt.Errorf("%w: %v %s overflows in %s", domain.ErrInvalidAmount, amount, from, to)
	}
	return Conversion{
		From:      from,
		To:        to,
		Amount:    amount,
		Rate:      rate,
		Result:    value,
		Formatted: FormatAmount(result, to),
		Timestamp: table.Timestamp(),
	}, nil
}

// FormatAmount renders d with the display precision of c.
func FormatAmount(d decimal.Decimal, c domain.Currency) string {
	return d.StringFixed(c.Precision())
}
