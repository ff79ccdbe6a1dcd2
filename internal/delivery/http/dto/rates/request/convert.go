package request

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

type ConvertRequest struct {
	From   domain.Currency
	To     domain.Currency
	Amount float64
}

// ParseConvertRequest reads from, to and amount from the query string.
// amount defaults to 1.
func ParseConvertRequest(q url.Values) (ConvertRequest, error) {
	from, err := domain.ParseCurrency(q.Get("from"))
	if err != nil {
		return ConvertRequest{}, err
	}
	to, err := domain.ParseCurrency(q.Get("to"))
	if err != nil {
		return ConvertRequest{}, err
	}

	amount := 1.0
	if raw := q.Get("amount"); raw != "" {
		amount, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return ConvertRequest{}, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, raw)
		}
	}
	return ConvertRequest{From: from, To: to, Amount: amount}, nil
}
