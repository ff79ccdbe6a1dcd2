package domain

import (
	"fmt"
	"strings"
)

type Currency string

const (
	USD Currency = "USD"
	NGN Currency = "NGN"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	BTC Currency = "BTC"
)

type CurrencyInfo struct {
	Code      Currency
	Symbol    string
	Name      string
	Precision int32
}

var currencies = map[Currency]CurrencyInfo{
	NGN: {Code: NGN, Symbol: "₦", Name: "Nigerian Naira", Precision: 2},
	USD: {Code: USD, Symbol: "$", Name: "US Dollar", Precision: 2},
	EUR: {Code: EUR, Symbol: "€", Name: "Euro", Precision: 2},
	GBP: {Code: GBP, Symbol: "£", Name: "British Pound", Precision: 2},
	BTC: {Code: BTC, Symbol: "₿", Name: "Bitcoin", Precision: 8},
}

// Currencies returns the supported set in a stable order.
func Currencies() []Currency {
	return []Currency{USD, NGN, EUR, GBP, BTC}
}

// FiatQuotes are the currencies quoted against USD by the fiat feeds.
func FiatQuotes() []Currency {
	return []Currency{NGN, EUR, GBP}
}

func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, raw)
	}
	return c, nil
}

func (c Currency) IsValid() bool {
	_, ok := currencies[c]
	return ok
}

func (c Currency) Info() CurrencyInfo {
	return currencies[c]
}

// Precision is the number of decimal places used when displaying amounts
// in this currency.
func (c Currency) Precision() int32 {
	if info, ok := currencies[c]; ok {
		return info.Precision
	}
	return 2
}

func (c Currency) String() string {
	return string(c)
}
