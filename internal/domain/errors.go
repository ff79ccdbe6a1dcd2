package domain

import "errors"

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidRate         = errors.New("invalid rate")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrRatesUnavailable    = errors.New("rates not loaded")
	ErrInternalAggregation = errors.New("internal aggregation error")
	ErrSnapshotNotFound    = errors.New("rate snapshot not found")
	ErrMalformedFeed       = errors.New("malformed feed response")
)
