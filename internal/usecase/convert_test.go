package usecase

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_FiatTarget(t *testing.T) {
	table := mustTable(t, fullRates(), time.Now())

	conv, err := Convert(table, domain.USD, domain.NGN, 10)
	require.NoError(t, err)

	assert.Equal(t, 1550.0, conv.Rate)
	assert.Equal(t, 15500.0, conv.Result)
	assert.Equal(t, "15500.00", conv.Formatted)
	assert.Equal(t, table.Timestamp(), conv.Timestamp)
}

func TestConvert_BTCTargetUsesEightDecimals(t *testing.T) {
	table := mustTable(t, fullRates(), time.Now())

	conv, err := Convert(table, domain.USD, domain.BTC, 100)
	require.NoError(t, err)

	assert.Equal(t, "0.00142857", conv.Formatted)
}

func TestConvert_Identity(t *testing.T) {
	table := mustTable(t, fullRates(), time.Now())

	conv, err := Convert(table, domain.EUR, domain.EUR, 12.345)
	require.NoError(t, err)
	assert.Equal(t, 1.0, conv.Rate)
	assert.Equal(t, "12.35", conv.Formatted)
}

func TestConvert_Errors(t *testing.T) {
	table := mustTable(t, fullRates(), time.Now())

	_, err := Convert(table, domain.USD, domain.NGN, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = Convert(table, domain.USD, domain.NGN, math.NaN())
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = Convert(table, domain.Currency("JPY"), domain.NGN, 1)
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)

	_, err = Convert(nil, domain.USD, domain.NGN, 1)
	assert.ErrorIs(t, err, domain.ErrRatesUnavailable)
}

func TestConvert_RejectsOverflowingResult(t *testing.T) {
	table := mustTable(t, fullRates(), time.Now())

	_, err := Convert(table, domain.USD, domain.NGN, 1e307)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = Convert(table, domain.USD, domain.NGN, math.MaxFloat64)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestFormatAmount(t *testing.T) {
	d := decimal.RequireFromString("1.123456789")
	assert.Equal(t, "1.12345679", FormatAmount(d, domain.BTC))
	assert.Equal(t, "1.12", FormatAmount(d, domain.GBP))
}

type fixedTables struct {
	table *domain.RateTable
	err   error
}

func (f fixedTables) GetRates(context.Context) (*domain.RateTable, error) { return f.table, f.err }
func (f fixedTables) Current() *domain.RateTable { return f.table }

func TestRateService_ReportsGaps(t *testing.T) {
	m := &recordingMetrics{}
	table := mustTable(t, map[domain.Pair]float64{domain.NewPair(domain.USD, domain.NGN): 1550}, time.Now())
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := NewDefaultRateService(fixedTables{table: table}, m, logger)

	conv, err := svc.Convert(context.Background(), domain.EUR, domain.GBP, 5)
	require.NoError(t, err)
	assert.Equal(t, "5.00", conv.Formatted)
	assert.Equal(t, []domain.Pair{domain.NewPair(domain.EUR, domain.GBP)}, m.gaps)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "pair=EUR-GBP")
	assert.True(t, svc.Ready())
}

func TestRateService_Matrix(t *testing.T) {
	svc := NewDefaultRateService(fixedTables{table: mustTable(t, fullRates(), time.Now())}, nil, nil)

	table, matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Len(t, matrix, 20)
}

func TestRateService_PropagatesTableErrors(t *testing.T) {
	svc := NewDefaultRateService(fixedTables{err: domain.ErrInternalAggregation}, nil, nil)

	_, err := svc.Convert(context.Background(), domain.USD, domain.NGN, 1)
	assert.ErrorIs(t, err, domain.ErrInternalAggregation)
	assert.False(t, svc.Ready())
}
