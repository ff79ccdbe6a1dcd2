package usecase

import (
	"context"
	"log/slog"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

type RateService interface {
	GetRates(ctx context.Context) (*domain.RateTable, error)
	Convert(ctx context.Context, from, to domain.Currency, amount float64) (Conversion, error)
	Matrix(ctx context.Context) (*domain.RateTable, []ResolvedRate, error)
	Ready() bool
}

type TableSource interface {
	GetRates(ctx context.Context) (*domain.RateTable, error)
	Current() *domain.RateTable
}

type DefaultRateService struct {
	tables   TableSource
	resolver Resolver
}

func NewDefaultRateService(tables TableSource, metrics RateMetrics, logger *slog.Logger) *DefaultRateService {
	m := metricsOrNoop(metrics)
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultRateService{
		tables: tables,
		resolver: NewResolver(func(from, to domain.Currency) {
			pair := domain.NewPair(from, to)
			logger.Warn("rate resolution gap, missing leg counted as 1", "pair", pair.String())
			m.RecordResolutionGap(pair)
		}),
	}
}

func (s *DefaultRateService) GetRates(ctx context.Context) (*domain.RateTable, error) {
	return s.tables.GetRates(ctx)
}

func (s *DefaultRateService) Convert(ctx context.Context, from, to domain.Currency, amount float64) (Conversion, error) {
	table, err := s.tables.GetRates(ctx)
	if err != nil {
		return Conversion{}, err
	}
	return s.resolver.Convert(table, from, to, amount)
}

func (s *DefaultRateService) Matrix(ctx context.Context) (*domain.RateTable, []ResolvedRate, error) {
	table, err := s.tables.GetRates(ctx)
	if err != nil {
		return nil, nil, err
	}
	return table, s.resolver.Matrix(table), nil
}

// Ready reports whether any table has been loaded yet.
func (s *DefaultRateService) Ready() bool {
	return s.tables.Current() != nil
}
