package setup

import (
	"fmt"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	infrastructure "github.com/LavaJover/vaultx-rates-service/internal/infrastructure/exchange_providers"
	"github.com/LavaJover/vaultx-rates-service/internal/usecase"
)

type UseCases struct {
	Aggregator  usecase.RateAggregator
	RateCache   *usecase.RateCache
	RateService usecase.RateService
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config

	coingecko := infrastructure.NewCoinGeckoProvider(cfg.Feeds.CoinGeckoURL, cfg.Feeds.Timeout)
	var fallback domain.FiatRateProvider
	if !cfg.Feeds.FallbackDisabled {
		fallback = infrastructure.NewERAPIProvider(cfg.Feeds.ERAPIURL, cfg.Feeds.Timeout)
	}

	aggregator := usecase.NewDefaultRateAggregator(usecase.AggregatorParams{
		Crypto:   coingecko,
		Fiat:     coingecko,
		Fallback: fallback,
		Defaults: domain.DefaultRates{
			USDNGN: cfg.Rates.DefaultUSDNGN,
			USDEUR: cfg.Rates.DefaultUSDEUR,
			USDGBP: cfg.Rates.DefaultUSDGBP,
			BTCUSD: cfg.Rates.DefaultBTCUSD,
		},
		Timeout: cfg.Feeds.Timeout,
		Metrics: deps.Metrics,
		Logger:  deps.Logger.With("component", "aggregator"),
	})

	rateCache, err := usecase.NewRateCache(usecase.RateCacheParams{
		Aggregator: aggregator,
		Config: usecase.RateCacheConfig{
			StaleAfter:     cfg.Cache.StaleAfter,
			RefreshTimeout: cfg.Cache.RefreshTimeout,
		},
		Shared:    deps.Repositories.SharedCache,
		Snapshots: deps.SnapshotRepository(),
		Events:    deps.Repositories.Events,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger.With("component", "rate_cache"),
	})
	if err != nil {
		return nil, fmt.Errorf("rate cache: %w", err)
	}

	return &UseCases{
		Aggregator:  aggregator,
		RateCache:   rateCache,
		RateService: usecase.NewDefaultRateService(rateCache, deps.Metrics, deps.Logger.With("component", "rate_service")),
	}, nil
}
