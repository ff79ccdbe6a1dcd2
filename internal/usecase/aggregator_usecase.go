package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

type RateAggregator interface {
	Aggregate(ctx context.Context) (*domain.RateTable, domain.AggregationReport, error)
}

var errSourceNotConfigured = errors.New("source not configured")

type AggregatorParams struct {
	Crypto   domain.CryptoPriceProvider
	Fiat     domain.FiatRateProvider
	Fallback domain.FiatRateProvider
	Defaults domain.DefaultRates
	// Timeout bounds every single upstream call.
	Timeout time.Duration
	Metrics RateMetrics
	Logger  *slog.Logger
}

type DefaultRateAggregator struct {
	crypto   domain.CryptoPriceProvider
	fiat     domain.FiatRateProvider
	fallback domain.FiatRateProvider
	defaults domain.DefaultRates
	timeout  time.Duration
	metrics  RateMetrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewDefaultRateAggregator(p AggregatorParams) *DefaultRateAggregator {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultRateAggregator{
		crypto:   p.Crypto,
		fiat:     p.Fiat,
		fallback: p.Fallback,
		defaults: p.Defaults,
		timeout:  timeout,
		metrics:  metricsOrNoop(p.Metrics),
		logger:   logger,
		now:      time.Now,
	}
}

// Aggregate builds one complete table. Upstream failures are absorbed by
// substituting defaults; the returned error is always ErrInternalAggregation.
func (a *DefaultRateAggregator) Aggregate(ctx context.Context) (table *domain.RateTable, report domain.AggregationReport, err error) {
	start := a.now()
	defer func() {
		if rec := recover(); rec != nil {
			table = nil
			err = fmt.Errorf("%w: %v", domain.ErrInternalAggregation, rec)
		}
		if err != nil {
			a.logger.Error("rates aggregation failed", "error", err)
			return
		}
		a.metrics.RecordAggregation(a.now().Sub(start), report.Degraded())
	}()

	report = domain.AggregationReport{SourceErrors: make(map[domain.RateSource]error)}

	var (
		btcPrices, usdRates map[domain.Currency]float64
		btcErr, fiatErr     error
		wg                  sync.WaitGroup
	)
	// Source failures never cancel the sibling fetch.
	wg.Add(2)
	go func() {
		defer wg.Done()
		btcPrices, btcErr = a.fetchCrypto(ctx)
	}()
	go func() {
		defer wg.Done()
		usdRates, fiatErr = a.fetchFiat(ctx, a.fiat, domain.FiatQuotes())
	}()
	wg.Wait()

	a.noteSource(&report, domain.SourceCrypto, btcErr)
	a.noteSource(&report, domain.SourceFiatPrimary, fiatErr)

	usdTo := make(map[domain.Currency]float64, len(domain.FiatQuotes()))
	var missing []domain.Currency
	for _, c := range domain.FiatQuotes() {
		if v, ok := validQuote(usdRates, c); ok {
			usdTo[c] = v
			continue
		}
		missing = append(missing, c)
	}

	// The fallback feed only fills what the primary feed could not provide.
	if len(missing) > 0 && a.fallback != nil {
		fallbackRates, fbErr := a.fetchFiat(ctx, a.fallback, missing)
		a.noteSource(&report, domain.SourceFiatFallback, fbErr)
		for _, c := range missing {
			if v, ok := validQuote(fallbackRates, c); ok {
				usdTo[c] = v
				report.FromFallback = append(report.FromFallback, domain.NewPair(domain.USD, c))
			}
		}
	}

	for _, c := range domain.FiatQuotes() {
		if _, ok := usdTo[c]; ok {
			continue
		}
		usdTo[c] = a.defaults.USDTo(c)
		a.useDefault(&report, domain.NewPair(domain.USD, c))
	}

	btcUSD, ok := validQuote(btcPrices, domain.USD)
	if !ok {
		btcUSD = a.defaults.BTCUSD
		a.useDefault(&report, domain.NewPair(domain.BTC, domain.USD))
	}

	rates := make(map[domain.Pair]float64, len(domain.CanonicalPairs()))
	rates[domain.NewPair(domain.BTC, domain.USD)] = btcUSD
	for _, c := range domain.FiatQuotes() {
		rates[domain.NewPair(domain.USD, c)] = usdTo[c]

		btcPair := domain.NewPair(domain.BTC, c)
		if v, ok := validQuote(btcPrices, c); ok {
			rates[btcPair] = v
			continue
		}
		rates[btcPair] = btcUSD * usdTo[c]
		report.Derived = append(report.Derived, btcPair)
	}

	table, err = domain.NewRateTable(rates, a.now())
	if err != nil {
		return nil, report, fmt.Errorf("%w: %v", domain.ErrInternalAggregation, err)
	}

	a.logger.Info("rates aggregated",
		"timestamp", table.Timestamp(),
		"degraded", report.Degraded(),
		"fallback_pairs", len(report.FromFallback),
		"default_pairs", len(report.FromDefaults),
		"derived_pairs", len(report.Derived),
	)
	return table, report, nil
}

func (a *DefaultRateAggregator) fetchCrypto(ctx context.Context) (_ map[domain.Currency]float64, err error) {
	if a.crypto == nil {
		return nil, errSourceNotConfigured
	}
	defer recoverSource(&err)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.crypto.GetBTCPrices(ctx, []domain.Currency{domain.USD, domain.NGN, domain.EUR, domain.GBP})
}

func (a *DefaultRateAggregator) fetchFiat(ctx context.Context, provider domain.FiatRateProvider, quotes []domain.Currency) (_ map[domain.Currency]float64, err error) {
	if provider == nil {
		return nil, errSourceNotConfigured
	}
	defer recoverSource(&err)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return provider.GetUSDRates(ctx, quotes)
}

// recoverSource turns a panicking provider into an ordinary source failure.
func recoverSource(err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("provider panic: %v", rec)
	}
}

func (a *DefaultRateAggregator) noteSource(report *domain.AggregationReport, source domain.RateSource, err error) {
	a.metrics.RecordSourceResult(source, err)
	if err == nil {
		return
	}
	report.SourceErrors[source] = err
	a.logger.Warn("rate source unavailable, substituting", "source", source, "error", err)
}

func (a *DefaultRateAggregator) useDefault(report *domain.AggregationReport, pair domain.Pair) {
	report.FromDefaults = append(report.FromDefaults, pair)
	a.metrics.RecordDefaultUsed(pair)
}

func validQuote(quotes map[domain.Currency]float64, c domain.Currency) (float64, bool) {
	v, ok := quotes[c]
	if !ok || domain.ValidateRate(v) != nil {
		return 0, false
	}
	return v, true
}
