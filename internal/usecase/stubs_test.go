package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

type stubCrypto struct {
	prices map[domain.Currency]float64
	err    error
	calls  atomic.Int32
	block  bool
	panic  bool
}

func (s *stubCrypto) GetBTCPrices(ctx context.Context, _ []domain.Currency) (map[domain.Currency]float64, error) {
	s.calls.Add(1)
	if s.panic {
		panic("boom")
	}
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.prices, s.err
}

func (s *stubCrypto) GetName() string { return "stub-crypto" }

type stubFiat struct {
	rates map[domain.Currency]float64
	err   error
	calls atomic.Int32

	mu     sync.Mutex
	quotes []domain.Currency
}

func (s *stubFiat) GetUSDRates(_ context.Context, quotes []domain.Currency) (map[domain.Currency]float64, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.quotes = append([]domain.Currency(nil), quotes...)
	s.mu.Unlock()
	return s.rates, s.err
}

func (s *stubFiat) GetName() string { return "stub-fiat" }

func (s *stubFiat) lastQuotes() []domain.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quotes
}

// gatedAggregator blocks every run until release is closed.
type gatedAggregator struct {
	table   *domain.RateTable
	err     error
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	ctxErr  atomic.Value
}

func newGatedAggregator(table *domain.RateTable) *gatedAggregator {
	return &gatedAggregator{
		table:   table,
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedAggregator) Aggregate(ctx context.Context) (*domain.RateTable, domain.AggregationReport, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	<-g.release
	if err := ctx.Err(); err != nil {
		g.ctxErr.Store(err)
	}
	return g.table, domain.AggregationReport{}, g.err
}

type countingAggregator struct {
	table *domain.RateTable
	err   error
	calls atomic.Int32
}

func (c *countingAggregator) Aggregate(context.Context) (*domain.RateTable, domain.AggregationReport, error) {
	c.calls.Add(1)
	return c.table, domain.AggregationReport{FromDefaults: []domain.Pair{domain.NewPair(domain.BTC, domain.USD)}}, c.err
}

type memorySnapshots struct {
	mu     sync.Mutex
	saved  []*domain.RateSnapshot
	latest *domain.RateSnapshot
}

func (m *memorySnapshots) SaveSnapshot(_ context.Context, s *domain.RateSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, s)
	m.latest = s
	return nil
}

func (m *memorySnapshots) GetLatestSnapshot(context.Context) (*domain.RateSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	return m.latest, nil
}

func (m *memorySnapshots) ListSnapshots(_ context.Context, limit int) ([]*domain.RateSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.saved) {
		limit = len(m.saved)
	}
	return m.saved[:limit], nil
}

type memoryShared struct {
	mu    sync.Mutex
	table *domain.RateTable
	sets  int
}

func (m *memoryShared) GetTable(context.Context) (*domain.RateTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table, nil
}

func (m *memoryShared) SetTable(_ context.Context, t *domain.RateTable, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = t
	m.sets++
	return nil
}

type recordingEvents struct {
	mu        sync.Mutex
	published []*domain.RateSnapshot
}

func (r *recordingEvents) PublishRatesUpdated(_ context.Context, s *domain.RateSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, s)
	return nil
}

type recordingMetrics struct {
	noopMetrics
	mu       sync.Mutex
	gaps     []domain.Pair
	defaults []domain.Pair
	hits     int
	misses   int
}

func (r *recordingMetrics) RecordResolutionGap(p domain.Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gaps = append(r.gaps, p)
}

func (r *recordingMetrics) RecordDefaultUsed(p domain.Pair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = append(r.defaults, p)
}

func (r *recordingMetrics) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func mustTable(t interface{ Fatalf(string, ...any) }, rates map[domain.Pair]float64, at time.Time) *domain.RateTable {
	table, err := domain.NewRateTable(rates, at)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return table
}

func fullRates() map[domain.Pair]float64 {
	return map[domain.Pair]float64{
		domain.NewPair(domain.USD, domain.NGN): 1550,
		domain.NewPair(domain.USD, domain.EUR): 0.92,
		domain.NewPair(domain.USD, domain.GBP): 0.79,
		domain.NewPair(domain.BTC, domain.USD): 70000,
		domain.NewPair(domain.BTC, domain.NGN): 108500000,
		domain.NewPair(domain.BTC, domain.EUR): 64000,
		domain.NewPair(domain.BTC, domain.GBP): 55000,
	}
}

var testDefaults = domain.DefaultRates{USDNGN: 1550, USDEUR: 0.92, USDGBP: 0.79, BTCUSD: 67500}
