package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, p RateCacheParams) *RateCache {
	t.Helper()
	cache, err := NewRateCache(p)
	require.NoError(t, err)
	return cache
}

func TestRateCache_RequiresAggregator(t *testing.T) {
	_, err := NewRateCache(RateCacheParams{})
	assert.Error(t, err)
}

func TestRateCache_ServesFreshTableWithoutRefetch(t *testing.T) {
	agg := &countingAggregator{table: mustTable(t, fullRates(), time.Now())}
	m := &recordingMetrics{}
	cache := newTestCache(t, RateCacheParams{Aggregator: agg, Metrics: m})

	first, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	second, err := cache.GetRates(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), agg.calls.Load())
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
}

func TestRateCache_RefetchesWhenStale(t *testing.T) {
	agg := &countingAggregator{table: mustTable(t, fullRates(), time.Now())}
	cache := newTestCache(t, RateCacheParams{
		Aggregator: agg,
		Config:     RateCacheConfig{StaleAfter: 30 * time.Second},
	})

	now := time.Now()
	cache.now = func() time.Time { return now }
	_, err := cache.GetRates(context.Background())
	require.NoError(t, err)

	cache.now = func() time.Time { return now.Add(31 * time.Second) }
	_, err = cache.GetRates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), agg.calls.Load())
}

func TestRateCache_ConcurrentCallersShareOneAggregation(t *testing.T) {
	agg := newGatedAggregator(mustTable(t, fullRates(), time.Now()))
	cache := newTestCache(t, RateCacheParams{Aggregator: agg})

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*domain.RateTable, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table, err := cache.GetRates(context.Background())
			assert.NoError(t, err)
			results[i] = table
		}(i)
	}

	<-agg.started
	time.Sleep(100 * time.Millisecond)
	close(agg.release)
	wg.Wait()

	assert.Equal(t, int32(1), agg.calls.Load())
	for _, table := range results {
		assert.Same(t, agg.table, table)
	}
}

func TestRateCache_CallerCancelDoesNotCancelRefresh(t *testing.T) {
	agg := newGatedAggregator(mustTable(t, fullRates(), time.Now()))
	cache := newTestCache(t, RateCacheParams{Aggregator: agg})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := cache.GetRates(ctx)
		errCh <- err
	}()

	<-agg.started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(agg.release)
	assert.Eventually(t, func() bool { return cache.Current() != nil }, time.Second, 10*time.Millisecond)
	assert.Nil(t, agg.ctxErr.Load())
}

func TestRateCache_ServesStaleTableWhenRefreshFails(t *testing.T) {
	table := mustTable(t, fullRates(), time.Now())
	agg := &countingAggregator{table: table}
	cache := newTestCache(t, RateCacheParams{Aggregator: agg})

	now := time.Now()
	cache.now = func() time.Time { return now }
	_, err := cache.GetRates(context.Background())
	require.NoError(t, err)

	agg.table, agg.err = nil, domain.ErrInternalAggregation
	cache.now = func() time.Time { return now.Add(time.Minute) }

	got, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, table, got)
}

func TestRateCache_FailsWithoutAnyTable(t *testing.T) {
	agg := &countingAggregator{err: domain.ErrInternalAggregation}
	cache := newTestCache(t, RateCacheParams{Aggregator: agg})

	_, err := cache.GetRates(context.Background())
	assert.ErrorIs(t, err, domain.ErrInternalAggregation)
	assert.Nil(t, cache.Current())
}

func TestRateCache_RefreshFeedsSideChannels(t *testing.T) {
	snapshots := &memorySnapshots{}
	shared := &memoryShared{}
	events := &recordingEvents{}
	agg := &countingAggregator{table: mustTable(t, fullRates(), time.Now())}
	cache := newTestCache(t, RateCacheParams{
		Aggregator: agg,
		Shared:     shared,
		Snapshots:  snapshots,
		Events:     events,
	})

	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshots.saved, 1)
	saved := snapshots.saved[0]
	assert.Len(t, saved.ID, 21)
	assert.Same(t, agg.table, saved.Table)
	assert.Equal(t, []domain.Pair{domain.NewPair(domain.BTC, domain.USD)}, saved.Defaults)
	assert.Equal(t, 1, shared.sets)
	require.Len(t, events.published, 1)
	assert.Equal(t, saved.ID, events.published[0].ID)
}

func TestRateCache_UsesFreshSharedTable(t *testing.T) {
	sharedTable := mustTable(t, fullRates(), time.Now())
	agg := &countingAggregator{table: mustTable(t, fullRates(), time.Now())}
	cache := newTestCache(t, RateCacheParams{
		Aggregator: agg,
		Shared:     &memoryShared{table: sharedTable},
	})

	got, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, sharedTable, got)
	assert.Zero(t, agg.calls.Load())
}

func TestRateCache_SharedTableAgesFromCaptureTime(t *testing.T) {
	now := time.Now()
	sharedTable := mustTable(t, fullRates(), now.Add(-25*time.Second))
	agg := &countingAggregator{table: mustTable(t, fullRates(), now)}
	cache := newTestCache(t, RateCacheParams{
		Aggregator: agg,
		Config:     RateCacheConfig{StaleAfter: 30 * time.Second},
		Shared:     &memoryShared{table: sharedTable},
	})
	cache.now = func() time.Time { return now }

	got, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, sharedTable, got)
	assert.Zero(t, agg.calls.Load())

	cache.now = func() time.Time { return now.Add(6 * time.Second) }
	got, err = cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, agg.table, got)
	assert.Equal(t, int32(1), agg.calls.Load())
}

func TestRateCache_IgnoresStaleSharedTable(t *testing.T) {
	old := mustTable(t, fullRates(), time.Now().Add(-time.Hour))
	agg := &countingAggregator{table: mustTable(t, fullRates(), time.Now())}
	cache := newTestCache(t, RateCacheParams{
		Aggregator: agg,
		Shared:     &memoryShared{table: old},
	})

	got, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, agg.table, got)
	assert.Equal(t, int32(1), agg.calls.Load())
}

func TestRateCache_WarmSeedsStaleTable(t *testing.T) {
	persisted := mustTable(t, fullRates(), time.Now().Add(-time.Hour))
	snapshots := &memorySnapshots{latest: &domain.RateSnapshot{ID: "snap", Table: persisted}}
	agg := &countingAggregator{table: mustTable(t, fullRates(), time.Now())}
	cache := newTestCache(t, RateCacheParams{Aggregator: agg, Snapshots: snapshots})

	require.NoError(t, cache.Warm(context.Background()))
	assert.Same(t, persisted, cache.Current())
	assert.Zero(t, agg.calls.Load())

	got, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, agg.table, got)
	assert.Equal(t, int32(1), agg.calls.Load())
}

func TestRateCache_WarmWithoutSnapshots(t *testing.T) {
	cache := newTestCache(t, RateCacheParams{
		Aggregator: &countingAggregator{},
		Snapshots:  &memorySnapshots{},
	})
	assert.NoError(t, cache.Warm(context.Background()))
	assert.Nil(t, cache.Current())
}

func TestRateCache_AdoptKeepsNewestTable(t *testing.T) {
	cache := newTestCache(t, RateCacheParams{Aggregator: &countingAggregator{}})
	now := time.Now()

	older := mustTable(t, fullRates(), now.Add(-5*time.Second))
	newer := mustTable(t, fullRates(), now.Add(-time.Second))
	expired := mustTable(t, fullRates(), now.Add(-time.Hour))

	assert.False(t, cache.Adopt(expired))
	assert.True(t, cache.Adopt(older))
	assert.True(t, cache.Adopt(newer))
	assert.False(t, cache.Adopt(older))
	assert.Same(t, newer, cache.Current())

	got, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, newer, got)
}

func TestRateCache_AdoptedTableAgesFromCaptureTime(t *testing.T) {
	now := time.Now()
	agg := &countingAggregator{table: mustTable(t, fullRates(), now)}
	cache := newTestCache(t, RateCacheParams{
		Aggregator: agg,
		Config:     RateCacheConfig{StaleAfter: 30 * time.Second},
	})
	cache.now = func() time.Time { return now }

	adopted := mustTable(t, fullRates(), now.Add(-25*time.Second))
	require.True(t, cache.Adopt(adopted))

	cache.now = func() time.Time { return now.Add(6 * time.Second) }
	got, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Same(t, agg.table, got)
	assert.Equal(t, int32(1), agg.calls.Load())
}
