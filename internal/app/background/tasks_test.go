package background

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRates struct {
	refreshes atomic.Int32
	mu        sync.Mutex
	adopted   []*domain.RateTable
}

func (f *fakeRates) Refresh(context.Context) (*domain.RateTable, error) {
	f.refreshes.Add(1)
	return domain.NewRateTable(nil, time.Now())
}

func (f *fakeRates) Adopt(table *domain.RateTable) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adopted = append(f.adopted, table)
	return true
}

func (f *fakeRates) adoptedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adopted)
}

type fakePruner struct {
	calls atomic.Int32
}

func (f *fakePruner) DeleteSnapshotsBefore(context.Context, time.Time) (int64, error) {
	f.calls.Add(1)
	return 2, nil
}

type chanSubscriber struct {
	ch chan domain.Message
}

func (c chanSubscriber) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return c.ch, nil
}

func TestRatesRefreshTicks(t *testing.T) {
	rates := &fakeRates{}
	var hooks atomic.Int32
	bt := NewBackgroundTasks(rates, Config{RefreshInterval: 10 * time.Millisecond}, nil)
	bt.OnRefresh = func() { hooks.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bt.StartAll(ctx)

	assert.Eventually(t, func() bool { return rates.refreshes.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hooks.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSnapshotPruning(t *testing.T) {
	pruner := &fakePruner{}
	bt := NewBackgroundTasks(&fakeRates{}, Config{
		RefreshInterval:   time.Hour,
		SnapshotRetention: time.Hour,
		PruneInterval:     10 * time.Millisecond,
	}, nil)
	bt.Snapshots = pruner

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bt.StartAll(ctx)

	assert.Eventually(t, func() bool { return pruner.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestRateEventSync(t *testing.T) {
	rates := &fakeRates{}
	sub := chanSubscriber{ch: make(chan domain.Message, 3)}
	bt := NewBackgroundTasks(rates, Config{RefreshInterval: time.Hour}, nil)
	bt.Subscriber = sub

	table, err := domain.NewRateTable(map[domain.Pair]float64{
		domain.NewPair(domain.USD, domain.NGN): 1550,
	}, time.Now())
	require.NoError(t, err)
	good, err := json.Marshal(kafka.NewRateUpdatedEvent(&domain.RateSnapshot{ID: "s", Table: table}))
	require.NoError(t, err)

	sub.ch <- domain.Message{Value: []byte("garbage")}
	sub.ch <- domain.Message{Value: []byte(`{"rates":{"USD-NGN":0},"timestamp":1}`)}
	sub.ch <- domain.Message{Value: good}
	close(sub.ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bt.StartAll(ctx)

	assert.Eventually(t, func() bool { return rates.adoptedCount() == 1 }, time.Second, 5*time.Millisecond)
}
