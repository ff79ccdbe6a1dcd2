package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	nanoid "github.com/jaevor/go-nanoid"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "rates"

type RateCacheConfig struct {
	StaleAfter     time.Duration
	RefreshTimeout time.Duration
}

type RateCacheParams struct {
	Aggregator RateAggregator
	Config     RateCacheConfig

	// Optional side channels.
	Shared    domain.SharedTableCache
	Snapshots domain.RateSnapshotRepository
	Events    domain.RateEventPublisher

	Metrics RateMetrics
	Logger  *slog.Logger
}

// cacheEntry ages from fetchedAt. Tables taken from other replicas carry
// their capture time so they are not kept fresh longer than stale_after.
type cacheEntry struct {
	table     *domain.RateTable
	fetchedAt time.Time
}

// RateCache holds the last aggregated table and makes sure at most one
// aggregation is in flight at any time.
type RateCache struct {
	aggregator RateAggregator
	staleAfter time.Duration
	timeout    time.Duration

	shared    domain.SharedTableCache
	snapshots domain.RateSnapshotRepository
	events    domain.RateEventPublisher

	metrics RateMetrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	current atomic.Pointer[cacheEntry]
	group   singleflight.Group
}

func NewRateCache(p RateCacheParams) (*RateCache, error) {
	if p.Aggregator == nil {
		return nil, errors.New("rate cache requires an aggregator")
	}
	staleAfter := p.Config.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 30 * time.Second
	}
	timeout := p.Config.RefreshTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	genID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to init snapshot id generator: %w", err)
	}

	return &RateCache{
		aggregator: p.Aggregator,
		staleAfter: staleAfter,
		timeout:    timeout,
		shared:     p.Shared,
		snapshots:  p.Snapshots,
		events:     p.Events,
		metrics:    metricsOrNoop(p.Metrics),
		logger:     logger,
		now:        time.Now,
		newID:      genID,
	}, nil
}

// GetRates returns a fresh table, refreshing it first when the held one is
// older than the freshness window. When the refresh fails a previously held
// table is served instead of an error.
func (c *RateCache) GetRates(ctx context.Context) (*domain.RateTable, error) {
	if entry := c.current.Load(); entry != nil && c.now().Sub(entry.fetchedAt) < c.staleAfter {
		c.metrics.RecordCacheLookup(true)
		return entry.table, nil
	}
	c.metrics.RecordCacheLookup(false)

	table, err := c.Refresh(ctx)
	if err != nil {
		if entry := c.current.Load(); entry != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("serving stale rates after failed refresh", "error", err, "timestamp", entry.table.Timestamp())
			return entry.table, nil
		}
		return nil, err
	}
	return table, nil
}

// Refresh joins the in-flight aggregation or starts a new one. The aggregation
// runs detached from ctx: cancelling ctx only stops this caller's wait.
func (c *RateCache) Refresh(ctx context.Context) (*domain.RateTable, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.RateTable), nil
	}
}

// Current returns the held table regardless of its age, or nil.
func (c *RateCache) Current() *domain.RateTable {
	if entry := c.current.Load(); entry != nil {
		return entry.table
	}
	return nil
}

// Warm seeds the cache with the latest persisted snapshot. The seeded table is
// treated as stale so the first reader triggers a refresh.
func (c *RateCache) Warm(ctx context.Context) error {
	if c.snapshots == nil {
		return nil
	}
	snapshot, err := c.snapshots.GetLatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	c.current.CompareAndSwap(nil, &cacheEntry{table: snapshot.Table})
	c.logger.Info("rate cache warmed from snapshot", "snapshot_id", snapshot.ID, "timestamp", snapshot.Table.Timestamp())
	return nil
}

// Adopt installs a table aggregated elsewhere when it is newer than the held
// one. It reports whether the table was taken.
func (c *RateCache) Adopt(table *domain.RateTable) bool {
	if table == nil || table.Age(c.now()) >= c.staleAfter {
		return false
	}
	for {
		held := c.current.Load()
		if held != nil && !table.CapturedAt().After(held.table.CapturedAt()) {
			return false
		}
		if c.current.CompareAndSwap(held, &cacheEntry{table: table, fetchedAt: table.CapturedAt()}) {
			return true
		}
	}
}

func (c *RateCache) refresh(ctx context.Context) (*domain.RateTable, error) {
	if table := c.fromShared(ctx); table != nil {
		c.store(table, table.CapturedAt())
		c.metrics.RecordRefresh(nil)
		return table, nil
	}

	table, report, err := c.aggregator.Aggregate(ctx)
	c.metrics.RecordRefresh(err)
	if err != nil {
		return nil, err
	}
	c.store(table, c.now())

	snapshot := &domain.RateSnapshot{
		ID:        c.newID(),
		Table:     table,
		Fallbacks: report.FromFallback,
		Defaults:  report.FromDefaults,
		CreatedAt: c.now(),
	}
	c.publish(ctx, snapshot)
	return table, nil
}

func (c *RateCache) store(table *domain.RateTable, fetchedAt time.Time) {
	c.current.Store(&cacheEntry{table: table, fetchedAt: fetchedAt})
}

func (c *RateCache) fromShared(ctx context.Context) *domain.RateTable {
	if c.shared == nil {
		return nil
	}
	table, err := c.shared.GetTable(ctx)
	if err != nil {
		c.logger.Warn("shared rate cache read failed", "error", err)
		return nil
	}
	if table == nil || table.Age(c.now()) >= c.staleAfter {
		return nil
	}
	return table
}

// publish fans the refreshed table out to the optional side channels. Their
// failures are logged only.
func (c *RateCache) publish(ctx context.Context, snapshot *domain.RateSnapshot) {
	if c.shared != nil {
		if err := c.shared.SetTable(ctx, snapshot.Table, c.staleAfter); err != nil {
			c.logger.Warn("failed to write shared rate cache", "error", err)
		}
	}
	if c.snapshots != nil {
		if err := c.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
			c.logger.Warn("failed to persist rate snapshot", "snapshot_id", snapshot.ID, "error", err)
		}
	}
	if c.events != nil {
		if err := c.events.PublishRatesUpdated(ctx, snapshot); err != nil {
			c.logger.Warn("failed to publish rates updated event", "snapshot_id", snapshot.ID, "error", err)
		}
	}
}
