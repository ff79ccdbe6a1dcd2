package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/kafka"
)

type RateRefresher interface {
	Refresh(ctx context.Context) (*domain.RateTable, error)
	Adopt(table *domain.RateTable) bool
}

type SnapshotPruner interface {
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type LimiterCleaner interface {
	Cleanup(maxIdle time.Duration) int
}

type Config struct {
	RefreshInterval   time.Duration
	SnapshotRetention time.Duration
	PruneInterval     time.Duration
	LimiterIdle       time.Duration

	EventsTopic string
	EventsGroup string
}

// BackgroundTasks runs the periodic jobs of the service. Every optional
// dependency left nil disables its job.
type BackgroundTasks struct {
	Rates      RateRefresher
	Snapshots  SnapshotPruner
	Limiter    LimiterCleaner
	Subscriber domain.SubscriberPort
	// OnRefresh runs after every refresh attempt.
	OnRefresh func()

	cfg    Config
	logger *slog.Logger
}

func NewBackgroundTasks(rates RateRefresher, cfg Config, logger *slog.Logger) *BackgroundTasks {
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = time.Hour
	}
	if cfg.LimiterIdle <= 0 {
		cfg.LimiterIdle = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackgroundTasks{
		Rates:  rates,
		cfg:    cfg,
		logger: logger,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startRatesRefresh(ctx)
	if bt.Snapshots != nil && bt.cfg.SnapshotRetention > 0 {
		go bt.startSnapshotPruning(ctx)
	}
	if bt.Limiter != nil {
		go bt.startLimiterCleanup(ctx)
	}
	if bt.Subscriber != nil {
		go bt.startRateEventSync(ctx)
	}
}

func (bt *BackgroundTasks) startRatesRefresh(ctx context.Context) {
	ticker := time.NewTicker(bt.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			table, err := bt.Rates.Refresh(ctx)
			if err != nil {
				bt.logger.Error("rates refresh failed", "error", err)
			} else {
				bt.logger.Debug("rates refreshed", "timestamp", table.Timestamp())
			}
			if bt.OnRefresh != nil {
				bt.OnRefresh()
			}
		}
	}
}

func (bt *BackgroundTasks) startSnapshotPruning(ctx context.Context) {
	ticker := time.NewTicker(bt.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := bt.Snapshots.DeleteSnapshotsBefore(ctx, time.Now().Add(-bt.cfg.SnapshotRetention))
			if err != nil {
				bt.logger.Error("snapshot pruning failed", "error", err)
				continue
			}
			if n > 0 {
				bt.logger.Info("old rate snapshots pruned", "count", n)
			}
		}
	}
}

func (bt *BackgroundTasks) startLimiterCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.Limiter.Cleanup(bt.cfg.LimiterIdle)
		}
	}
}

// startRateEventSync adopts tables published by other replicas.
func (bt *BackgroundTasks) startRateEventSync(ctx context.Context) {
	msgs, err := bt.Subscriber.Subscribe(ctx, bt.cfg.EventsTopic, bt.cfg.EventsGroup)
	if err != nil {
		bt.logger.Error("failed to subscribe to rate events", "topic", bt.cfg.EventsTopic, "error", err)
		return
	}
	for msg := range msgs {
		bt.handleRateEvent(msg)
	}
}

func (bt *BackgroundTasks) handleRateEvent(msg domain.Message) {
	event, err := kafka.DecodeRateUpdatedEvent(msg.Value)
	if err != nil {
		bt.logger.Warn("skipping malformed rate event", "error", err)
		return
	}
	table, err := event.Table()
	if err != nil {
		bt.logger.Warn("skipping invalid rate event", "event_id", event.EventID, "error", err)
		return
	}
	if bt.Rates.Adopt(table) {
		bt.logger.Debug("adopted rates from event", "event_id", event.EventID, "snapshot_id", event.SnapshotID)
	}
}
