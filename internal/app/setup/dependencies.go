package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/config"
	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/cache"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/kafka"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/logger"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/metrics"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/postgres"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/postgres/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies holds the infrastructure of the service. Optional parts are
// nil when not configured.
type Dependencies struct {
	Config  *config.RatesConfig
	Logger  *slog.Logger
	Metrics *metrics.RateMetrics

	DB           *gorm.DB
	Redis        *redis.Client
	Publisher    *kafka.DefaultKafkaPublisher
	Subscriber   *kafka.DefaultKafkaSubscriber
	Repositories *Repositories

	closers []io.Closer
}

type Repositories struct {
	SnapshotRepo *repository.DefaultRateSnapshotRepository
	SharedCache  domain.SharedTableCache
	Events       domain.RateEventPublisher
}

func InitializeDependencies(cfg *config.RatesConfig, reg prometheus.Registerer) (*Dependencies, error) {
	log, logCloser, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(log)

	deps := &Dependencies{
		Config:       cfg,
		Logger:       log,
		Metrics:      metrics.NewRateMetrics(reg),
		Repositories: &Repositories{},
		closers:      []io.Closer{logCloser},
	}

	if cfg.RatesDB.Dsn != "" {
		deps.DB = postgres.MustInitDB(cfg)
		deps.Repositories.SnapshotRepo = repository.NewDefaultRateSnapshotRepository(deps.DB)
	} else {
		log.Warn("rates_db.dsn is empty, snapshot history disabled")
	}

	if cfg.Redis.Addr != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			log.Warn("redis is unreachable, shared cache will retry per request", "addr", cfg.Redis.Addr, "error", err)
		}
		deps.Repositories.SharedCache = cache.NewRedisTableCache(deps.Redis, cfg.Redis.Key)
		deps.closers = append(deps.closers, deps.Redis)
	}

	if len(cfg.KafkaService.Brokers) > 0 {
		deps.Publisher = kafka.NewDefaultKafkaPublisher(cfg.KafkaService.Brokers)
		deps.Repositories.Events = kafka.NewRatePublisher(deps.Publisher, cfg.KafkaService.Topic)
		deps.closers = append(deps.closers, deps.Publisher)
		if cfg.KafkaService.SyncEnabled {
			deps.Subscriber = kafka.NewDefaultKafkaSubscriber(cfg.KafkaService.Brokers, log.With("component", "kafka_subscriber"))
		}
	}

	return deps, nil
}

// SnapshotRepository returns the repository as a port, or nil when history
// is disabled.
func (d *Dependencies) SnapshotRepository() domain.RateSnapshotRepository {
	if d.Repositories.SnapshotRepo == nil {
		return nil
	}
	return d.Repositories.SnapshotRepo
}

// Close releases clients in reverse order of creation.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			d.Logger.Warn("failed to close dependency", "error", err)
		}
	}
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
