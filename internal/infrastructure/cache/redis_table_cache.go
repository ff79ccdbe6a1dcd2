package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultTableKey = "vaultx:rates:table"

// RedisTableCache shares the latest rate table between service replicas.
type RedisTableCache struct {
	client redis.Cmdable
	key    string
}

func NewRedisTableCache(client redis.Cmdable, key string) *RedisTableCache {
	if key == "" {
		key = DefaultTableKey
	}
	return &RedisTableCache{client: client, key: key}
}

// GetTable returns nil without error on a cache miss.
func (r *RedisTableCache) GetTable(ctx context.Context) (*domain.RateTable, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate table: %w", err)
	}

	var table domain.RateTable
	if err := json.Unmarshal(val, &table); err != nil {
		return nil, fmt.Errorf("failed to decode cached rate table: %w", err)
	}
	return &table, nil
}

func (r *RedisTableCache) SetTable(ctx context.Context, table *domain.RateTable, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal rate table: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rate table: %w", err)
	}
	return nil
}
