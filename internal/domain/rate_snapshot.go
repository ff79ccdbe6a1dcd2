package domain

import (
	"context"
	"time"
)

type RateSnapshot struct {
	ID        string
	Table     *RateTable
	Fallbacks []Pair
	Defaults  []Pair
	CreatedAt time.Time
}

type RateSnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *RateSnapshot) error
	GetLatestSnapshot(ctx context.Context) (*RateSnapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*RateSnapshot, error)
}

// SharedTableCache lets replicas reuse a table fetched by another instance.
type SharedTableCache interface {
	GetTable(ctx context.Context) (*RateTable, error)
	SetTable(ctx context.Context, table *RateTable, ttl time.Duration) error
}
