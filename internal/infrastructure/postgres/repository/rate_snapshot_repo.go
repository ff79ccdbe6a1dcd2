package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultRateSnapshotRepository struct {
	DB *gorm.DB
}

func NewDefaultRateSnapshotRepository(db *gorm.DB) *DefaultRateSnapshotRepository {
	return &DefaultRateSnapshotRepository{
		DB: db,
	}
}

func (r *DefaultRateSnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *domain.RateSnapshot) error {
	model, err := mappers.ToGORMRateSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save rate snapshot: %w", err)
	}
	return nil
}

func (r *DefaultRateSnapshotRepository) GetLatestSnapshot(ctx context.Context) (*domain.RateSnapshot, error) {
	var model models.RateSnapshotModel
	err := r.DB.WithContext(ctx).Order("captured_at desc").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return mappers.ToDomainRateSnapshot(&model)
}

func (r *DefaultRateSnapshotRepository) ListSnapshots(ctx context.Context, limit int) ([]*domain.RateSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	var snapshotModels []*models.RateSnapshotModel
	if err := r.DB.WithContext(ctx).Order("captured_at desc").Limit(limit).Find(&snapshotModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]*domain.RateSnapshot, 0, len(snapshotModels))
	for _, m := range snapshotModels {
		s, err := mappers.ToDomainRateSnapshot(m)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// DeleteSnapshotsBefore removes history captured before cutoff.
func (r *DefaultRateSnapshotRepository) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("captured_at < ?", cutoff).Delete(&models.RateSnapshotModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", res.Error)
	}
	return res.RowsAffected, nil
}
