package mappers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/LavaJover/vaultx-rates-service/internal/infrastructure/postgres/models"
)

func ToGORMRateSnapshot(snapshot *domain.RateSnapshot) (*models.RateSnapshotModel, error) {
	rates, err := json.Marshal(snapshot.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rates: %w", err)
	}
	return &models.RateSnapshotModel{
		ID:         snapshot.ID,
		Rates:      string(rates),
		Fallbacks:  joinPairs(snapshot.Fallbacks),
		Defaults:   joinPairs(snapshot.Defaults),
		CapturedAt: snapshot.Table.CapturedAt(),
		CreatedAt:  snapshot.CreatedAt,
	}, nil
}

func ToDomainRateSnapshot(model *models.RateSnapshotModel) (*domain.RateSnapshot, error) {
	var table domain.RateTable
	if err := json.Unmarshal([]byte(model.Rates), &table); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", model.ID, err)
	}
	fallbacks, err := splitPairs(model.Fallbacks)
	if err != nil {
		return nil, err
	}
	defaults, err := splitPairs(model.Defaults)
	if err != nil {
		return nil, err
	}
	return &domain.RateSnapshot{
		ID:        model.ID,
		Table:     &table,
		Fallbacks: fallbacks,
		Defaults:  defaults,
		CreatedAt: model.CreatedAt,
	}, nil
}

func joinPairs(pairs []domain.Pair) string {
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.String())
	}
	return strings.Join(keys, ",")
}

func splitPairs(raw string) ([]domain.Pair, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	pairs := make([]domain.Pair, 0, len(parts))
	for _, key := range parts {
		p, err := domain.ParsePair(key)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
