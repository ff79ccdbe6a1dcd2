package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultRateEventsTopic = "rate-events"
	rateEventKey           = "rates"
)

type RateUpdatedEvent struct {
	EventID    string             `json:"event_id"`
	SnapshotID string             `json:"snapshot_id"`
	Rates      map[string]float64 `json:"rates"`
	Fallbacks  []string           `json:"fallbacks,omitempty"`
	Defaults   []string           `json:"defaults,omitempty"`
	Timestamp  int64              `json:"timestamp"`
}

func NewRateUpdatedEvent(snapshot *domain.RateSnapshot) RateUpdatedEvent {
	return RateUpdatedEvent{
		EventID:    uuid.NewString(),
		SnapshotID: snapshot.ID,
		Rates:      snapshot.Table.KeyedRates(),
		Fallbacks:  pairKeys(snapshot.Fallbacks),
		Defaults:   pairKeys(snapshot.Defaults),
		Timestamp:  snapshot.Table.Timestamp(),
	}
}

// Table rebuilds the rate table carried by the event.
func (e RateUpdatedEvent) Table() (*domain.RateTable, error) {
	rates := make(map[domain.Pair]float64, len(e.Rates))
	for key, rate := range e.Rates {
		pair, err := domain.ParsePair(key)
		if err != nil {
			return nil, err
		}
		rates[pair] = rate
	}
	return domain.NewRateTable(rates, time.UnixMilli(e.Timestamp))
}

func DecodeRateUpdatedEvent(value []byte) (RateUpdatedEvent, error) {
	var event RateUpdatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return RateUpdatedEvent{}, fmt.Errorf("failed to decode rate event: %w", err)
	}
	return event, nil
}

// RatePublisher implements domain.RateEventPublisher over any PublisherPort.
type RatePublisher struct {
	publisher domain.PublisherPort
	topic     string
}

func NewRatePublisher(publisher domain.PublisherPort, topic string) *RatePublisher {
	if topic == "" {
		topic = DefaultRateEventsTopic
	}
	return &RatePublisher{publisher: publisher, topic: topic}
}

func (p *RatePublisher) PublishRatesUpdated(ctx context.Context, snapshot *domain.RateSnapshot) error {
	v, err := json.Marshal(NewRateUpdatedEvent(snapshot))
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, p.topic, domain.Message{Key: []byte(rateEventKey), Value: v})
}

func pairKeys(pairs []domain.Pair) []string {
	if len(pairs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.String())
	}
	return keys
}
