package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type DefaultKafkaSubscriber struct {
	brokers []string
	logger  *slog.Logger
}

func NewDefaultKafkaSubscriber(brokers []string, logger *slog.Logger) *DefaultKafkaSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultKafkaSubscriber{brokers: brokers, logger: logger}
}

// Subscribe streams messages until ctx is done; the returned channel is
// closed then. Read errors are logged and retried with backoff.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		consume(ctx, reader, out, k.logger.With("topic", topic, "group_id", groupID))
	}()
	return out, nil
}

func consume(ctx context.Context, r messageReader, out chan<- domain.Message, logger *slog.Logger) {
	delay := minRetryDelay
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("kafka read failed, retrying", "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
			continue
		}
		delay = minRetryDelay

		select {
		case out <- domain.Message{Key: m.Key, Value: m.Value}:
		case <-ctx.Done():
			return
		}
	}
}
