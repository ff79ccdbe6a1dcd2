package domain

import "context"

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

// RateEventPublisher announces every refreshed table.
type RateEventPublisher interface {
	PublishRatesUpdated(ctx context.Context, snapshot *RateSnapshot) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}
