package queue

import "context"

const (
	// BatchEventsExchange is the topic exchange completion events are
	// published to. No consumer is declared by this service.
	BatchEventsExchange = "orders.batches"

	// BatchCompletedRoutingKey is the routing key of a BatchCompletedEvent.
	BatchCompletedRoutingKey = "batch.completed"
)

// Publisher publishes batch completion events.
type Publisher interface {
	PublishBatchCompleted(ctx context.Context, event BatchCompletedEvent) error
	Close() error
}
