package outbound

import "context"

// MessagePort defines message bus operations.
type MessagePort interface {
	// Publish publishes a keyed message to a topic.
	Publish(ctx context.Context, topic, key string, message []byte) error

	// Close flushes and releases the producer.
	Close() error
}
