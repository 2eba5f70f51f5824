package eventbus

import (
	"context"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the broker.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// Pinger is implemented by publishers that can report broker reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
