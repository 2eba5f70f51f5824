package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// InProcessEventBus is an in-memory event bus. Events are delivered
// synchronously, one at a time, to the consumers registered when the event
// is published; consumers registered later never see it.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	metrics  observability.Metrics
	mu       sync.Mutex
}

// NewInProcessEventBus creates a new in-process event bus.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
		metrics:  observability.NoopMetrics{},
	}
}

// WithMetrics sets the metrics collector used to count dispatched events.
func (b *InProcessEventBus) WithMetrics(metrics observability.Metrics) *InProcessEventBus {
	if metrics != nil {
		b.metrics = metrics
	}
	return b
}

// RegisterConsumer registers an event consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// UnregisterConsumer stops delivering events to the consumer.
func (b *InProcessEventBus) UnregisterConsumer(consumer EventConsumer) {
	b.registry.Unregister(consumer)
}

// Publish decodes a serialized ConsumedEvent and dispatches it.
// Implements the Publisher interface.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		b.logger.Error("failed to unmarshal event payload",
			"routing_key", routingKey,
			"error", err,
		)
		return nil // Don't fail, just log and skip
	}

	// Set routing key from parameter if not in payload
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	return b.PublishConsumedEvent(ctx, event)
}

// PublishDomainEvent converts a domain event and dispatches it.
func (b *InProcessEventBus) PublishDomainEvent(ctx context.Context, event domain.DomainEvent) error {
	consumed, err := NewConsumedEvent(event)
	if err != nil {
		return err
	}
	return b.PublishConsumedEvent(ctx, consumed)
}

// PublishConsumedEvent dispatches a consumed event. Consumer failures are
// logged and never returned: delivery is fire-and-forget.
func (b *InProcessEventBus) PublishConsumedEvent(ctx context.Context, event *ConsumedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	err := b.registry.Dispatch(ctx, event)
	duration := time.Since(start)

	b.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey))

	if err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil
	}

	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", duration.Milliseconds(),
	)

	return nil
}

// Close is a no-op for in-process bus.
func (b *InProcessEventBus) Close() error {
	return nil
}

// GetRegistry returns the underlying consumer registry.
func (b *InProcessEventBus) GetRegistry() *ConsumerRegistry {
	return b.registry
}
