package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/google/uuid"
)

// EventConsumer handles specific event types.
//
// Implementations are compared by identity when unregistered, so they must be
// comparable; pointer receivers are the norm.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles.
	// e.g., ["core.task.created", "core.task.deleted"]
	EventTypes() []string

	// Handle processes the event. It runs on the publisher's goroutine and
	// must not block.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent represents an event delivered through the bus.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata contains optional metadata about the event.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// NewConsumedEvent converts a domain event into its bus representation. The
// payload is the JSON encoding of the event's exported fields.
func NewConsumedEvent(event domain.DomainEvent) (*ConsumedEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	metadata := EventMetadata{CorrelationID: event.Metadata().CorrelationID}
	if event.Metadata().CausationID != uuid.Nil {
		metadata.CausationID = event.Metadata().CausationID.String()
	}

	return &ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		Metadata:      metadata,
	}, nil
}
