package application

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMetadata(t *testing.T) {
	t.Run("uses correlation ID from context", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "corr-123")

		metadata := NewEventMetadata(ctx)

		assert.Equal(t, "corr-123", metadata.CorrelationID)
		assert.NotEqual(t, uuid.Nil, metadata.CausationID)
	})

	t.Run("generates correlation ID when missing", func(t *testing.T) {
		metadata1 := NewEventMetadata(context.Background())
		metadata2 := NewEventMetadata(context.Background())

		assert.NotEmpty(t, metadata1.CorrelationID)
		assert.NotEqual(t, metadata1.CorrelationID, metadata2.CorrelationID)
		assert.NotEqual(t, metadata1.CausationID, metadata2.CausationID)
	})
}

type testEvent struct {
	domain.BaseEvent
}

func TestApplyEventMetadata(t *testing.T) {
	t.Run("applies metadata to multiple events", func(t *testing.T) {
		event1 := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "test", "test.event1")}
		event2 := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "test", "test.event2")}

		metadata := NewEventMetadata(context.Background())

		ApplyEventMetadata([]domain.DomainEvent{event1, event2}, metadata)

		assert.Equal(t, metadata.CorrelationID, event1.Metadata().CorrelationID)
		assert.Equal(t, metadata.CorrelationID, event2.Metadata().CorrelationID)
		assert.Equal(t, metadata.CausationID, event2.Metadata().CausationID)
	})

	t.Run("skips events passed by value", func(t *testing.T) {
		event := testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "test", "test.event")}

		ApplyEventMetadata([]domain.DomainEvent{event}, NewEventMetadata(context.Background()))

		assert.Empty(t, event.Metadata().CorrelationID)
	})

	t.Run("handles nil event list", func(t *testing.T) {
		require.NotPanics(t, func() {
			ApplyEventMetadata(nil, NewEventMetadata(context.Background()))
		})
	})
}
