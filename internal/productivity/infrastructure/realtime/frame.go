package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/observer"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// FrameFromEvent converts a task event from the bus into the frame sent to
// observers.
func FrameFromEvent(event *eventbus.ConsumedEvent) (observer.Frame, error) {
	switch event.RoutingKey {
	case task.RoutingKeyCreated, task.RoutingKeyUpdated:
		var payload struct {
			Task queries.TaskDTO `json:"task"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return observer.Frame{}, fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
		}
		eventType := observer.EventTaskCreated
		if event.RoutingKey == task.RoutingKeyUpdated {
			eventType = observer.EventTaskUpdated
		}
		return observer.Frame{Event: eventType, Task: &payload.Task}, nil

	case task.RoutingKeyDeleted:
		var payload struct {
			TaskID uuid.UUID `json:"task_id"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return observer.Frame{}, fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
		}
		return observer.Frame{Event: observer.EventTaskDeleted, ID: payload.TaskID.String()}, nil
	}
	return observer.Frame{}, fmt.Errorf("%w: routing key %q", observer.ErrUnknownEvent, event.RoutingKey)
}
