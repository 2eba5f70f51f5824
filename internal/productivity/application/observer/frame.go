// Package observer holds the observer side of task broadcasts: the frame
// every observer receives and a local replica kept in sync by applying them.
package observer

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
)

// EventType names a broadcast frame.
type EventType string

const (
	EventTaskCreated EventType = "task-created"
	EventTaskUpdated EventType = "task-updated"
	EventTaskDeleted EventType = "task-deleted"
)

// ErrUnknownEvent is returned for frames with an unrecognised event type.
var ErrUnknownEvent = errors.New("unknown event")

// Frame is one broadcast message. Created and updated frames carry the full
// task; deleted frames carry only its id.
type Frame struct {
	Event EventType        `json:"event"`
	Task  *queries.TaskDTO `json:"task,omitempty"`
	ID    string           `json:"id,omitempty"`
}

// TaskID returns the id of the task the frame refers to.
func (f Frame) TaskID() string {
	if f.Task != nil {
		return f.Task.ID.String()
	}
	return f.ID
}

// Validate checks that the frame carries what its event type requires.
func (f Frame) Validate() error {
	switch f.Event {
	case EventTaskCreated, EventTaskUpdated:
		if f.Task == nil {
			return fmt.Errorf("%s frame without task", f.Event)
		}
	case EventTaskDeleted:
		if f.ID == "" {
			return fmt.Errorf("%s frame without id", f.Event)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
	}
	return nil
}
