package task

import (
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated = "core.task.created"
	RoutingKeyUpdated = "core.task.updated"
	RoutingKeyDeleted = "core.task.deleted"
)

// RoutingKeys lists every task routing key.
var RoutingKeys = []string{RoutingKeyCreated, RoutingKeyUpdated, RoutingKeyDeleted}

// TaskCreated is emitted when a new task is created.
type TaskCreated struct {
	domain.BaseEvent
	Task Snapshot `json:"task"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(snapshot Snapshot) *TaskCreated {
	return &TaskCreated{
		BaseEvent: domain.NewBaseEventAt(snapshot.ID, AggregateType, RoutingKeyCreated, snapshot.CreatedAt),
		Task:      snapshot,
	}
}

// TaskUpdated is emitted after every update, whether or not a field changed.
type TaskUpdated struct {
	domain.BaseEvent
	Task   Snapshot `json:"task"`
	Fields []string `json:"fields"`
}

// NewTaskUpdated creates a TaskUpdated event.
func NewTaskUpdated(snapshot Snapshot, fields []string) *TaskUpdated {
	if fields == nil {
		fields = []string{}
	}
	return &TaskUpdated{
		BaseEvent: domain.NewBaseEventAt(snapshot.ID, AggregateType, RoutingKeyUpdated, snapshot.UpdatedAt),
		Task:      snapshot,
		Fields:    fields,
	}
}

// TaskDeleted is emitted when a task is removed. It only carries the ID.
type TaskDeleted struct {
	domain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
}

// NewTaskDeleted creates a TaskDeleted event.
func NewTaskDeleted(taskID uuid.UUID, at time.Time) *TaskDeleted {
	return &TaskDeleted{
		BaseEvent: domain.NewBaseEventAt(taskID, AggregateType, RoutingKeyDeleted, at),
		TaskID:    taskID,
	}
}
