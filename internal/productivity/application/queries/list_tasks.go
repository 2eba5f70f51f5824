package queries

import (
	"context"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
)

// ListTasksQuery contains the parameters for listing tasks. The zero value
// lists every task.
type ListTasksQuery struct {
	Status   string // "pending", "in-progress", "completed"
	Priority string // "low", "medium", "high"
	Limit    int    // Max number of tasks to return (0 = no limit)
}

func (ListTasksQuery) QueryName() string { return "list_tasks" }

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
}

var _ sharedApplication.QueryHandler[ListTasksQuery, []TaskDTO] = (*ListTasksHandler)(nil)

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo}
}

// Handle returns the matching tasks ordered by AI score, highest first.
// Tasks with equal scores keep their creation order.
func (h *ListTasksHandler) Handle(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	match, err := query.matcher()
	if err != nil {
		return nil, err
	}

	tasks, err := h.taskRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := tasks[:0]
	for _, t := range tasks {
		if match(t) {
			filtered = append(filtered, t)
		}
	}

	task.SortByScore(filtered)

	if query.Limit > 0 && len(filtered) > query.Limit {
		filtered = filtered[:query.Limit]
	}

	return toDTOs(filtered), nil
}

func (q ListTasksQuery) matcher() (func(*task.Task) bool, error) {
	var (
		status   value_objects.Status
		priority value_objects.Priority
		err      error
	)
	if q.Status != "" {
		if status, err = value_objects.ParseStatus(q.Status); err != nil {
			return nil, err
		}
	}
	if q.Priority != "" {
		if priority, err = value_objects.ParsePriority(q.Priority); err != nil {
			return nil, err
		}
	}

	return func(t *task.Task) bool {
		if q.Status != "" && t.Status() != status {
			return false
		}
		if q.Priority != "" && t.Priority() != priority {
			return false
		}
		return true
	}, nil
}
