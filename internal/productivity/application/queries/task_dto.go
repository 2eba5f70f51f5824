package queries

import (
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// TaskDTO is a data transfer object for tasks. Its JSON form matches the
// task payload of created and updated events.
type TaskDTO struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	AIScore     int        `json:"ai_score"`
}

// NewTaskDTO converts a task snapshot.
func NewTaskDTO(s task.Snapshot) TaskDTO {
	return TaskDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Priority:    s.Priority.String(),
		Status:      s.Status.String(),
		DueDate:     s.DueDate,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		AIScore:     s.AIScore,
	}
}

func toDTOs(tasks []*task.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = NewTaskDTO(t.Snapshot())
	}
	return dtos
}
