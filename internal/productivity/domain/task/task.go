package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrValidation     = domain.ErrValidation
	ErrEmptyTitle     = fmt.Errorf("%w: task title cannot be empty", domain.ErrValidation)
	ErrInvalidDueDate = fmt.Errorf("%w: invalid due date", domain.ErrValidation)
	ErrTaskNotFound   = fmt.Errorf("task %w", domain.ErrNotFound)
)

// MaxScore is the ceiling of the AI score.
const MaxScore = 100

// ScoreInput holds the task attributes the AI score is derived from.
type ScoreInput struct {
	DueDate     *time.Time
	Priority    value_objects.Priority
	Description string
}

// Scorer computes the AI score of a task.
type Scorer interface {
	Score(input ScoreInput) int
}

// Task represents a unit of work ranked by its AI score.
type Task struct {
	domain.BaseAggregateRoot
	title       string
	description string
	status      value_objects.Status
	priority    value_objects.Priority
	dueDate     *time.Time
	aiScore     int
}

// NewTask creates a pending, medium priority task created at now.
func NewTask(title string, now time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	return &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRootAt(now),
		title:             title,
		status:            value_objects.StatusPending,
		priority:          value_objects.PriorityMedium,
	}, nil
}

// Getters

func (t *Task) Title() string                    { return t.title }
func (t *Task) Description() string              { return t.description }
func (t *Task) Status() value_objects.Status     { return t.status }
func (t *Task) Priority() value_objects.Priority { return t.priority }
func (t *Task) AIScore() int                     { return t.aiScore }

// DueDate returns a copy of the due date, or nil when none is set.
func (t *Task) DueDate() *time.Time {
	if t.dueDate == nil {
		return nil
	}
	d := *t.dueDate
	return &d
}

// SetTitle updates the task title.
func (t *Task) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.title = title
	return nil
}

// SetDescription updates the task description.
func (t *Task) SetDescription(description string) {
	t.description = strings.TrimSpace(description)
}

// SetPriority updates the task priority.
func (t *Task) SetPriority(priority value_objects.Priority) error {
	if !priority.IsValid() {
		return value_objects.ErrInvalidPriority
	}
	t.priority = priority
	return nil
}

// SetStatus moves the task to any status. Transitions are unrestricted.
func (t *Task) SetStatus(status value_objects.Status) error {
	switch status {
	case value_objects.StatusPending, value_objects.StatusInProgress, value_objects.StatusCompleted:
		t.status = status
		return nil
	default:
		return value_objects.ErrInvalidStatus
	}
}

// SetDueDate updates the due date. A nil value clears it. The date is kept as
// a calendar day at midnight UTC.
func (t *Task) SetDueDate(dueDate *time.Time) error {
	if dueDate == nil {
		t.dueDate = nil
		return nil
	}
	if dueDate.IsZero() {
		return ErrInvalidDueDate
	}
	d := NormalizeDueDate(*dueDate)
	t.dueDate = &d
	return nil
}

// Rescore recomputes the AI score from the current attributes.
func (t *Task) Rescore(scorer Scorer) {
	t.aiScore = scorer.Score(t.ScoreInput())
}

// ScoreInput returns the attributes the AI score is derived from.
func (t *Task) ScoreInput() ScoreInput {
	return ScoreInput{
		DueDate:     t.DueDate(),
		Priority:    t.priority,
		Description: t.description,
	}
}

// RecordCreated records the creation of the task.
func (t *Task) RecordCreated() {
	t.IncrementVersion()
	t.AddDomainEvent(NewTaskCreated(t.Snapshot()))
}

// RecordUpdated stamps the task as modified at now and records the update.
// fields names the attributes that were supplied; it may be empty.
func (t *Task) RecordUpdated(fields []string, now time.Time) {
	t.TouchAt(now)
	t.IncrementVersion()
	t.AddDomainEvent(NewTaskUpdated(t.Snapshot(), fields))
}

// RecordDeleted records the removal of the task.
func (t *Task) RecordDeleted(now time.Time) {
	t.AddDomainEvent(NewTaskDeleted(t.ID(), now))
}

// Clone returns a deep copy that can be mutated without affecting t.
func (t *Task) Clone() *Task {
	c := *t
	c.BaseAggregateRoot = t.CloneBase()
	c.dueDate = t.DueDate()
	return &c
}

// Snapshot returns an immutable view of the task.
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:          t.ID(),
		Title:       t.title,
		Description: t.description,
		Priority:    t.priority,
		Status:      t.status,
		DueDate:     t.DueDate(),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
		AIScore:     t.aiScore,
	}
}

// Snapshot is the complete state of a task at one point in time. It is the
// payload of created and updated events.
type Snapshot struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    value_objects.Priority `json:"priority"`
	Status      value_objects.Status   `json:"status"`
	DueDate     *time.Time             `json:"due_date,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	AIScore     int                    `json:"ai_score"`
}

// NormalizeDueDate truncates t to midnight UTC of its calendar day.
func NormalizeDueDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DueDateLayout is the calendar-day form accepted for due dates.
const DueDateLayout = "2006-01-02"

// ParseDueDate accepts a calendar day (YYYY-MM-DD) or an RFC 3339 timestamp.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DueDateLayout, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, use YYYY-MM-DD", ErrInvalidDueDate, s)
	}
	return d, nil
}
