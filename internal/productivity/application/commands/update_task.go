package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/google/uuid"
)

// UpdateTaskCommand contains the data needed to update a task. Nil fields
// are left unchanged.
type UpdateTaskCommand struct {
	TaskID       uuid.UUID
	Title        *string
	Description  *string
	Priority     *string
	Status       *string
	DueDate      *time.Time
	ClearDueDate bool
}

func (UpdateTaskCommand) CommandName() string { return "update_task" }

// Fields lists the attributes the command supplies.
func (c UpdateTaskCommand) Fields() []string {
	fields := []string{}
	if c.Title != nil {
		fields = append(fields, "title")
	}
	if c.Description != nil {
		fields = append(fields, "description")
	}
	if c.Priority != nil {
		fields = append(fields, "priority")
	}
	if c.Status != nil {
		fields = append(fields, "status")
	}
	if c.DueDate != nil || c.ClearDueDate {
		fields = append(fields, "due_date")
	}
	return fields
}

// UpdateTaskHandler handles the UpdateTaskCommand.
type UpdateTaskHandler struct {
	taskRepo  task.Repository
	publisher EventPublisher
	uow       sharedApplication.UnitOfWork
	scorer    task.Scorer
	opts      handlerOptions
}

var _ sharedApplication.CommandHandler[UpdateTaskCommand, *queries.TaskDTO] = (*UpdateTaskHandler)(nil)

// NewUpdateTaskHandler creates a new UpdateTaskHandler.
func NewUpdateTaskHandler(taskRepo task.Repository, publisher EventPublisher, uow sharedApplication.UnitOfWork, scorer task.Scorer, opts ...Option) *UpdateTaskHandler {
	return &UpdateTaskHandler{
		taskRepo:  taskRepo,
		publisher: publisher,
		uow:       uow,
		scorer:    scorer,
		opts:      applyOptions(opts),
	}
}

// Handle merges the supplied fields into the task, recomputes its score and
// publishes an update. The update is published even when nothing changed,
// since the score depends on the current time.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) (_ *queries.TaskDTO, err error) {
	timer := observability.StartTimer(cmd.CommandName()).WithMetrics(h.opts.metrics)
	defer func() { timer.StopWithError(err) }()

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*queries.TaskDTO, error) {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return nil, err
		}

		if err := applyUpdate(t, cmd); err != nil {
			return nil, err
		}

		t.Rescore(h.scorer)
		t.RecordUpdated(cmd.Fields(), h.opts.now())

		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return nil, err
		}
		if err := publishEvents(txCtx, h.publisher, t); err != nil {
			return nil, err
		}

		h.opts.metrics.Counter(observability.MetricTasksUpdated, 1)

		dto := queries.NewTaskDTO(t.Snapshot())
		return &dto, nil
	})
}

func applyUpdate(t *task.Task, cmd UpdateTaskCommand) error {
	if cmd.Title != nil {
		if err := t.SetTitle(*cmd.Title); err != nil {
			return err
		}
	}

	if cmd.Description != nil {
		t.SetDescription(*cmd.Description)
	}

	if cmd.Priority != nil {
		priority, err := value_objects.ParsePriority(*cmd.Priority)
		if err != nil {
			return err
		}
		if err := t.SetPriority(priority); err != nil {
			return err
		}
	}

	if cmd.Status != nil {
		status, err := value_objects.ParseStatus(*cmd.Status)
		if err != nil {
			return err
		}
		if err := t.SetStatus(status); err != nil {
			return err
		}
	}

	switch {
	case cmd.ClearDueDate:
		return t.SetDueDate(nil)
	case cmd.DueDate != nil:
		return t.SetDueDate(cmd.DueDate)
	}
	return nil
}
