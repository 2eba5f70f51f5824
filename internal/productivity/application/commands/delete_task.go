package commands

import (
	"context"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/google/uuid"
)

// DeleteTaskCommand identifies the task to remove.
type DeleteTaskCommand struct {
	TaskID uuid.UUID
}

func (DeleteTaskCommand) CommandName() string { return "delete_task" }

// DeleteTaskResult contains the result of deleting a task.
type DeleteTaskResult struct {
	TaskID  uuid.UUID `json:"task_id"`
	Deleted bool      `json:"deleted"`
}

// DeleteTaskHandler handles the DeleteTaskCommand.
type DeleteTaskHandler struct {
	taskRepo  task.Repository
	publisher EventPublisher
	uow       sharedApplication.UnitOfWork
	opts      handlerOptions
}

var _ sharedApplication.CommandHandler[DeleteTaskCommand, *DeleteTaskResult] = (*DeleteTaskHandler)(nil)

// NewDeleteTaskHandler creates a new DeleteTaskHandler.
func NewDeleteTaskHandler(taskRepo task.Repository, publisher EventPublisher, uow sharedApplication.UnitOfWork, opts ...Option) *DeleteTaskHandler {
	return &DeleteTaskHandler{
		taskRepo:  taskRepo,
		publisher: publisher,
		uow:       uow,
		opts:      applyOptions(opts),
	}
}

// Handle removes the task and publishes a deletion carrying only its ID.
func (h *DeleteTaskHandler) Handle(ctx context.Context, cmd DeleteTaskCommand) (_ *DeleteTaskResult, err error) {
	timer := observability.StartTimer(cmd.CommandName()).WithMetrics(h.opts.metrics)
	defer func() { timer.StopWithError(err) }()

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*DeleteTaskResult, error) {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return nil, err
		}

		if err := h.taskRepo.Delete(txCtx, t.ID()); err != nil {
			return nil, err
		}

		t.RecordDeleted(h.opts.now())
		if err := publishEvents(txCtx, h.publisher, t); err != nil {
			return nil, err
		}

		h.opts.metrics.Counter(observability.MetricTasksDeleted, 1)

		return &DeleteTaskResult{TaskID: t.ID(), Deleted: true}, nil
	})
}
