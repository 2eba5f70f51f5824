package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	Title       string
	Description string
	Priority    string // empty means medium
	DueDate     *time.Time
}

func (CreateTaskCommand) CommandName() string { return "create_task" }

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo  task.Repository
	publisher EventPublisher
	uow       sharedApplication.UnitOfWork
	scorer    task.Scorer
	opts      handlerOptions
}

var _ sharedApplication.CommandHandler[CreateTaskCommand, *queries.TaskDTO] = (*CreateTaskHandler)(nil)

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository, publisher EventPublisher, uow sharedApplication.UnitOfWork, scorer task.Scorer, opts ...Option) *CreateTaskHandler {
	return &CreateTaskHandler{
		taskRepo:  taskRepo,
		publisher: publisher,
		uow:       uow,
		scorer:    scorer,
		opts:      applyOptions(opts),
	}
}

// Handle executes the CreateTaskCommand and returns the stored task.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (_ *queries.TaskDTO, err error) {
	timer := observability.StartTimer(cmd.CommandName()).WithMetrics(h.opts.metrics)
	defer func() { timer.StopWithError(err) }()

	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*queries.TaskDTO, error) {
		t, err := task.NewTask(cmd.Title, h.opts.now())
		if err != nil {
			return nil, err
		}

		t.SetDescription(cmd.Description)

		if cmd.Priority != "" {
			priority, err := value_objects.ParsePriority(cmd.Priority)
			if err != nil {
				return nil, err
			}
			if err := t.SetPriority(priority); err != nil {
				return nil, err
			}
		}

		if cmd.DueDate != nil {
			if err := t.SetDueDate(cmd.DueDate); err != nil {
				return nil, err
			}
		}

		t.Rescore(h.scorer)
		t.RecordCreated()

		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return nil, err
		}
		if err := publishEvents(txCtx, h.publisher, t); err != nil {
			return nil, err
		}

		h.opts.metrics.Counter(observability.MetricTasksCreated, 1)

		dto := queries.NewTaskDTO(t.Snapshot())
		return &dto, nil
	})
}
