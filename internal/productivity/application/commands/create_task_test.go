package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTaskHandler_Handle(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("creates task with defaults", func(t *testing.T) {
		taskRepo := new(mockTaskRepo)
		publisher := new(mockPublisher)
		uow := new(mockUnitOfWork)
		metrics := observability.NewInMemoryMetrics()

		expectCommit(uow)
		taskRepo.On("Save", mock.Anything, mock.AnythingOfType("*task.Task")).Return(nil)
		publisher.On("PublishDomainEvent", mock.Anything, mock.AnythingOfType("*task.TaskCreated")).Return(nil)

		handler := NewCreateTaskHandler(taskRepo, publisher, uow, fixedScorer(65), WithClock(clock), WithMetrics(metrics))
		result, err := handler.Handle(context.Background(), CreateTaskCommand{Title: "  Write report  "})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "Write report", result.Title)
		assert.Equal(t, "pending", result.Status)
		assert.Equal(t, "medium", result.Priority)
		assert.Equal(t, 65, result.AIScore)
		assert.Equal(t, now, result.CreatedAt)
		assert.Nil(t, result.DueDate)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricTasksCreated))
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricOperationTotal, observability.T("operation", "create_task")))
		assert.Len(t, metrics.GetTimings(observability.MetricOperationDuration, observability.T("operation", "create_task")), 1)

		taskRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("event carries the full task and metadata", func(t *testing.T) {
		taskRepo := new(mockTaskRepo)
		publisher := &recordingPublisher{}
		uow := new(mockUnitOfWork)

		expectCommit(uow)
		taskRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		due := now.Add(48 * time.Hour)
		handler := NewCreateTaskHandler(taskRepo, publisher, uow, fixedScorer(90), WithClock(clock))
		ctx := observability.WithCorrelationID(context.Background(), "corr-create")
		result, err := handler.Handle(ctx, CreateTaskCommand{
			Title:       "Ship release",
			Description: "cut the tag",
			Priority:    "HIGH",
			DueDate:     &due,
		})
		require.NoError(t, err)

		require.Len(t, publisher.events, 1)
		created, ok := publisher.events[0].(*task.TaskCreated)
		require.True(t, ok)
		assert.Equal(t, result.ID, created.Task.ID)
		assert.Equal(t, value_objects.PriorityHigh, created.Task.Priority)
		assert.Equal(t, "cut the tag", created.Task.Description)
		assert.Equal(t, 90, created.Task.AIScore)
		assert.Equal(t, "corr-create", created.Metadata().CorrelationID)
		require.NotNil(t, result.DueDate)
		assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), *result.DueDate)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		taskRepo := new(mockTaskRepo)
		publisher := new(mockPublisher)
		uow := new(mockUnitOfWork)
		expectRollback(uow)

		handler := NewCreateTaskHandler(taskRepo, publisher, uow, fixedScorer(50))
		result, err := handler.Handle(context.Background(), CreateTaskCommand{Title: "   "})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, task.ErrEmptyTitle)
		assert.ErrorIs(t, err, domain.ErrValidation)
		taskRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "PublishDomainEvent", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		expectRollback(uow)

		handler := NewCreateTaskHandler(new(mockTaskRepo), new(mockPublisher), uow, fixedScorer(50))
		_, err := handler.Handle(context.Background(), CreateTaskCommand{Title: "x", Priority: "urgent"})

		assert.ErrorIs(t, err, value_objects.ErrInvalidPriority)
	})

	t.Run("rejects zero due date", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		expectRollback(uow)

		handler := NewCreateTaskHandler(new(mockTaskRepo), new(mockPublisher), uow, fixedScorer(50))
		_, err := handler.Handle(context.Background(), CreateTaskCommand{Title: "x", DueDate: &time.Time{}})

		assert.ErrorIs(t, err, task.ErrInvalidDueDate)
	})

	t.Run("save error is returned and nothing is published", func(t *testing.T) {
		taskRepo := new(mockTaskRepo)
		publisher := new(mockPublisher)
		uow := new(mockUnitOfWork)
		expectRollback(uow)
		taskRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		handler := NewCreateTaskHandler(taskRepo, publisher, uow, fixedScorer(50))
		_, err := handler.Handle(context.Background(), CreateTaskCommand{Title: "x"})

		assert.EqualError(t, err, "disk full")
		publisher.AssertNotCalled(t, "PublishDomainEvent", mock.Anything, mock.Anything)
	})

	t.Run("begin error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", mock.Anything).Return(context.Background(), context.Canceled)

		handler := NewCreateTaskHandler(new(mockTaskRepo), new(mockPublisher), uow, fixedScorer(50))
		_, err := handler.Handle(context.Background(), CreateTaskCommand{Title: "x"})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCreateTaskHandler_LongDescriptionKept(t *testing.T) {
	taskRepo := new(mockTaskRepo)
	uow := new(mockUnitOfWork)
	expectCommit(uow)
	taskRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	description := strings.Repeat("a", 150)
	handler := NewCreateTaskHandler(taskRepo, &recordingPublisher{}, uow, fixedScorer(60))
	result, err := handler.Handle(context.Background(), CreateTaskCommand{Title: "x", Description: description})

	require.NoError(t, err)
	assert.Equal(t, description, result.Description)
}
