package queries

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockTaskRepo is a mock implementation of task.Repository.
type mockTaskRepo struct {
	mock.Mock
}

func (m *mockTaskRepo) Save(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *mockTaskRepo) FindAll(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type fixedScorer int

func (s fixedScorer) Score(task.ScoreInput) int { return int(s) }

type taskSpec struct {
	title    string
	score    int
	priority value_objects.Priority
	status   value_objects.Status
}

func createTestTask(t *testing.T, ts taskSpec) *task.Task {
	t.Helper()
	tk, err := task.NewTask(ts.title, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	if ts.priority != value_objects.PriorityUnspecified {
		require.NoError(t, tk.SetPriority(ts.priority))
	}
	if ts.status != value_objects.StatusPending {
		require.NoError(t, tk.SetStatus(ts.status))
	}
	tk.Rescore(fixedScorer(ts.score))
	return tk
}
