package commands

import (
	"context"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
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

var _ task.Repository = (*mockTaskRepo)(nil)

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ sharedApplication.UnitOfWork = (*mockUnitOfWork)(nil)

// mockPublisher is a mock implementation of EventPublisher.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishDomainEvent(ctx context.Context, event domain.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	events []domain.DomainEvent
}

func (p *recordingPublisher) PublishDomainEvent(ctx context.Context, event domain.DomainEvent) error {
	p.events = append(p.events, event)
	return nil
}

// fixedScorer returns the same score for every task.
type fixedScorer int

func (s fixedScorer) Score(task.ScoreInput) int { return int(s) }

func stringPtr(s string) *string { return &s }

func expectCommit(uow *mockUnitOfWork) {
	uow.On("Begin", mock.Anything).Return(context.Background(), nil)
	uow.On("Commit", mock.Anything).Return(nil)
}

func expectRollback(uow *mockUnitOfWork) {
	uow.On("Begin", mock.Anything).Return(context.Background(), nil)
	uow.On("Rollback", mock.Anything).Return(nil)
}
