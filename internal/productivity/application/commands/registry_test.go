package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/productivity/application/services"
	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	taskPersistence "github.com/felixgeelhaar/taskboard/internal/productivity/infrastructure/persistence"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingObserver struct {
	mu     sync.Mutex
	events []*eventbus.ConsumedEvent
}

func (o *capturingObserver) EventTypes() []string { return task.RoutingKeys }

func (o *capturingObserver) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *capturingObserver) snapshot() []*eventbus.ConsumedEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*eventbus.ConsumedEvent(nil), o.events...)
}

type registry struct {
	bus       *eventbus.InProcessEventBus
	create    *commands.CreateTaskHandler
	update    *commands.UpdateTaskHandler
	delete    *commands.DeleteTaskHandler
	list      *queries.ListTasksHandler
	get       *queries.GetTaskHandler
	analytics *queries.AnalyticsHandler
}

func newRegistry(now time.Time) *registry {
	clock := func() time.Time { return now }
	repo := taskPersistence.NewMemoryTaskRepository()
	uow := persistence.NewSerialUnitOfWork()
	bus := eventbus.NewInProcessEventBus(nil)
	scorer := services.NewScoringEngineWithClock(clock)

	return &registry{
		bus:       bus,
		create:    commands.NewCreateTaskHandler(repo, bus, uow, scorer, commands.WithClock(clock)),
		update:    commands.NewUpdateTaskHandler(repo, bus, uow, scorer, commands.WithClock(clock)),
		delete:    commands.NewDeleteTaskHandler(repo, bus, uow, commands.WithClock(clock)),
		list:      queries.NewListTasksHandler(repo),
		get:       queries.NewGetTaskHandler(repo),
		analytics: queries.NewAnalyticsHandler(repo),
	}
}

func TestRegistry_ScoringScenarios(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	r := newRegistry(now)
	ctx := context.Background()
	tomorrow := now.Add(24 * time.Hour)

	urgent, err := r.create.Handle(ctx, commands.CreateTaskCommand{
		Title:       "Prepare board deck",
		Description: strings.Repeat("detail ", 20),
		Priority:    "high",
		DueDate:     &tomorrow,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, urgent.AIScore)

	plain, err := r.create.Handle(ctx, commands.CreateTaskCommand{Title: "Water plants"})
	require.NoError(t, err)
	assert.Equal(t, 65, plain.AIScore)

	low, err := r.create.Handle(ctx, commands.CreateTaskCommand{Title: "Tidy desk", Priority: "low"})
	require.NoError(t, err)
	assert.Equal(t, 55, low.AIScore)

	raised, err := r.update.Handle(ctx, commands.UpdateTaskCommand{TaskID: low.ID, Priority: ptr("high")})
	require.NoError(t, err)
	assert.Equal(t, low.AIScore+20, raised.AIScore)

	listed, err := r.list.Handle(ctx, queries.ListTasksQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{"Prepare board deck", "Tidy desk", "Water plants"},
		[]string{listed[0].Title, listed[1].Title, listed[2].Title})
	for i := 1; i < len(listed); i++ {
		assert.GreaterOrEqual(t, listed[i-1].AIScore, listed[i].AIScore)
	}
}

func TestRegistry_BroadcastsMutations(t *testing.T) {
	r := newRegistry(time.Now())
	ctx := context.Background()
	first, second := &capturingObserver{}, &capturingObserver{}
	r.bus.RegisterConsumer(first)
	r.bus.RegisterConsumer(second)

	created, err := r.create.Handle(ctx, commands.CreateTaskCommand{Title: "Observed"})
	require.NoError(t, err)
	_, err = r.update.Handle(ctx, commands.UpdateTaskCommand{TaskID: created.ID, Status: ptr("completed")})
	require.NoError(t, err)
	_, err = r.delete.Handle(ctx, commands.DeleteTaskCommand{TaskID: created.ID})
	require.NoError(t, err)

	events := first.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, task.RoutingKeyCreated, events[0].RoutingKey)
	assert.Equal(t, task.RoutingKeyUpdated, events[1].RoutingKey)
	assert.Equal(t, task.RoutingKeyDeleted, events[2].RoutingKey)

	// both observers receive identical payloads
	secondEvents := second.snapshot()
	require.Len(t, secondEvents, 3)
	assert.JSONEq(t, string(events[0].Payload), string(secondEvents[0].Payload))

	var payload struct {
		Task queries.TaskDTO `json:"task"`
	}
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, created.ID, payload.Task.ID)
	assert.Equal(t, created.AIScore, payload.Task.AIScore)

	require.NoError(t, json.Unmarshal(events[1].Payload, &payload))
	assert.Equal(t, "completed", payload.Task.Status)

	var deleted struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal(events[2].Payload, &deleted))
	assert.Equal(t, created.ID.String(), deleted.TaskID)

	_, err = r.get.Handle(ctx, queries.GetTaskQuery{TaskID: created.ID})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
	_, err = r.delete.Handle(ctx, commands.DeleteTaskCommand{TaskID: created.ID})
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestRegistry_LateObserverMustList(t *testing.T) {
	r := newRegistry(time.Now())
	ctx := context.Background()

	created, err := r.create.Handle(ctx, commands.CreateTaskCommand{Title: "Before"})
	require.NoError(t, err)

	late := &capturingObserver{}
	r.bus.RegisterConsumer(late)

	assert.Empty(t, late.snapshot())
	listed, err := r.list.Handle(ctx, queries.ListTasksQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestRegistry_ConcurrentCreatesAreSerialized(t *testing.T) {
	r := newRegistry(time.Now())
	ctx := context.Background()
	observer := &capturingObserver{}
	r.bus.RegisterConsumer(observer)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.create.Handle(ctx, commands.CreateTaskCommand{Title: "concurrent"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	listed, err := r.list.Handle(ctx, queries.ListTasksQuery{})
	require.NoError(t, err)
	assert.Len(t, listed, n)
	assert.Len(t, observer.snapshot(), n)

	summary, err := r.analytics.Handle(ctx, queries.AnalyticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, len(listed), summary.TotalTasks)
	assert.Equal(t, n, summary.ByStatus["pending"])
	assert.Equal(t, 65.0, summary.AverageAIScore)
}

func ptr(s string) *string { return &s }

type failingPublisher struct{ err error }

func (p failingPublisher) PublishDomainEvent(context.Context, domain.DomainEvent) error {
	return p.err
}

func TestRegistry_FailedPublishLeavesStoreUnchanged(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ctx := context.Background()
	repo := taskPersistence.NewMemoryTaskRepository()
	uow := persistence.NewSerialUnitOfWork()
	scorer := services.NewScoringEngineWithClock(clock)
	get := queries.NewGetTaskHandler(repo)

	seed, err := commands.NewCreateTaskHandler(repo, eventbus.NewInProcessEventBus(nil), uow, scorer, commands.WithClock(clock)).
		Handle(ctx, commands.CreateTaskCommand{Title: "Seed", Priority: "low"})
	require.NoError(t, err)

	boom := errors.New("publish failed")
	broken := failingPublisher{err: boom}

	_, err = commands.NewCreateTaskHandler(repo, broken, uow, scorer, commands.WithClock(clock)).
		Handle(ctx, commands.CreateTaskCommand{Title: "Lost"})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, repo.Count())

	_, err = commands.NewUpdateTaskHandler(repo, broken, uow, scorer, commands.WithClock(clock)).
		Handle(ctx, commands.UpdateTaskCommand{TaskID: seed.ID, Title: ptr("Changed"), Priority: ptr("high")})
	require.ErrorIs(t, err, boom)
	got, err := get.Handle(ctx, queries.GetTaskQuery{TaskID: seed.ID})
	require.NoError(t, err)
	assert.Equal(t, "Seed", got.Title)
	assert.Equal(t, "low", got.Priority)
	assert.Equal(t, seed.AIScore, got.AIScore)

	_, err = commands.NewDeleteTaskHandler(repo, broken, uow, commands.WithClock(clock)).
		Handle(ctx, commands.DeleteTaskCommand{TaskID: seed.ID})
	require.ErrorIs(t, err, boom)
	_, err = get.Handle(ctx, queries.GetTaskQuery{TaskID: seed.ID})
	require.NoError(t, err)

	// the write section was released after every failure
	_, err = commands.NewCreateTaskHandler(repo, eventbus.NewInProcessEventBus(nil), uow, scorer, commands.WithClock(clock)).
		Handle(ctx, commands.CreateTaskCommand{Title: "Next"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Count())
}
