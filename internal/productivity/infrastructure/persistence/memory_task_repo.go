package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/taskboard/internal/productivity/domain/task"
	sharedPersistence "github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

type storedTask struct {
	task *task.Task
	seq  uint64
}

// MemoryTaskRepository implements task.Repository in process memory. It is
// the canonical task collection; nothing is persisted.
//
// Tasks are stored and returned as clones, so a caller holding a task can
// never expose a partially applied mutation to other readers.
type MemoryTaskRepository struct {
	mu      sync.RWMutex
	tasks   map[uuid.UUID]storedTask
	nextSeq uint64
}

// NewMemoryTaskRepository creates an empty repository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[uuid.UUID]storedTask),
	}
}

// Save inserts the task or replaces the stored version. Replacing keeps the
// original insertion position. Inside a unit of work the previous state is
// restored if the unit rolls back.
func (r *MemoryTaskRepository) Save(ctx context.Context, t *task.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := t.ID()
	stored := t.Clone()
	stored.ClearDomainEvents()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tasks[id]; ok {
		r.tasks[id] = storedTask{task: stored, seq: existing.seq}
		sharedPersistence.OnRollback(ctx, func() { r.restore(id, existing, true) })
		return nil
	}

	r.nextSeq++
	r.tasks[id] = storedTask{task: stored, seq: r.nextSeq}
	sharedPersistence.OnRollback(ctx, func() { r.restore(id, storedTask{}, false) })
	return nil
}

func (r *MemoryTaskRepository) restore(id uuid.UUID, previous storedTask, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existed {
		r.tasks[id] = previous
		return
	}
	delete(r.tasks, id)
}

// FindByID returns a copy of the task.
func (r *MemoryTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tasks[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	return stored.task.Clone(), nil
}

// FindAll returns copies of every task in insertion order.
func (r *MemoryTaskRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entries := make([]storedTask, 0, len(r.tasks))
	for _, stored := range r.tasks {
		entries = append(entries, storedTask{task: stored.task.Clone(), seq: stored.seq})
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	tasks := make([]*task.Task, len(entries))
	for i, e := range entries {
		tasks[i] = e.task
	}
	return tasks, nil
}

// Delete removes the task.
func (r *MemoryTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[id]
	if !ok {
		return task.ErrTaskNotFound
	}
	delete(r.tasks, id)
	sharedPersistence.OnRollback(ctx, func() { r.restore(id, existing, true) })
	return nil
}

// Count returns the number of stored tasks.
func (r *MemoryTaskRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
