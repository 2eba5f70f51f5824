package observer

import (
	"sort"
	"sync"

	"github.com/felixgeelhaar/taskboard/internal/productivity/application/queries"
)

// LocalView is an observer's replica of the task list. It is seeded from a
// list call and then kept current by applying broadcast frames; the sorted
// order is re-derived locally after every change.
type LocalView struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]queries.TaskDTO
}

// NewLocalView creates a view seeded with initial, typically the result of
// listing tasks right after connecting.
func NewLocalView(initial []queries.TaskDTO) *LocalView {
	v := &LocalView{tasks: make(map[string]queries.TaskDTO, len(initial))}
	for _, t := range initial {
		v.upsert(t)
	}
	return v
}

// Apply merges one frame into the view.
func (v *LocalView) Apply(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	switch f.Event {
	case EventTaskCreated, EventTaskUpdated:
		// an update for a task missed while disconnected is treated as an insert
		v.upsert(*f.Task)
	case EventTaskDeleted:
		v.remove(f.ID)
	}
	return nil
}

// Tasks returns the tasks ordered by AI score, highest first. Equal scores
// keep the order in which the view first saw the tasks.
func (v *LocalView) Tasks() []queries.TaskDTO {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]queries.TaskDTO, len(v.order))
	for i, id := range v.order {
		out[i] = v.tasks[id]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AIScore > out[j].AIScore })
	return out
}

// Get returns a single task.
func (v *LocalView) Get(id string) (queries.TaskDTO, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	t, ok := v.tasks[id]
	return t, ok
}

// Len returns the number of tasks in the view.
func (v *LocalView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.order)
}

func (v *LocalView) upsert(t queries.TaskDTO) {
	id := t.ID.String()
	if _, ok := v.tasks[id]; !ok {
		v.order = append(v.order, id)
	}
	v.tasks[id] = t
}

func (v *LocalView) remove(id string) {
	if _, ok := v.tasks[id]; !ok {
		return
	}
	delete(v.tasks, id)
	for i, existing := range v.order {
		if existing == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}
