package task

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for the canonical task collection.
type Repository interface {
	// Save inserts the task or replaces the stored version.
	Save(ctx context.Context, task *Task) error
	// FindByID returns ErrTaskNotFound when no task has the ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// FindAll returns every task in insertion order.
	FindAll(ctx context.Context) ([]*Task, error)
	// Delete returns ErrTaskNotFound when no task has the ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
