package persistence

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned when Commit or Rollback is called outside a unit of work.
var ErrNoTransaction = errors.New("no transaction in context")

// SerialUnitOfWork serializes all writers of the in-memory store. Begin blocks
// until no other unit of work is open; Commit and Rollback release it. Nested
// units of work reuse the section held by the outer one.
//
// Stores apply mutations in place and register an undo step with OnRollback.
// Rollback of the owning unit replays those steps before releasing the
// section, so a handler that fails after Save leaves the store as it found it.
type SerialUnitOfWork struct {
	sem chan struct{}
}

// NewSerialUnitOfWork creates a new SerialUnitOfWork.
func NewSerialUnitOfWork() *SerialUnitOfWork {
	return &SerialUnitOfWork{sem: make(chan struct{}, 1)}
}

// Begin acquires the write section and stores it in the context.
func (u *SerialUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, info.Tx, false), nil
	}

	select {
	case u.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tx := &Tx{release: func() { <-u.sem }}
	return WithTx(ctx, tx, true), nil
}

// Commit keeps every mutation and releases the write section if this unit
// owns it.
func (u *SerialUnitOfWork) Commit(ctx context.Context) error {
	return u.end(ctx, (*Tx).commit)
}

// Rollback undoes the mutations recorded in the section and releases it if
// this unit owns it. A nested unit leaves the decision to the outer one.
func (u *SerialUnitOfWork) Rollback(ctx context.Context) error {
	return u.end(ctx, (*Tx).rollback)
}

func (u *SerialUnitOfWork) end(ctx context.Context, finish func(*Tx)) error {
	info, ok := TxInfoFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if info.Owned {
		finish(info.Tx)
		info.Tx.Close()
	}
	return nil
}
