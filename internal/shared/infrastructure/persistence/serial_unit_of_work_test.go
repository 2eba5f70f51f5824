package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialUnitOfWork_BeginCommit(t *testing.T) {
	uow := NewSerialUnitOfWork()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	info, ok := TxInfoFromContext(txCtx)
	require.True(t, ok)
	assert.True(t, info.Owned)
	assert.True(t, InTx(txCtx))

	require.NoError(t, uow.Commit(txCtx))

	// section is free again
	txCtx, err = uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))
}

func TestSerialUnitOfWork_Nested(t *testing.T) {
	uow := NewSerialUnitOfWork()

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)

	inner, err := uow.Begin(outer)
	require.NoError(t, err)

	info, ok := TxInfoFromContext(inner)
	require.True(t, ok)
	assert.False(t, info.Owned)

	// inner commit must not release the outer section
	require.NoError(t, uow.Commit(inner))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = uow.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, uow.Commit(outer))
}

func TestSerialUnitOfWork_RollbackUndoesNewestFirst(t *testing.T) {
	uow := NewSerialUnitOfWork()
	var undone []string

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	OnRollback(txCtx, func() { undone = append(undone, "first") })

	inner, err := uow.Begin(txCtx)
	require.NoError(t, err)
	OnRollback(inner, func() { undone = append(undone, "second") })

	// the nested unit leaves undo to its owner
	require.NoError(t, uow.Rollback(inner))
	assert.Empty(t, undone)

	require.NoError(t, uow.Rollback(txCtx))
	assert.Equal(t, []string{"second", "first"}, undone)

	// released and nothing replayed twice
	txCtx, err = uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))
	assert.Len(t, undone, 2)
}

func TestSerialUnitOfWork_CommitDiscardsUndo(t *testing.T) {
	uow := NewSerialUnitOfWork()
	ran := false

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	OnRollback(txCtx, func() { ran = true })
	require.NoError(t, uow.Commit(txCtx))
	require.NoError(t, uow.Rollback(txCtx))

	assert.False(t, ran)

	// outside a unit of work there is nothing to record on
	assert.NotPanics(t, func() { OnRollback(context.Background(), func() { ran = true }) })
}

func TestSerialUnitOfWork_CommitWithoutBegin(t *testing.T) {
	uow := NewSerialUnitOfWork()

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
}

func TestSerialUnitOfWork_DoubleCommitReleasesOnce(t *testing.T) {
	uow := NewSerialUnitOfWork()

	txCtx, err := uow.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, uow.Commit(txCtx))
	require.NotPanics(t, func() { _ = uow.Commit(txCtx) })

	other, err := uow.Begin(context.Background())
	require.NoError(t, err)

	// the second commit above must not have released this section
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = uow.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, uow.Commit(other))
}

func TestSerialUnitOfWork_SerializesWriters(t *testing.T) {
	uow := NewSerialUnitOfWork()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
		counter int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := sharedApplication.WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				counter++

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 50, counter)
}
