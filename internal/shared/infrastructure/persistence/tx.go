package persistence

import (
	"context"
	"sync"
)

type txKey struct{}

// Tx is the write section held by a unit of work. Stores record an undo step
// for every mutation applied inside it; Rollback replays them newest first.
type Tx struct {
	once    sync.Once
	release func()
	undo    []func()
}

// Close releases the write section. It is safe to call more than once.
func (t *Tx) Close() {
	t.once.Do(t.release)
}

// OnRollback records fn to run if the unit of work rolls back.
func (t *Tx) OnRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *Tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *Tx) commit() {
	t.undo = nil
}

// TxInfo holds the write section in context and whether it is owned by the caller.
type TxInfo struct {
	Tx    *Tx
	Owned bool
}

// WithTx stores transaction info in the context.
func WithTx(ctx context.Context, tx *Tx, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxInfoFromContext extracts transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// InTx reports whether the context carries an open write section.
func InTx(ctx context.Context) bool {
	_, ok := TxInfoFromContext(ctx)
	return ok
}

// OnRollback records fn on the unit of work carried by ctx. Outside a unit of
// work the mutation is final and fn is dropped.
func OnRollback(ctx context.Context, fn func()) {
	if info, ok := TxInfoFromContext(ctx); ok {
		info.Tx.OnRollback(fn)
	}
}
