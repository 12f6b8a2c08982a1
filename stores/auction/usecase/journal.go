package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/x-xyz/auctionhouse/base/ctx"
	"github.com/x-xyz/auctionhouse/domain/auction"
)

type txnKey struct{}

type undoFunc func(c ctx.Ctx) error

// txn journals the effects of one engine call so that a failure can undo them.
// Calls re-entering the engine with the ctx of a txn join it as nested calls.
type txn struct {
	owner  *engine
	now    time.Time
	undo   []undoFunc
	events []auction.Event
	closed int32
}

type savepoint struct {
	undo   int
	events int
}

func withTxn(c ctx.Ctx, tx *txn) ctx.Ctx {
	return ctx.WithContext(c, context.WithValue(c.Context, txnKey{}, tx))
}

// activeTxn returns the open txn of e carried by c, if any
func activeTxn(c ctx.Ctx, e *engine) *txn {
	tx, ok := c.Value(txnKey{}).(*txn)
	if !ok || tx.owner != e || atomic.LoadInt32(&tx.closed) == 1 {
		return nil
	}
	return tx
}

func (tx *txn) savepoint() savepoint {
	return savepoint{undo: len(tx.undo), events: len(tx.events)}
}

func (tx *txn) onUndo(f undoFunc) {
	tx.undo = append(tx.undo, f)
}

func (tx *txn) emit(e auction.Event) {
	e.EventId = uuid.New().String()
	e.Time = tx.now
	tx.events = append(tx.events, e)
}

// rollbackTo undoes the steps journaled after sp in reverse order and drops their events
func (tx *txn) rollbackTo(c ctx.Ctx, sp savepoint) {
	for i := len(tx.undo) - 1; i >= sp.undo; i-- {
		if err := tx.undo[i](c); err != nil {
			// undoing a step that succeeded must not fail
			c.WithField("err", err).WithField("step", i).Error("undo failed")
			tx.owner.met.BumpSum("undo.err", 1)
		}
		tx.undo[i] = nil
	}
	tx.undo = tx.undo[:sp.undo]
	tx.events = tx.events[:sp.events]
}

func (tx *txn) close() {
	atomic.StoreInt32(&tx.closed, 1)
}
