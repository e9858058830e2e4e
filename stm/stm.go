package stm

import (
	"context"
	"errors"

	"github.com/effkit-go/effkit/internal/backoff"
	"github.com/effkit-go/effkit/result"
)

// Atomic executes body inside a transaction. Ref reads return buffered
// values when present, writes are buffered, and on completion the log is
// committed atomically. When another transaction committed to a touched
// ref in the meantime, the log is discarded and body re-executes from
// the start, so body must be pure: no I/O, no observable side effects.
//
// A nested Atomic joins the enclosing transaction found in ctx instead
// of opening its own. An error returned by body aborts the transaction
// without publishing anything and propagates unchanged; a validator
// rejection surfaces as ErrRejected.
func Atomic(ctx context.Context, body func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return body(ctx)
	}

	var bo backoff.Backoff
	for {
		if err := ctx.Err(); err != nil {
			return result.FailureFrom(err)
		}
		tx := &txn{entries: map[uint64]*entry{}}
		if err := body(context.WithValue(ctx, txKey{}, tx)); err != nil {
			return err
		}
		err := tx.commit()
		if err == nil {
			return nil
		}
		if !errors.Is(err, errConflict) {
			return err
		}
		bo.Wait()
	}
}
