package effect

import (
	"context"
	"time"

	"github.com/rickb777/date/v2/timespan"

	"github.com/effkit-go/effkit/result"
	"github.com/effkit-go/effkit/tap"
)

// Run is the one interpreter: it executes a description tree to a
// Result. Pure and Fail resolve immediately, Sync runs on the calling
// goroutine, Async suspends the calling task, Bind short-circuits on
// failure. When a tap is registered in ctx, the outcome and its time
// span are emitted as a non-mutating observation.
func Run[T any](ctx context.Context, eff Effect[T]) result.Result[T] {
	started := time.Now()
	res := eff.eval(ctx)

	var err error
	if !res.IsOk() {
		err = res.Failure()
	}
	tap.Emit(ctx, tap.Event{
		Scope: "effect",
		Op:    "run",
		Span:  timespan.BetweenTimes(started, time.Now()),
		Err:   err,
	})
	return res
}
