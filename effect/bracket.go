package effect

import (
	"context"

	"github.com/effkit-go/effkit/result"
)

type bracketNode[R, T any] struct {
	acquire Effect[R]
	use     func(R) Effect[T]
	release func(R) Effect[Unit]
}

// eval guarantees the release phase. If acquire fails nothing was
// acquired and release never runs. Once acquire succeeds, the use
// outcome (success, failure, or observed cancellation) is captured and
// release runs exactly once under a cancellation-free context before the
// captured outcome is returned. A release failure is attached to that
// outcome, never dropped.
func (b bracketNode[R, T]) eval(ctx context.Context) result.Result[T] {
	if f := cancelled(ctx); f != nil {
		return result.Err[T](f)
	}

	acq := b.acquire.eval(ctx)
	if !acq.IsOk() {
		f := acq.Failure()
		switch f.Code() {
		case result.CodeCancelled, result.CodeResourceAcquisition:
		default:
			f = f.Wrap(result.CodeResourceAcquisition, "bracket acquire failed")
		}
		return result.Err[T](f)
	}
	res := acq.Value()

	var out result.Result[T]
	if f := cancelled(ctx); f != nil {
		out = result.Err[T](f)
	} else {
		out = b.use(res).eval(ctx)
	}

	rel := b.release(res).eval(context.WithoutCancel(ctx))
	if !rel.IsOk() {
		out = attachRelease(out, rel.Failure())
	}
	return out
}

// Bracket describes acquire/use/release with guaranteed release. The
// guarantee is identical whether use succeeds, fails, or is cancelled
// mid-flight; only an acquire failure skips release.
func Bracket[R, T any](
	acquire Effect[R],
	use func(R) Effect[T],
	release func(R) Effect[Unit],
) Effect[T] {
	return bracketNode[R, T]{acquire: acquire, use: use, release: release}
}

func attachRelease[T any](out result.Result[T], rel *result.Failure) result.Result[T] {
	if out.IsOk() {
		return result.Err[T](rel.Wrap(rel.Code(), "bracket release failed after successful use"))
	}
	return result.Err[T](out.Failure().Attach(rel))
}
