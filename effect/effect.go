// Package effect provides a deferred, composable description of a
// computation. Building a description performs zero side effects;
// execution happens only when the tree is handed to Run. Failure
// short-circuits through Bind, cancellation is observed cooperatively
// between steps, and Bracket guarantees its release phase on every exit
// path.
package effect

import (
	"context"

	"github.com/effkit-go/effkit/result"
)

// Unit is the value of effects executed for their side effect alone.
type Unit = struct{}

// Effect is a sealed description of a computation producing T. Variants
// dispatch through their own eval method, which lets Bind carry its
// source type without surfacing it in the interface.
type Effect[T any] interface {
	eval(ctx context.Context) result.Result[T]
}

// --- leaf nodes ---

type pure[T any] struct{ value T }

func (p pure[T]) eval(context.Context) result.Result[T] {
	return result.Ok(p.value)
}

type fail[T any] struct{ failure *result.Failure }

func (f fail[T]) eval(context.Context) result.Result[T] {
	return result.Err[T](f.failure)
}

type syncThunk[T any] struct{ thunk func() result.Result[T] }

func (s syncThunk[T]) eval(ctx context.Context) result.Result[T] {
	if f := cancelled(ctx); f != nil {
		return result.Err[T](f)
	}
	return s.thunk()
}

type asyncThunk[T any] struct{ thunk func(context.Context) result.Result[T] }

// eval runs the thunk on its own goroutine and suspends the calling task
// until it completes or the context is cancelled. A thunk that outlives
// cancellation sends into the buffered channel and is collected normally.
func (a asyncThunk[T]) eval(ctx context.Context) result.Result[T] {
	if f := cancelled(ctx); f != nil {
		return result.Err[T](f)
	}
	done := make(chan result.Result[T], 1)
	go func() {
		done <- a.thunk(ctx)
	}()
	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return result.Err[T](result.FailureFrom(ctx.Err()))
	}
}

// --- sequencing nodes ---

type bindNode[A, T any] struct {
	source Effect[A]
	next   func(A) Effect[T]
}

// eval runs the left side and, only on success, constructs and runs the
// right side. On failure the continuation is never built. Cancellation is
// checked before each side.
func (b bindNode[A, T]) eval(ctx context.Context) result.Result[T] {
	if f := cancelled(ctx); f != nil {
		return result.Err[T](f)
	}
	src := b.source.eval(ctx)
	if !src.IsOk() {
		return result.Err[T](src.Failure())
	}
	if f := cancelled(ctx); f != nil {
		return result.Err[T](f)
	}
	return b.next(src.Value()).eval(ctx)
}

type catchNode[T any] struct {
	source  Effect[T]
	handler func(*result.Failure) Effect[T]
}

func (c catchNode[T]) eval(ctx context.Context) result.Result[T] {
	res := c.source.eval(ctx)
	if res.IsOk() {
		return res
	}
	if f := cancelled(ctx); f != nil {
		return result.Err[T](f)
	}
	return c.handler(res.Failure()).eval(ctx)
}

// --- constructors ---

// Pure describes an already-available value. Resolves immediately.
func Pure[T any](v T) Effect[T] {
	return pure[T]{value: v}
}

// Fail describes an already-known failure. Resolves immediately.
func Fail[T any](f *result.Failure) Effect[T] {
	if f == nil {
		f = result.NewFailure(result.CodeUnknown, "effect failed with nil failure")
	}
	return fail[T]{failure: f}
}

// Sync describes a synchronous thunk run on the calling goroutine.
func Sync[T any](thunk func() result.Result[T]) Effect[T] {
	return syncThunk[T]{thunk: thunk}
}

// Async describes a suspending thunk. The calling task suspends until
// the thunk completes or the context is cancelled.
func Async[T any](thunk func(context.Context) result.Result[T]) Effect[T] {
	return asyncThunk[T]{thunk: thunk}
}

// FromFunc lifts a conventional (value, error) function into an async
// description.
func FromFunc[T any](fn func(context.Context) (T, error)) Effect[T] {
	return Async(func(ctx context.Context) result.Result[T] {
		return result.Of(fn(ctx))
	})
}

// Bind sequences two descriptions: run source, then feed its success
// value to next. On failure next is never invoked.
func Bind[A, T any](source Effect[A], next func(A) Effect[T]) Effect[T] {
	return bindNode[A, T]{source: source, next: next}
}

// Map transforms the success value of a description.
func Map[A, T any](source Effect[A], f func(A) T) Effect[T] {
	return Bind(source, func(a A) Effect[T] {
		return Pure(f(a))
	})
}

// Catch intercepts a failure mid-pipeline with a recovery description.
// This is the one sanctioned interception point; everywhere else failure
// short-circuits to the boundary.
func Catch[T any](source Effect[T], handler func(*result.Failure) Effect[T]) Effect[T] {
	return catchNode[T]{source: source, handler: handler}
}

// cancelled converts an observed context cancellation into a failure.
func cancelled(ctx context.Context) *result.Failure {
	if err := ctx.Err(); err != nil {
		return result.FailureFrom(err)
	}
	return nil
}
