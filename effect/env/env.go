// Package env adds Reader-style environment injection over effect
// descriptions: a computation is a function from an immutable dependency
// record to a description, and the record is resolved exactly once, when
// the pipeline is finally run against a concrete environment. It adds no
// control flow of its own; all execution semantics come from effect.Run.
package env

import (
	"context"

	"github.com/effkit-go/effkit/effect"
	"github.com/effkit-go/effkit/result"
)

// Effect is a deferred partial application: give it an environment and
// it yields a plain effect description. Building one never touches the
// environment.
type Effect[E, T any] func(E) effect.Effect[T]

// Pure describes an already-available value, ignoring the environment.
func Pure[E, T any](v T) Effect[E, T] {
	return func(E) effect.Effect[T] {
		return effect.Pure(v)
	}
}

// Fail describes an already-known failure, ignoring the environment.
func Fail[E, T any](f *result.Failure) Effect[E, T] {
	return func(E) effect.Effect[T] {
		return effect.Fail[T](f)
	}
}

// Asks lifts a pure accessor on the environment into the effect context.
// Composition should reach the environment only through Asks.
func Asks[E, A any](selector func(E) A) Effect[E, A] {
	return func(e E) effect.Effect[A] {
		return effect.Sync(func() result.Result[A] {
			return result.Ok(selector(e))
		})
	}
}

// Lift embeds an environment-free description.
func Lift[E, T any](eff effect.Effect[T]) Effect[E, T] {
	return func(E) effect.Effect[T] {
		return eff
	}
}

// Map transforms the success value, threading the environment
// implicitly.
func Map[E, A, B any](src Effect[E, A], f func(A) B) Effect[E, B] {
	return func(e E) effect.Effect[B] {
		return effect.Map(src(e), f)
	}
}

// Bind sequences two environment-dependent descriptions. The
// continuation sees the same environment; on failure it is never built.
func Bind[E, A, B any](src Effect[E, A], f func(A) Effect[E, B]) Effect[E, B] {
	return func(e E) effect.Effect[B] {
		return effect.Bind(src(e), func(a A) effect.Effect[B] {
			return f(a)(e)
		})
	}
}

// Run resolves the pipeline against a concrete environment and executes
// it through the effect interpreter.
func Run[E, T any](ctx context.Context, eff Effect[E, T], environment E) result.Result[T] {
	return effect.Run(ctx, eff(environment))
}
