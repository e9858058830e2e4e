// Package atom provides a lock-free single-cell state primitive updated
// through compare-and-swap. It is one of the two sanctioned
// shared-mutable-state primitives of this module (the other is stm).
package atom

import (
	"sync/atomic"

	"github.com/effkit-go/effkit/internal/backoff"
	"github.com/effkit-go/effkit/result"
)

// ErrRejected is returned by Swap when the validator rejects the
// transitioned value. The cell is never mutated in that case.
var ErrRejected = result.NewFailure(
	result.CodeValidationRejected,
	"atom: transition rejected by validator",
)

// Atom is a single mutable cell owned by the runtime. Any goroutine may
// read or update it; updates go through a CAS loop, so they never block
// each other, but a transition may run multiple times under contention.
type Atom[T any] struct {
	cell       atomic.Pointer[T]
	validate   func(T) bool
	contention atomic.Uint64
}

// Option configures an Atom at construction time.
type Option[T any] func(*Atom[T])

// WithValidator installs an invariant check applied to every
// transitioned value before it is published.
func WithValidator[T any](validate func(T) bool) Option[T] {
	return func(a *Atom[T]) {
		a.validate = validate
	}
}

// New builds an Atom holding initial. The validator, if any, applies to
// transitions only; the initial value is the caller's responsibility.
func New[T any](initial T, opts ...Option[T]) *Atom[T] {
	a := &Atom[T]{}
	for _, opt := range opts {
		opt(a)
	}
	a.cell.Store(&initial)
	return a
}

// Load returns the current value.
func (a *Atom[T]) Load() T {
	return *a.cell.Load()
}

// Swap applies transition to the current value and publishes the result
// via CAS, retrying from the top on a lost race with bounded exponential
// backoff. The transition must be pure: it may run multiple times under
// contention and must never perform I/O.
//
// If a validator is installed and rejects the transitioned value, Swap
// returns ErrRejected without mutating the cell and without retrying.
// Termination is not guaranteed under pathological contention; the
// Contention counter makes livelock observable.
func (a *Atom[T]) Swap(transition func(T) T) (T, error) {
	var bo backoff.Backoff
	for {
		cur := a.cell.Load()
		next := transition(*cur)
		if a.validate != nil && !a.validate(next) {
			var zero T
			return zero, ErrRejected
		}
		if a.cell.CompareAndSwap(cur, &next) {
			return next, nil
		}
		a.contention.Add(1)
		bo.Wait()
	}
}

// Contention reports how many CAS races this atom has lost so far.
func (a *Atom[T]) Contention() uint64 {
	return a.contention.Load()
}
