// Package stm provides software transactional memory: optimistic,
// retry-on-conflict coordination of multiple shared cells without a
// global lock. Conflicts are detected through per-ref versioning; the
// only locks involved are per-ref mutexes held for synchronous, bounded
// critical sections and never across a suspension point.
package stm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/effkit-go/effkit/result"
)

// ErrRejected is returned when a ref validator rejects a value at store
// or commit time. Nothing is published in that case.
var ErrRejected = result.NewFailure(
	result.CodeValidationRejected,
	"stm: value rejected by ref validator",
)

// refSeq hands out monotonically increasing ref ids. Commit locks refs
// in id order, which makes the lock order global and deadlock-free.
var refSeq atomic.Uint64

// Ref is a transactional cell. Outside a transaction it behaves like a
// plain versioned cell; inside one, reads and writes are buffered in the
// transaction log and validated at commit.
type Ref[T any] struct {
	id       uint64
	validate func(T) bool

	mu      sync.Mutex
	value   T
	version uint64
}

// RefOption configures a Ref at construction time.
type RefOption[T any] func(*Ref[T])

// WithValidator installs an invariant check applied to every value
// stored into the ref, directly or at commit.
func WithValidator[T any](validate func(T) bool) RefOption[T] {
	return func(r *Ref[T]) {
		r.validate = validate
	}
}

// NewRef builds a Ref holding initial.
func NewRef[T any](initial T, opts ...RefOption[T]) *Ref[T] {
	r := &Ref[T]{id: refSeq.Add(1), value: initial}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the ref's value. Inside a transaction it returns the
// buffered value if present, otherwise the committed value, recording
// the read version for commit-time validation.
func (r *Ref[T]) Load(ctx context.Context) T {
	tx := txFrom(ctx)
	if tx == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.value
	}
	return tx.entryFor(r).value.(T)
}

// Store writes v into the ref. Inside a transaction the write is
// buffered without touching committed state; outside one it is a direct
// versioned write, validated immediately.
func (r *Ref[T]) Store(ctx context.Context, v T) error {
	tx := txFrom(ctx)
	if tx == nil {
		if r.validate != nil && !r.validate(v) {
			return ErrRejected
		}
		r.mu.Lock()
		r.value = v
		r.version++
		r.mu.Unlock()
		return nil
	}
	e := tx.entryFor(r)
	e.value = v
	e.written = true
	return nil
}

// --- untyped view used by the transaction log ---

// cell erases the value type of a Ref so one log can span refs of
// different types.
type cell interface {
	refID() uint64
	lock()
	unlock()
	snapshot() (any, uint64)
	versionLocked() uint64
	publishLocked(v any)
	admits(v any) bool
}

func (r *Ref[T]) refID() uint64 { return r.id }
func (r *Ref[T]) lock()         { r.mu.Lock() }
func (r *Ref[T]) unlock()       { r.mu.Unlock() }

func (r *Ref[T]) snapshot() (any, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.version
}

func (r *Ref[T]) versionLocked() uint64 { return r.version }

func (r *Ref[T]) publishLocked(v any) {
	r.value = v.(T)
	r.version++
}

func (r *Ref[T]) admits(v any) bool {
	return r.validate == nil || r.validate(v.(T))
}
