// Package dispatch provides the fire-and-forget worker queues behind the
// tap: payloads with the same partition key are handled by the same
// goroutine, preserving per-key ordering.
package dispatch

import (
	"context"
	"log"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Partitionable payloads carry the key their ordering is scoped to.
type Partitionable interface {
	PartitionKey() string
}

// Config sizes a handler's queues and worker pool.
type Config struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1
}

// NewConfig normalizes non-positive values to the defaults.
func NewConfig(bufferSize, numWorkers int) Config {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return Config{BufferSize: bufferSize, NumWorkers: numWorkers}
}

// Handler fans payloads out to hash-partitioned worker goroutines and
// never reports a result back.
//
// A handler instance belongs to one execution scope: create it, share
// the context it is registered under, and Close it from the goroutine
// that created it.
type Handler[T Partitionable] struct {
	ScopeID string
	chs     []chan T
	closeFn func()
	closed  bool
}

// New starts the worker goroutines and returns the handler. teardown
// runs when the handler is closed, after the workers stop accepting.
func New[T Partitionable](
	ctx context.Context,
	config Config,
	handleFn func(context.Context, T),
	teardown func(),
) *Handler[T] {
	ctx, cancelFn := context.WithCancel(ctx)
	chs := make([]chan T, config.NumWorkers)
	for i := 0; i < config.NumWorkers; i++ {
		ch := make(chan T, config.BufferSize)
		go func(ch chan T) {
			defer close(ch)
			for {
				select {
				case msg := <-ch:
					handleFn(ctx, msg)
				case <-ctx.Done():
					return
				}
			}
		}(ch)
		chs[i] = ch
	}
	return &Handler[T]{
		ScopeID: uuid.New().String(),
		chs:     chs,
		closeFn: func() {
			cancelFn()
			teardown()
		},
	}
}

// Dispatch hands the payload to the worker owning its partition key.
// Best effort: a cancelled context or an already-closed scope drops the
// payload.
func (h *Handler[T]) Dispatch(ctx context.Context, payload T) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch to closed scope %s dropped payload: %+v", h.ScopeID, payload)
		}
	}()
	select {
	case <-ctx.Done():
	case h.chs[indexByHash(payload, len(h.chs))] <- payload:
	}
}

// Close stops the workers and runs the teardown. Idempotent within the
// owning goroutine.
func (h *Handler[T]) Close() {
	if !h.closed {
		h.closeFn()
		h.closed = true
	}
}

func indexByHash(payload Partitionable, numChs int) int {
	switch numChs {
	case 0:
		panic("dispatch: number of worker channels cannot be 0")
	case 1:
		return 0
	default:
		return int(xxhash.Sum64String(payload.PartitionKey()) % uint64(numChs))
	}
}
