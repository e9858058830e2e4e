// Package channel provides a bounded queue with an explicit backpressure
// policy. Producers and consumers suspend cooperatively; the buffer never
// grows past its configured capacity, and a failing stage propagates its
// error to every pending and future receive instead of silently closing.
package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/effkit-go/effkit/result"
	"github.com/effkit-go/effkit/tap"
)

// FullMode decides what Send does when the buffer is at capacity.
type FullMode int

const (
	// Wait suspends the sender until space frees.
	Wait FullMode = iota
	// DropOldest evicts the head of the buffer and enqueues the new item.
	DropOldest
	// DropNewest discards the incoming item and reports success.
	DropNewest
	// DropWrite discards the incoming item and reports success. It is
	// equivalent to DropNewest at the data level; both names are kept.
	DropWrite
)

// ErrClosed is the end-of-stream marker: the channel completed and every
// pending item has been drained.
var ErrClosed = errors.New("channel: completed and drained")

// ErrSendOnCompleted rejects sends after completion.
var ErrSendOnCompleted = errors.New("channel: send on completed channel")

// Channel is a bounded queue of T. Lifecycle: open, items flow,
// Complete or CompleteWithError, drained/closed.
type Channel[T any] struct {
	id           string
	mode         FullMode
	capacity     int
	singleWriter bool
	singleReader bool

	mu        sync.Mutex
	buf       []T
	head      int
	count     int
	completed bool
	failure   *result.Failure

	sendWaiters []chan struct{}
	recvWaiters []chan struct{}
}

// Option configures a Channel at construction time.
type Option func(*options)

type options struct {
	mode         FullMode
	singleWriter bool
	singleReader bool
}

// WithFullMode selects the at-capacity policy. Default is Wait.
func WithFullMode(mode FullMode) Option {
	return func(o *options) { o.mode = mode }
}

// WithSingleWriter hints that only one goroutine sends. Optimization
// hint only; correctness never depends on it.
func WithSingleWriter() Option {
	return func(o *options) { o.singleWriter = true }
}

// WithSingleReader hints that only one goroutine receives. Optimization
// hint only; correctness never depends on it.
func WithSingleReader() Option {
	return func(o *options) { o.singleReader = true }
}

// New builds a channel with the given capacity. Capacity must be
// positive; anything else is a configuration failure.
func New[T any](capacity int, opts ...Option) (*Channel[T], error) {
	if capacity <= 0 {
		return nil, result.NewFailure(result.CodeConfiguration, "channel: capacity must be positive")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	waiterCap := 4
	if o.singleWriter && o.singleReader {
		waiterCap = 1
	}
	return &Channel[T]{
		id:           uuid.New().String(),
		mode:         o.mode,
		capacity:     capacity,
		singleWriter: o.singleWriter,
		singleReader: o.singleReader,
		buf:          make([]T, capacity),
		sendWaiters:  make([]chan struct{}, 0, waiterCap),
		recvWaiters:  make([]chan struct{}, 0, waiterCap),
	}, nil
}

// ID identifies the channel in tap events.
func (ch *Channel[T]) ID() string { return ch.id }

// Cap returns the configured capacity.
func (ch *Channel[T]) Cap() int { return ch.capacity }

// Len returns the number of buffered items.
func (ch *Channel[T]) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.count
}

// Send enqueues item. Under capacity it enqueues immediately; at
// capacity the FullMode decides: Wait suspends until space frees,
// DropOldest evicts the head, DropNewest/DropWrite discard the incoming
// item and report success without notifying the caller.
func (ch *Channel[T]) Send(ctx context.Context, item T) error {
	for {
		if err := ctx.Err(); err != nil {
			return result.FailureFrom(err)
		}

		ch.mu.Lock()
		if ch.failure != nil {
			f := ch.failure
			ch.mu.Unlock()
			return f
		}
		if ch.completed {
			ch.mu.Unlock()
			return ErrSendOnCompleted
		}
		if ch.count < ch.capacity {
			ch.enqueueLocked(item)
			w := popWaiter(&ch.recvWaiters)
			ch.mu.Unlock()
			signal(w)
			return nil
		}

		switch ch.mode {
		case DropOldest:
			ch.head = (ch.head + 1) % ch.capacity
			ch.count--
			ch.enqueueLocked(item)
			ch.mu.Unlock()
			tap.Emit(ctx, tap.Event{Scope: ch.id, Op: "channel.drop_oldest"})
			return nil

		case DropNewest, DropWrite:
			// deliberate fire-and-forget: success is reported, the item is gone
			ch.mu.Unlock()
			tap.Emit(ctx, tap.Event{Scope: ch.id, Op: "channel.drop_write"})
			return nil

		default: // Wait
			w := make(chan struct{})
			ch.sendWaiters = append(ch.sendWaiters, w)
			ch.mu.Unlock()
			select {
			case <-w:
			case <-ctx.Done():
				ch.abandonWaiter(&ch.sendWaiters, w)
				return result.FailureFrom(ctx.Err())
			}
		}
	}
}

// Receive dequeues the next item, suspending while the channel is empty
// and open. Once completed, pending items drain first; after the drain
// Receive reports ErrClosed. After CompleteWithError every current and
// future Receive observes that failure.
func (ch *Channel[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, result.FailureFrom(err)
		}

		ch.mu.Lock()
		if ch.failure != nil {
			f := ch.failure
			ch.mu.Unlock()
			return zero, f
		}
		if ch.count > 0 {
			item := ch.dequeueLocked()
			w := popWaiter(&ch.sendWaiters)
			ch.mu.Unlock()
			signal(w)
			return item, nil
		}
		if ch.completed {
			ch.mu.Unlock()
			return zero, ErrClosed
		}

		w := make(chan struct{})
		ch.recvWaiters = append(ch.recvWaiters, w)
		ch.mu.Unlock()
		select {
		case <-w:
		case <-ctx.Done():
			ch.abandonWaiter(&ch.recvWaiters, w)
			return zero, result.FailureFrom(ctx.Err())
		}
	}
}

// Complete marks the end of the stream. Buffered items remain available
// to receivers; once drained, Receive reports ErrClosed. Idempotent.
func (ch *Channel[T]) Complete() {
	ch.mu.Lock()
	if ch.completed {
		ch.mu.Unlock()
		return
	}
	ch.completed = true
	waiters := ch.takeAllWaitersLocked()
	ch.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

// CompleteWithError fails the stream: unread items are discarded and all
// current and future Receive calls observe the failure. A failing stage
// must call this rather than silently closing, or downstream stages hang
// forever. A nil error degrades to Complete. Idempotent.
func (ch *Channel[T]) CompleteWithError(err error) {
	if err == nil {
		ch.Complete()
		return
	}
	ch.mu.Lock()
	if ch.completed {
		ch.mu.Unlock()
		return
	}
	ch.completed = true
	ch.failure = result.FailureFrom(err)
	var zero T
	for i := range ch.buf {
		ch.buf[i] = zero
	}
	ch.head = 0
	ch.count = 0
	waiters := ch.takeAllWaitersLocked()
	ch.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

// --- internals; every method below assumes ch.mu is held ---

func (ch *Channel[T]) enqueueLocked(item T) {
	ch.buf[(ch.head+ch.count)%ch.capacity] = item
	ch.count++
}

func (ch *Channel[T]) dequeueLocked() T {
	item := ch.buf[ch.head]
	var zero T
	ch.buf[ch.head] = zero
	ch.head = (ch.head + 1) % ch.capacity
	ch.count--
	return item
}

func (ch *Channel[T]) takeAllWaitersLocked() []chan struct{} {
	waiters := make([]chan struct{}, 0, len(ch.sendWaiters)+len(ch.recvWaiters))
	waiters = append(waiters, ch.sendWaiters...)
	waiters = append(waiters, ch.recvWaiters...)
	ch.sendWaiters = ch.sendWaiters[:0]
	ch.recvWaiters = ch.recvWaiters[:0]
	return waiters
}

// abandonWaiter withdraws w after a cancelled suspension. If w was
// already signalled, its wakeup is passed on to the next waiter so the
// notification is never lost.
func (ch *Channel[T]) abandonWaiter(list *[]chan struct{}, w chan struct{}) {
	ch.mu.Lock()
	removed := removeWaiter(list, w)
	var next chan struct{}
	if !removed {
		next = popWaiter(list)
	}
	ch.mu.Unlock()
	signal(next)
}

func popWaiter(list *[]chan struct{}) chan struct{} {
	if len(*list) == 0 {
		return nil
	}
	w := (*list)[0]
	copy(*list, (*list)[1:])
	*list = (*list)[:len(*list)-1]
	return w
}

func removeWaiter(list *[]chan struct{}, w chan struct{}) bool {
	for i, cand := range *list {
		if cand == w {
			copy((*list)[i:], (*list)[i+1:])
			*list = (*list)[:len(*list)-1]
			return true
		}
	}
	return false
}

func signal(w chan struct{}) {
	if w != nil {
		close(w)
	}
}
