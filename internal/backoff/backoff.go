// Package backoff provides the bounded exponential backoff used between
// optimistic retry attempts in the atom and stm loops.
package backoff

import (
	"runtime"
	"time"
)

const (
	// spinLimit attempts just yield the processor before any sleeping
	// starts; most CAS races resolve within a scheduler pass.
	spinLimit = 4

	baseDelay = time.Microsecond
	maxShift  = 10 // caps the sleep at ~1ms
)

// Backoff tracks consecutive failed attempts. The zero value is ready to
// use and a Backoff must not be shared across goroutines.
type Backoff struct {
	attempts int
}

// Wait blocks proportionally to the number of failed attempts so far:
// first a few scheduler yields, then exponentially growing sleeps up to
// a fixed cap.
func (b *Backoff) Wait() {
	b.attempts++
	if b.attempts <= spinLimit {
		runtime.Gosched()
		return
	}
	shift := b.attempts - spinLimit
	if shift > maxShift {
		shift = maxShift
	}
	time.Sleep(baseDelay << shift)
}

// Reset clears the attempt count after progress is made.
func (b *Backoff) Reset() {
	b.attempts = 0
}
