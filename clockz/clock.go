// Package clockz is the clock capability consumed by schedule delays and
// observation timestamps. System() is the real thing; Manual is the
// deterministic substitute for tests.
package clockz

import (
	"context"
	"time"

	"github.com/rickb777/date/v2/timespan"
)

// Clock provides the current instant and cancellable sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// System returns the wall clock.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

const epsilon = time.Millisecond

// Span brackets the clock's current instant with a small tolerance,
// suitable for stamping observation events.
func Span(c Clock) timespan.TimeSpan {
	now := c.Now()
	return timespan.BetweenTimes(now.Add(-epsilon), now.Add(epsilon))
}
