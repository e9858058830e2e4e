// Package schedule is the retry/repeat combinator language: a schedule
// is a pure function from attempt count and elapsed time to a
// continue-or-stop decision with a delay. Schedules compose with Union
// (more permissive, longer delay) and Intersect (more restrictive,
// shorter delay); Retry and Repeat drive the effect interpreter with
// them.
package schedule

import (
	"math/rand"
	"time"
)

// Decision is the outcome of consulting a schedule after an attempt.
type Decision struct {
	Continue bool
	Delay    time.Duration
}

// ContinueAfter permits another attempt after the given delay.
func ContinueAfter(d time.Duration) Decision {
	return Decision{Continue: true, Delay: d}
}

// Stop ends the attempts.
func Stop() Decision {
	return Decision{}
}

// Schedule maps the number of completed attempts and the elapsed time
// since the first attempt to a Decision. Schedules must be pure; the
// driver may consult them at any rate.
type Schedule func(attempt int, elapsed time.Duration) Decision

// Spaced continues forever with a constant delay.
func Spaced(d time.Duration) Schedule {
	return func(int, time.Duration) Decision {
		return ContinueAfter(d)
	}
}

// Linear continues forever with delay = seed + factor*attempt.
func Linear(seed, factor time.Duration) Schedule {
	return func(attempt int, _ time.Duration) Decision {
		return ContinueAfter(seed + factor*time.Duration(attempt))
	}
}

// exponentialShiftCap keeps base<<attempt from overflowing a Duration.
const exponentialShiftCap = 32

// Exponential continues forever with delay = base * 2^attempt.
func Exponential(base time.Duration) Schedule {
	return func(attempt int, _ time.Duration) Decision {
		shift := attempt
		if shift > exponentialShiftCap {
			shift = exponentialShiftCap
		}
		return ContinueAfter(base << shift)
	}
}

// Recurs permits n attempts in total, with no delay of its own.
func Recurs(n int) Schedule {
	return func(attempt int, _ time.Duration) Decision {
		if attempt < n {
			return ContinueAfter(0)
		}
		return Stop()
	}
}

// Forever continues without delay.
func Forever() Schedule {
	return Spaced(0)
}

// Upto continues, with no delay of its own, until the elapsed time
// exceeds max.
func Upto(max time.Duration) Schedule {
	return func(_ int, elapsed time.Duration) Decision {
		if elapsed > max {
			return Stop()
		}
		return ContinueAfter(0)
	}
}

// Jitter randomizes the upstream delay by ±pct (0.1 means ±10%).
func Jitter(s Schedule, pct float64) Schedule {
	return func(attempt int, elapsed time.Duration) Decision {
		d := s(attempt, elapsed)
		if !d.Continue {
			return d
		}
		factor := 1 + pct*(2*rand.Float64()-1)
		return ContinueAfter(time.Duration(float64(d.Delay) * factor))
	}
}

// MaxDelay caps the upstream delay at max.
func MaxDelay(s Schedule, max time.Duration) Schedule {
	return func(attempt int, elapsed time.Duration) Decision {
		d := s(attempt, elapsed)
		if d.Continue && d.Delay > max {
			return ContinueAfter(max)
		}
		return d
	}
}

// Union continues if either schedule continues and takes the longer
// proposed delay.
func Union(a, b Schedule) Schedule {
	return func(attempt int, elapsed time.Duration) Decision {
		da := a(attempt, elapsed)
		db := b(attempt, elapsed)
		switch {
		case da.Continue && db.Continue:
			if da.Delay >= db.Delay {
				return da
			}
			return db
		case da.Continue:
			return da
		case db.Continue:
			return db
		default:
			return Stop()
		}
	}
}

// Intersect continues only if both schedules continue and takes the
// shorter proposed delay.
func Intersect(a, b Schedule) Schedule {
	return func(attempt int, elapsed time.Duration) Decision {
		da := a(attempt, elapsed)
		db := b(attempt, elapsed)
		if !da.Continue || !db.Continue {
			return Stop()
		}
		if da.Delay <= db.Delay {
			return da
		}
		return db
	}
}
