package clockz

import (
	"context"
	"sync"
	"time"
)

// Manual is a hand-driven Clock: Now stands still until Advance moves
// it, and sleepers wake only when the clock passes their deadline.
type Manual struct {
	mu       sync.Mutex
	now      time.Time
	sleepers []*sleeper
}

type sleeper struct {
	deadline time.Time
	ch       chan struct{}
}

// NewManual builds a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	m.mu.Lock()
	s := &sleeper{deadline: m.now.Add(d), ch: make(chan struct{})}
	m.sleepers = append(m.sleepers, s)
	m.mu.Unlock()

	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		m.drop(s)
		return ctx.Err()
	}
}

// Advance moves the clock forward and wakes every sleeper whose deadline
// has passed.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	remaining := m.sleepers[:0]
	var due []*sleeper
	for _, s := range m.sleepers {
		if !s.deadline.After(m.now) {
			due = append(due, s)
		} else {
			remaining = append(remaining, s)
		}
	}
	m.sleepers = remaining
	m.mu.Unlock()

	for _, s := range due {
		close(s.ch)
	}
}

// Sleepers reports how many sleepers are currently suspended, letting
// tests synchronize with a goroutine about to be woken.
func (m *Manual) Sleepers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sleepers)
}

func (m *Manual) drop(target *sleeper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sleepers {
		if s == target {
			m.sleepers = append(m.sleepers[:i], m.sleepers[i+1:]...)
			return
		}
	}
}
