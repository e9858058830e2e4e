package tap

import (
	"context"
	"sync"

	"github.com/effkit-go/effkit/internal/dispatch"
)

// Recorder collects emitted events for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) observe(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// WithRecorder registers a recording tap, the test-side counterpart of
// WithZap.
func WithRecorder(ctx context.Context) (context.Context, *Recorder, func() context.Context) {
	rec := &Recorder{}
	ctxWith, teardown := With(ctx, dispatch.NewConfig(16, 1), rec.observe)
	return ctxWith, rec, teardown
}
