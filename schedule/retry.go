package schedule

import (
	"context"

	"github.com/effkit-go/effkit/clockz"
	"github.com/effkit-go/effkit/effect"
	"github.com/effkit-go/effkit/result"
	"github.com/effkit-go/effkit/tap"
)

// Option configures the Retry/Repeat drivers.
type Option func(*options)

type options struct {
	clock clockz.Clock
}

// WithClock substitutes the clock used for delays and elapsed tracking.
func WithClock(c clockz.Clock) Option {
	return func(o *options) { o.clock = c }
}

func newOptions(opts []Option) options {
	o := options{clock: clockz.System()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Retry describes re-execution of eff on retryable failure. After each
// failed attempt the schedule is consulted; on Continue the task
// suspends for the proposed delay and runs eff again, on Stop the last
// failure surfaces. Non-retryable failures (validation, rejection,
// cancellation, configuration) surface immediately, as does cancellation
// observed during the delay.
func Retry[T any](eff effect.Effect[T], s Schedule, opts ...Option) effect.Effect[T] {
	o := newOptions(opts)
	return effect.Async(func(ctx context.Context) result.Result[T] {
		start := o.clock.Now()
		for attempt := 1; ; attempt++ {
			res := effect.Run(ctx, eff)
			if res.IsOk() {
				return res
			}
			failure := res.Failure()
			if !failure.Retryable() {
				return res
			}

			decision := s(attempt, o.clock.Now().Sub(start))
			tap.Emit(ctx, tap.Event{
				Scope: "schedule",
				Op:    "retry.attempt",
				Err:   failure,
				Span:  clockz.Span(o.clock),
				Fields: map[string]any{
					"attempt":  attempt,
					"continue": decision.Continue,
					"delay":    decision.Delay,
				},
			})
			if !decision.Continue {
				return res
			}
			if err := o.clock.Sleep(ctx, decision.Delay); err != nil {
				return result.ErrOf[T](err)
			}
		}
	})
}

// Repeat is the success-path dual of Retry: eff re-runs while it keeps
// succeeding and the schedule keeps continuing. The last success
// surfaces when the schedule stops; the first failure surfaces
// immediately.
func Repeat[T any](eff effect.Effect[T], s Schedule, opts ...Option) effect.Effect[T] {
	o := newOptions(opts)
	return effect.Async(func(ctx context.Context) result.Result[T] {
		start := o.clock.Now()
		for attempt := 1; ; attempt++ {
			res := effect.Run(ctx, eff)
			if !res.IsOk() {
				return res
			}

			decision := s(attempt, o.clock.Now().Sub(start))
			tap.Emit(ctx, tap.Event{
				Scope: "schedule",
				Op:    "repeat.attempt",
				Span:  clockz.Span(o.clock),
				Fields: map[string]any{
					"attempt":  attempt,
					"continue": decision.Continue,
					"delay":    decision.Delay,
				},
			})
			if !decision.Continue {
				return res
			}
			if err := o.clock.Sleep(ctx, decision.Delay); err != nil {
				return result.ErrOf[T](err)
			}
		}
	})
}
