// Package tap is the observation seam of the runtime: a non-mutating
// observer over outcomes, registered into the context. The core never
// logs on its own behalf; when no tap is registered, Emit is a no-op.
// Events with the same Scope are delivered in order to the same worker.
package tap

import (
	"context"

	"github.com/rickb777/date/v2/timespan"
	"go.uber.org/zap"

	"github.com/effkit-go/effkit/binding"
	"github.com/effkit-go/effkit/configkeys"
	"github.com/effkit-go/effkit/internal/dispatch"
)

// Event is one observation: which scope produced it, what happened, how
// long it took, and the failure if there was one.
type Event struct {
	Scope  string
	Op     string
	Err    error
	Span   timespan.TimeSpan
	Fields map[string]any
}

// PartitionKey scopes per-key ordering of event delivery.
func (e Event) PartitionKey() string {
	if e.Scope == "" {
		return "unpartitioned"
	}
	return e.Scope
}

type handlerKey struct{}

// With registers a tap handler in the context. observe runs on the
// dispatcher's worker goroutines and must treat events as read-only.
// The teardown function closes the handler and returns the parent
// context.
func With(
	ctx context.Context,
	config dispatch.Config,
	observe func(context.Context, Event),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := dispatch.New(ctx, config, observe, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, handlerKey{}, handler)
	return ctxWith, func() context.Context {
		handler.Close()
		return ctx
	}
}

// WithZap registers a tap that writes events to a zap logger. Dispatcher
// sizing is read from the binding scope under the configkeys tap keys,
// defaulting to a single worker with a single-slot buffer.
func WithZap(ctx context.Context, logger *zap.Logger) (context.Context, func() context.Context) {
	bufferSize, _ := binding.Lookup[int](ctx, configkeys.ConfigTapHandlerBufferSize)
	numWorkers, _ := binding.Lookup[int](ctx, configkeys.ConfigTapHandlerNumWorkers)

	return With(
		ctx,
		dispatch.NewConfig(bufferSize, numWorkers),
		func(_ context.Context, ev Event) {
			fields := make([]zap.Field, 0, len(ev.Fields)+3)
			fields = append(fields,
				zap.String("scope", ev.Scope),
				zap.Duration("span", ev.Span.Duration()),
			)
			for k, v := range ev.Fields {
				fields = append(fields, zap.Any(k, v))
			}
			if ev.Err != nil {
				fields = append(fields, zap.Error(ev.Err))
				logger.Warn(ev.Op, fields...)
				return
			}
			logger.Debug(ev.Op, fields...)
		},
		func() {
			if err := logger.Sync(); err != nil {
				logger.Warn("failed to sync logger", zap.Error(err))
			}
		},
	)
}

// Emit hands an event to the tap registered in ctx, if any. Without a
// handler it does nothing, so emitting is safe in every code path.
func Emit(ctx context.Context, ev Event) {
	handler, ok := ctx.Value(handlerKey{}).(*dispatch.Handler[Event])
	if !ok {
		return
	}
	handler.Dispatch(ctx, ev)
}

// normalizeTeardown flattens optional teardown functions into a single
// callable. Accepts either 0 or 1; more is a bug.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
