package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effkit-go/effkit/clockz"
	"github.com/effkit-go/effkit/effect"
	"github.com/effkit-go/effkit/result"
	"github.com/effkit-go/effkit/schedule"
)

// flaky fails the first n executions with a transient failure, then
// succeeds.
func flaky(n int, counter *atomic.Int32) effect.Effect[string] {
	return effect.Sync(func() result.Result[string] {
		attempt := counter.Add(1)
		if int(attempt) <= n {
			return result.Err[string](result.NewFailure(result.CodeTransient, "not yet"))
		}
		return result.Ok("finally")
	})
}

func TestRetry_SucceedsOnThirdAttempt(t *testing.T) {
	var runs atomic.Int32
	eff := schedule.Retry(flaky(2, &runs), schedule.Recurs(3))

	res := effect.Run(context.Background(), eff)
	require.True(t, res.IsOk())
	assert.Equal(t, "finally", res.Value())
	assert.Equal(t, int32(3), runs.Load(), "the underlying effect runs exactly 3 times")
}

func TestRetry_SurfacesLastFailureOnStop(t *testing.T) {
	var runs atomic.Int32
	eff := schedule.Retry(flaky(100, &runs), schedule.Recurs(2))

	res := effect.Run(context.Background(), eff)
	require.False(t, res.IsOk())
	assert.Equal(t, result.CodeTransient, res.Failure().Code())
	assert.Equal(t, int32(2), runs.Load(), "Recurs(2) permits 2 attempts")
}

func TestRetry_NonRetryableFailureStopsImmediately(t *testing.T) {
	var runs atomic.Int32
	eff := schedule.Retry(
		effect.Sync(func() result.Result[int] {
			runs.Add(1)
			return result.Err[int](result.NewFailure(result.CodeValidation, "bad input"))
		}),
		schedule.Recurs(5),
	)

	res := effect.Run(context.Background(), eff)
	require.False(t, res.IsOk())
	assert.Equal(t, result.CodeValidation, res.Failure().Code())
	assert.Equal(t, int32(1), runs.Load())
}

func TestRetry_SuspendsForScheduledDelay(t *testing.T) {
	clock := clockz.NewManual(time.Unix(0, 0))
	var runs atomic.Int32
	eff := schedule.Retry(
		flaky(1, &runs),
		schedule.Spaced(time.Minute),
		schedule.WithClock(clock),
	)

	done := make(chan result.Result[string], 1)
	go func() {
		done <- effect.Run(context.Background(), eff)
	}()

	require.Eventually(t, func() bool {
		return clock.Sleepers() == 1
	}, time.Second, time.Millisecond, "the retry must suspend on the clock")
	assert.Equal(t, int32(1), runs.Load())

	clock.Advance(time.Minute)
	res := <-done
	require.True(t, res.IsOk())
	assert.Equal(t, int32(2), runs.Load())
}

func TestRetry_CancelledDuringDelay(t *testing.T) {
	clock := clockz.NewManual(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	eff := schedule.Retry(
		flaky(100, &runs),
		schedule.Spaced(time.Hour),
		schedule.WithClock(clock),
	)

	done := make(chan result.Result[string], 1)
	go func() {
		done <- effect.Run(ctx, eff)
	}()

	require.Eventually(t, func() bool {
		return clock.Sleepers() == 1
	}, time.Second, time.Millisecond)
	cancel()

	res := <-done
	require.False(t, res.IsOk())
	assert.Equal(t, result.CodeCancelled, res.Failure().Code())
	assert.Equal(t, int32(1), runs.Load(), "no further attempt after cancellation")
}

func TestRepeat_RerunsWhileScheduleContinues(t *testing.T) {
	var runs atomic.Int32
	eff := schedule.Repeat(
		effect.Sync(func() result.Result[int] {
			return result.Ok(int(runs.Add(1)))
		}),
		schedule.Recurs(3),
	)

	res := effect.Run(context.Background(), eff)
	require.True(t, res.IsOk())
	assert.Equal(t, 3, res.Value(), "the last success surfaces")
	assert.Equal(t, int32(3), runs.Load())
}

func TestRepeat_FirstFailureSurfaces(t *testing.T) {
	var runs atomic.Int32
	eff := schedule.Repeat(
		effect.Sync(func() result.Result[int] {
			if runs.Add(1) == 2 {
				return result.Err[int](result.NewFailure(result.CodeTransient, "broke on repeat"))
			}
			return result.Ok(1)
		}),
		schedule.Recurs(10),
	)

	res := effect.Run(context.Background(), eff)
	require.False(t, res.IsOk())
	assert.Equal(t, result.CodeTransient, res.Failure().Code())
	assert.Equal(t, int32(2), runs.Load())
}
