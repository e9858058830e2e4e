package channel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effkit-go/effkit/channel"
	"github.com/effkit-go/effkit/result"
)

func TestChannel_RejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := channel.New[int](capacity)
		require.Error(t, err)
		var f *result.Failure
		require.True(t, errors.As(err, &f))
		assert.Equal(t, result.CodeConfiguration, f.Code())
	}
}

func TestChannel_SendReceiveUnderCapacity(t *testing.T) {
	ctx := context.Background()
	ch, err := channel.New[string](4)
	require.NoError(t, err)

	require.NoError(t, ch.Send(ctx, "a"))
	require.NoError(t, ch.Send(ctx, "b"))
	assert.Equal(t, 2, ch.Len())

	got, err := ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	assert.Equal(t, 0, ch.Len())
}

func TestChannel_WaitModeSuspendsSenderUntilSpaceFrees(t *testing.T) {
	ctx := context.Background()
	ch, err := channel.New[int](1)
	require.NoError(t, err)

	require.NoError(t, ch.Send(ctx, 1))

	sent := make(chan error, 1)
	go func() {
		sent <- ch.Send(ctx, 2)
	}()

	select {
	case <-sent:
		t.Fatal("send at capacity must suspend under Wait")
	case <-time.After(50 * time.Millisecond):
	}

	got, err := ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	require.NoError(t, <-sent)
	got, err = ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestChannel_ReceiveSuspendsWhileEmptyAndOpen(t *testing.T) {
	ctx := context.Background()
	ch, err := channel.New[int](1)
	require.NoError(t, err)

	type recv struct {
		v   int
		err error
	}
	got := make(chan recv, 1)
	go func() {
		v, err := ch.Receive(ctx)
		got <- recv{v, err}
	}()

	select {
	case <-got:
		t.Fatal("receive on empty open channel must suspend")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, ch.Send(ctx, 9))
	r := <-got
	require.NoError(t, r.err)
	assert.Equal(t, 9, r.v)
}

func TestChannel_DropOldestKeepsNewest(t *testing.T) {
	ctx := context.Background()
	ch, err := channel.New[string](1, channel.WithFullMode(channel.DropOldest))
	require.NoError(t, err)

	require.NoError(t, ch.Send(ctx, "A"))
	require.NoError(t, ch.Send(ctx, "B"))

	got, err := ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", got)
}

func TestChannel_DropWriteAndDropNewestKeepOldest(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []channel.FullMode{channel.DropWrite, channel.DropNewest} {
		ch, err := channel.New[string](1, channel.WithFullMode(mode))
		require.NoError(t, err)

		require.NoError(t, ch.Send(ctx, "A"))
		// reported as success, silently discarded
		require.NoError(t, ch.Send(ctx, "B"))

		got, err := ch.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, "A", got)
	}
}

func TestChannel_BufferedCountNeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	const capacity = 8
	ch, err := channel.New[int](capacity)
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	samplerDone := make(chan struct{})

	// samplers watch the invariant while senders and receivers race
	go func() {
		defer close(samplerDone)
		for {
			select {
			case <-stop:
				return
			default:
				if n := ch.Len(); n > capacity {
					t.Errorf("buffered count %d exceeds capacity %d", n, capacity)
					return
				}
			}
		}
	}()

	const (
		senders  = 4
		perSend  = 200
		receives = senders * perSend
	)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSend; j++ {
				if err := ch.Send(ctx, j); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < receives; i++ {
			if _, err := ch.Receive(ctx); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-samplerDone
	assert.Equal(t, 0, ch.Len())
}

func TestChannel_CompleteDrainsThenReportsEndOfStream(t *testing.T) {
	ctx := context.Background()
	ch, err := channel.New[int](4)
	require.NoError(t, err)

	require.NoError(t, ch.Send(ctx, 1))
	require.NoError(t, ch.Send(ctx, 2))
	ch.Complete()

	got, err := ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = ch.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	_, err = ch.Receive(ctx)
	assert.ErrorIs(t, err, channel.ErrClosed)

	assert.ErrorIs(t, ch.Send(ctx, 3), channel.ErrSendOnCompleted)
}

func TestChannel_CompleteWithErrorDiscardsAndPropagates(t *testing.T) {
	ctx := context.Background()
	ch, err := channel.New[int](4)
	require.NoError(t, err)

	require.NoError(t, ch.Send(ctx, 1))

	// a receiver already suspended must observe the failure too
	observed := make(chan error, 1)
	drained := make(chan struct{})
	go func() {
		// drain the pending item first so the goroutine suspends
		_, _ = ch.Receive(ctx)
		close(drained)
		_, err := ch.Receive(ctx)
		observed <- err
	}()
	<-drained
	time.Sleep(20 * time.Millisecond)

	stageErr := result.NewFailure(result.CodeTransient, "upstream exploded")
	ch.CompleteWithError(stageErr)

	var f *result.Failure
	require.True(t, errors.As(<-observed, &f))
	assert.Equal(t, result.CodeTransient, f.Code())

	// future receives observe the same failure, items are gone
	assert.Equal(t, 0, ch.Len())
	_, err = ch.Receive(ctx)
	require.True(t, errors.As(err, &f))
	assert.Equal(t, result.CodeTransient, f.Code())
}

func TestChannel_SendHonorsCancellation(t *testing.T) {
	ch, err := channel.New[int](1)
	require.NoError(t, err)
	require.NoError(t, ch.Send(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- ch.Send(ctx, 2)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	sendErr := <-errCh
	var f *result.Failure
	require.True(t, errors.As(sendErr, &f))
	assert.Equal(t, result.CodeCancelled, f.Code())

	// the channel stays usable for other parties
	got, err := ch.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestChannel_CompleteIsIdempotent(t *testing.T) {
	ch, err := channel.New[int](1)
	require.NoError(t, err)
	ch.Complete()
	ch.Complete()
	ch.CompleteWithError(assert.AnError)

	_, recvErr := ch.Receive(context.Background())
	assert.ErrorIs(t, recvErr, channel.ErrClosed, "completion outcome is fixed by the first call")
}
