package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLazy_SharesInflightLoad(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	l := newLazy(func(context.Context) (int, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return 7, nil
	})

	got := make([]int, 8)
	var wg sync.WaitGroup
	for i := range got {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = l.Get(context.Background())
		}()
	}
	wg.Wait()
	for _, v := range got {
		require.Equal(t, 7, v)
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestLazy_FailureNotMemoized(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	l := newLazy(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	_, err := l.Get(context.Background())
	require.Error(t, err)

	v, err := l.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", v)

	l.Invalidate()
	_, err = l.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestLazy_CancelledWaiterDoesNotFailOthers(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	l := newLazy(func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(started)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-release:
			return 42, nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.Get(ctx)
		firstErr <- err
	}()
	<-started

	second := make(chan int, 1)
	go func() {
		v, _ := l.Get(context.Background())
		second <- v
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	require.Equal(t, 42, <-second)
	require.Equal(t, int32(1), calls.Load())
}
