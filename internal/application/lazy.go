package application

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// lazy is a memoized value resolved on first use. Concurrent callers share a
// single in-flight load; a failed load is not memoized. The load is detached
// from the caller that started it, and each caller stops waiting when its own
// context ends.
type lazy[T any] struct {
	load func(ctx context.Context) (T, error)

	mu       sync.Mutex
	resolved bool
	val      T
	group    singleflight.Group
}

func newLazy[T any](load func(ctx context.Context) (T, error)) *lazy[T] {
	return &lazy[T]{load: load}
}

func (l *lazy[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.peek(); ok {
		return v, nil
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan("load", func() (any, error) {
		if v, ok := l.peek(); ok {
			return v, nil
		}
		v, err := l.load(loadCtx)
		if err != nil {
			return v, err
		}
		l.mu.Lock()
		l.val, l.resolved = v, true
		l.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		t, _ := res.Val.(T)
		return t, nil
	}
}

func (l *lazy[T]) peek() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.val, l.resolved
}

// Invalidate drops the resolved value; the next Get loads again.
func (l *lazy[T]) Invalidate() {
	l.mu.Lock()
	var zero T
	l.val, l.resolved = zero, false
	l.mu.Unlock()
}
