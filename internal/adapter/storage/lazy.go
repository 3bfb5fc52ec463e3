package storage

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// lazy holds a handle that is built on first use. Concurrent first callers
// share one init call; a failed init is retried by the next caller.
type lazy[T any] struct {
	init  func(ctx context.Context) (T, error)
	group singleflight.Group

	mu    sync.RWMutex
	val   T
	ready bool
}

func newLazy[T any](init func(ctx context.Context) (T, error)) *lazy[T] {
	return &lazy[T]{init: init}
}

func (l *lazy[T]) get(ctx context.Context) (T, error) {
	if v, ok := l.loaded(); ok {
		return v, nil
	}

	v, err, _ := l.group.Do("init", func() (any, error) {
		if v, ok := l.loaded(); ok {
			return v, nil
		}
		// The handle outlives the request that happened to build it.
		v, err := l.init(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.val, l.ready = v, true
		l.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *lazy[T]) loaded() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.val, l.ready
}
