// AngelaMos | 2026
// latest.go

package client

import (
	"context"
	"sync"
)

// Latest runs keyed fetches where only the most recent request may land.
// Older requests are not cancelled; their responses are dropped on arrival
// with ErrSuperseded.
type Latest[K comparable, V any] struct {
	fetch func(ctx context.Context, key K) (V, error)

	mu    sync.Mutex
	gen   uint64
	key   K
	value V
	ok    bool
}

func NewLatest[K comparable, V any](fetch func(ctx context.Context, key K) (V, error)) *Latest[K, V] {
	return &Latest[K, V]{fetch: fetch}
}

func (l *Latest[K, V]) Fetch(ctx context.Context, key K) (V, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	value, err := l.fetch(ctx, key)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		var zero V
		return zero, ErrSuperseded
	}
	if err != nil {
		var zero V
		return zero, err
	}

	l.key = key
	l.value = value
	l.ok = true
	return value, nil
}

// Current returns the last applied response and the key it was fetched for.
func (l *Latest[K, V]) Current() (K, V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key, l.value, l.ok
}
