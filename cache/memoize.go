package cache

import (
	"context"
	"time"
)

// MemoizerConfig configures a Memoizer.
type MemoizerConfig[A any] struct {
	// Name scopes the generated keys so distinct memoized functions with
	// identical arguments never collide. Default: "fn"
	Name string

	// KeyFunc derives the cache key from the call arguments.
	// Default: DefaultKeyer over the canonical JSON of the arguments.
	KeyFunc func(args A) (string, error)

	// TTL is the lifetime of memoized results. Zero falls back to the
	// store's DefaultTTL.
	TTL time.Duration

	// MaxSize bounds the number of memoized results. Default: 1000
	MaxSize int

	// SweepInterval enables a periodic sweep of expired results.
	SweepInterval time.Duration

	// OnHit and OnMiss observe cache effectiveness per derived key.
	OnHit  func(key string)
	OnMiss func(key string)
}

// Memoizer caches the results of a function keyed by its arguments. Results
// live until their TTL elapses or they are evicted by the size bound; errors
// are never cached.
type Memoizer[A, V any] struct {
	fn      func(ctx context.Context, args A) (V, error)
	keyFunc func(args A) (string, error)
	ttl     time.Duration
	store   *Store[V]
}

// NewMemoizer wraps fn with memoization. It fails fast with ErrNilFunc when
// fn is nil so misconfiguration surfaces at setup time, not at call time.
func NewMemoizer[A, V any](fn func(ctx context.Context, args A) (V, error), config MemoizerConfig[A]) (*Memoizer[A, V], error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	if config.Name == "" {
		config.Name = "fn"
	}
	if config.KeyFunc == nil {
		keyer := NewDefaultKeyer()
		name := config.Name
		config.KeyFunc = func(args A) (string, error) {
			return keyer.Key(name, args)
		}
	}

	store := NewStore[V](StoreConfig{
		MaxSize:       config.MaxSize,
		DefaultTTL:    config.TTL,
		SweepInterval: config.SweepInterval,
		OnHit:         config.OnHit,
		OnMiss:        config.OnMiss,
	})

	return &Memoizer[A, V]{
		fn:      fn,
		keyFunc: config.KeyFunc,
		ttl:     config.TTL,
		store:   store,
	}, nil
}

// Do returns the memoized result for args, invoking the wrapped function on
// a miss. Concurrent misses for the same arguments share one invocation.
// When key derivation fails the function is called directly, uncached.
func (m *Memoizer[A, V]) Do(ctx context.Context, args A) (V, error) {
	key, err := m.keyFunc(args)
	if err != nil {
		return m.fn(ctx, args)
	}

	return m.store.GetOrLoad(ctx, key, func(ctx context.Context) (V, error) {
		return m.fn(ctx, args)
	}, m.ttl)
}

// Invalidate drops the memoized result for args, if any.
func (m *Memoizer[A, V]) Invalidate(args A) {
	key, err := m.keyFunc(args)
	if err != nil {
		return
	}
	m.store.Delete(key)
}

// Stats returns the underlying store's counters.
func (m *Memoizer[A, V]) Stats() StoreStats {
	return m.store.Stats()
}

// Stop releases the background sweeper, if one was configured.
func (m *Memoizer[A, V]) Stop() {
	m.store.Stop()
}
