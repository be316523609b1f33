package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// MaxSize bounds the number of entries. When exceeded, the oldest
	// inserted entry is evicted. Default: 1000
	MaxSize int

	// DefaultTTL is the entry lifetime used when Set or GetOrLoad is
	// called with ttl <= 0. Zero means entries never expire.
	DefaultTTL time.Duration

	// MaxTTL caps every entry's TTL. Zero means no cap.
	MaxTTL time.Duration

	// SweepInterval enables a background sweep of expired entries at the
	// given period. Zero disables the sweeper; expiry is then checked
	// lazily on read only.
	SweepInterval time.Duration

	// OnHit is invoked when Get or GetOrLoad finds a live entry.
	OnHit func(key string)

	// OnMiss is invoked when a lookup finds no live entry.
	OnMiss func(key string)
}

type storeEntry[V any] struct {
	value     V
	createdAt time.Time
	ttl       time.Duration
}

func (e *storeEntry[V]) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) > e.ttl
}

// Store is a TTL- and size-bounded cache with insertion-order eviction and
// single-flight loading. It is safe for concurrent use.
type Store[V any] struct {
	config StoreConfig

	mu        sync.Mutex
	entries   map[string]*storeEntry[V]
	order     []string
	hits      uint64
	misses    uint64
	evictions uint64

	group    singleflight.Group
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store, applying defaults and starting the background
// sweeper when SweepInterval is set. Call Stop to release the sweeper.
func NewStore[V any](config StoreConfig) *Store[V] {
	if config.MaxSize <= 0 {
		config.MaxSize = 1000
	}

	s := &Store[V]{
		config:  config,
		entries: make(map[string]*storeEntry[V]),
		stop:    make(chan struct{}),
	}

	if config.SweepInterval > 0 {
		go s.sweepLoop(config.SweepInterval)
	}

	return s
}

// Get returns the live value for key. Expired entries are removed lazily and
// reported as misses.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && entry.expired(time.Now()) {
		s.removeLocked(key)
		ok = false
	}
	if !ok {
		s.misses++
		s.mu.Unlock()
		if s.config.OnMiss != nil {
			s.config.OnMiss(key)
		}
		var zero V
		return zero, false
	}
	s.hits++
	value := entry.value
	s.mu.Unlock()

	if s.config.OnHit != nil {
		s.config.OnHit(key)
	}
	return value, true
}

// Set stores value under key with the given TTL (clamped to MaxTTL,
// defaulted from DefaultTTL when ttl <= 0). Overwriting an existing key
// refreshes its value and creation time but keeps its insertion position.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = &storeEntry[V]{
		value:     value,
		createdAt: time.Now(),
		ttl:       s.effectiveTTL(ttl),
	}

	for len(s.entries) > s.config.MaxSize {
		oldest := s.order[0]
		s.removeLocked(oldest)
		s.evictions++
	}
	return nil
}

// Delete removes key. Idempotent - no error on miss.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
}

// GetOrLoad returns the live value for key, invoking loader on a miss and
// caching its result. Concurrent misses for the same key share a single
// loader invocation. Loader errors are returned and never cached.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(ctx context.Context) (V, error), ttl time.Duration) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Another flight may have populated the entry while this one
		// waited on the group lock.
		if v, ok := s.peek(key); ok {
			return v, nil
		}

		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Set(key, value, ttl); err != nil {
			return value, nil
		}
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// peek is Get without touching hit/miss counters or hooks.
func (s *Store[V]) peek(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Len returns the number of stored entries, including not-yet-swept expired ones.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns cumulative hit, miss, and eviction counts.
func (s *Store[V]) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreStats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Size:      len(s.entries),
	}
}

// Clear removes every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*storeEntry[V])
	s.order = nil
}

// Stop terminates the background sweeper. Safe to call more than once.
func (s *Store[V]) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store[V]) effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = s.config.DefaultTTL
	}
	if s.config.MaxTTL > 0 && (ttl <= 0 || ttl > s.config.MaxTTL) {
		ttl = s.config.MaxTTL
	}
	return ttl
}

func (s *Store[V]) removeLocked(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store[V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store[V]) sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if entry.expired(now) {
			s.removeLocked(key)
		}
	}
}

// StoreStats contains cumulative store counters.
type StoreStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}
