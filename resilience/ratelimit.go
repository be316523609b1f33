package resilience

import (
	"context"
	"sync"
	"time"
)

// KeyedLimiterConfig configures a sliding-window rate limiter.
type KeyedLimiterConfig struct {
	// MaxRequests is the number of calls allowed per key inside the window.
	// Default: 100
	MaxRequests int

	// Window is the trailing interval the limit applies to.
	// Default: 1 minute
	Window time.Duration
}

// KeyedLimiter bounds the number of calls per key within a trailing sliding
// window. Each key's window is independent; entries older than the window are
// pruned on every check, so memory grows only with active keys.
type KeyedLimiter struct {
	config KeyedLimiterConfig

	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewKeyedLimiter creates a keyed sliding-window limiter.
func NewKeyedLimiter(config KeyedLimiterConfig) *KeyedLimiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = 100
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return &KeyedLimiter{
		config:  config,
		windows: make(map[string][]time.Time),
	}
}

// Allow records a call for key if the key has capacity left. When the window
// is full it returns a *RateLimitError whose WaitTime is the delay until the
// oldest surviving entry leaves the window.
func (l *KeyedLimiter) Allow(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	window := l.pruneLocked(key, now)

	if len(window) >= l.config.MaxRequests {
		resetAt := window[0].Add(l.config.Window)
		return &RateLimitError{
			Key:      key,
			WaitTime: resetAt.Sub(now),
			ResetAt:  resetAt,
		}
	}

	l.windows[key] = append(window, now)
	return nil
}

// Execute runs op if key has capacity, recording the call. The rejection is
// raised before op is ever invoked.
func (l *KeyedLimiter) Execute(ctx context.Context, key string, op func(context.Context) error) error {
	if err := l.Allow(key); err != nil {
		return err
	}
	return op(ctx)
}

// Remaining returns how many calls key may still make in the current window.
func (l *KeyedLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.pruneLocked(key, time.Now())
	return l.config.MaxRequests - len(window)
}

// Reset forgets all recorded calls for key.
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// pruneLocked drops entries older than the window and returns the survivors.
// An emptied key is removed from the map entirely.
func (l *KeyedLimiter) pruneLocked(key string, now time.Time) []time.Time {
	window := l.windows[key]
	cutoff := now.Add(-l.config.Window)

	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		window = window[i:]
		if len(window) == 0 {
			delete(l.windows, key)
			return nil
		}
		l.windows[key] = window
	}
	return window
}

// Config returns the limiter configuration after defaulting.
func (l *KeyedLimiter) Config() KeyedLimiterConfig {
	return l.config
}
