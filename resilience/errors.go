package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is fast-failing.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when a key exhausts its window.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when an operation exceeds its allotted time.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// OpenStateError is returned by a circuit breaker that is rejecting calls.
// It carries the instant at which the next probe will be allowed so callers
// can schedule their own backoff.
type OpenStateError struct {
	// Name is the breaker's operation name.
	Name string

	// NextAttempt is when the breaker will allow a probe through.
	NextAttempt time.Time
}

func (e *OpenStateError) Error() string {
	return fmt.Sprintf("resilience: circuit %q is open until %s", e.Name, e.NextAttempt.Format(time.RFC3339))
}

// Is reports ErrCircuitOpen so errors.Is(err, ErrCircuitOpen) matches.
func (e *OpenStateError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// RateLimitError is returned when a key has no capacity left in its window.
type RateLimitError struct {
	// Key is the rate-limiting key that was rejected.
	Key string

	// WaitTime is how long the caller must wait before capacity frees up.
	WaitTime time.Duration

	// ResetAt is the instant the oldest window entry expires.
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("resilience: rate limit exceeded for %q, retry in %s", e.Key, e.WaitTime)
}

// Is reports ErrRateLimitExceeded so errors.Is matches the sentinel.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// TimeoutError is returned when an operation does not settle in time.
type TimeoutError struct {
	// After is the timeout that elapsed.
	After time.Duration

	// Message is an optional caller-supplied description.
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("resilience: %s (after %s)", e.Message, e.After)
	}
	return fmt.Sprintf("resilience: operation timed out after %s", e.After)
}

// Is reports ErrTimeout so errors.Is matches the sentinel.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
