package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is fast-failing all requests.
	StateOpen
	// StateHalfOpen means the circuit is probing whether the dependency recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// FailureRecord captures the most recent failure seen by a breaker.
type FailureRecord struct {
	Message   string
	Timestamp time.Time
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the protected operation in errors and metrics.
	Name string

	// Threshold is the failure count at which the circuit opens.
	// Default: 5
	Threshold int

	// ResetTimeout is how long the circuit stays open before allowing
	// a probe. Default: 30 seconds
	ResetTimeout time.Duration

	// Fallback, when set, is invoked instead of returning an open-circuit
	// error while the breaker is rejecting calls. It receives the
	// rejection error and its result is returned to the caller.
	Fallback func(ctx context.Context, err error) error

	// OnStateChange is called whenever the circuit transitions.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether an error counts against the threshold.
	// Default: every non-nil error is a failure.
	IsFailure func(err error) bool
}

// CircuitBreaker tracks consecutive failures of a named operation and
// fast-fails while the operation is considered unhealthy.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   uint64
	totalCalls  uint64
	lastFailure *FailureRecord
	nextAttempt time.Time
	probes      int
}

// NewCircuitBreaker creates a circuit breaker, applying defaults for zero fields.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold <= 0 {
		config.Threshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs op through the circuit breaker. While the circuit is open the
// operation is never invoked: the configured Fallback result is returned if
// present, otherwise an *OpenStateError.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		if cb.config.Fallback != nil {
			return cb.config.Fallback(ctx, err)
		}
		return err
	}

	err := op(ctx)
	cb.afterRequest(err)
	return err
}

// State returns the current circuit state, applying the open-to-half-open
// transition if the reset timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Name returns the breaker's configured name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Reset forces the breaker back to closed with a clean failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0

	cb.notifyLocked(oldState, StateClosed)
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return &OpenStateError{Name: cb.config.Name, NextAttempt: cb.nextAttempt}
	case StateHalfOpen:
		// Exactly one probe is allowed through.
		if cb.probes >= 1 {
			return &OpenStateError{Name: cb.config.Name, NextAttempt: cb.nextAttempt}
		}
		cb.probes++
	}

	cb.totalCalls++
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state

	if cb.config.IsFailure(err) {
		cb.failures++
		cb.lastFailure = &FailureRecord{Message: err.Error(), Timestamp: time.Now()}
		if cb.failures >= cb.config.Threshold {
			cb.state = StateOpen
			cb.nextAttempt = time.Now().Add(cb.config.ResetTimeout)
		}
	} else {
		cb.successes++
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.state = StateClosed
		}
	}

	cb.notifyLocked(oldState, cb.state)
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && !time.Now().Before(cb.nextAttempt) {
		cb.state = StateHalfOpen
		cb.probes = 0
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(cb.config.Name, StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

func (cb *CircuitBreaker) notifyLocked(from, to State) {
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// Metrics returns a snapshot of the breaker's counters and state.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	m := CircuitBreakerMetrics{
		Name:        cb.config.Name,
		State:       cb.currentStateLocked(),
		Failures:    cb.failures,
		Successes:   cb.successes,
		TotalCalls:  cb.totalCalls,
		NextAttempt: cb.nextAttempt,
	}
	if cb.lastFailure != nil {
		f := *cb.lastFailure
		m.LastFailure = &f
	}
	return m
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	Name        string
	State       State
	Failures    int
	Successes   uint64
	TotalCalls  uint64
	LastFailure *FailureRecord
	NextAttempt time.Time
}
