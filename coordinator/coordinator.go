package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/vigilops/vigil/cache"
	"github.com/vigilops/vigil/lock"
	"github.com/vigilops/vigil/observe"
	"github.com/vigilops/vigil/queue"
	"github.com/vigilops/vigil/resilience"
)

// Operation is a fallible, context-aware unit of work.
type Operation func(ctx context.Context) error

// Coordinator composes timeout, circuit breaking, rate limiting, and retry
// around caller-supplied operations, and aggregates metrics across them.
// Create one with New; the zero value is not usable.
type Coordinator struct {
	logger  observe.Logger
	metrics observe.Metrics
	stats   *statsTracker

	// mu guards the registries. State is shared by all callers using the
	// same name, so access must be serialized.
	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
	limiters map[string]*resilience.KeyedLimiter
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for failure records.
func WithLogger(l observe.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder for protected calls.
func WithMetrics(m observe.Metrics) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithMeter builds an OpenTelemetry-backed recorder from meter. If the
// instruments cannot be created the coordinator keeps its no-op recorder.
func WithMeter(meter metric.Meter) Option {
	return func(c *Coordinator) {
		if m, err := observe.NewMetrics(meter); err == nil {
			c.metrics = m
		}
	}
}

// New creates a Coordinator with no-op logging and metrics unless configured.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:   observe.NopLogger{},
		metrics:  observe.NopMetrics{},
		stats:    &statsTracker{},
		breakers: make(map[string]*resilience.CircuitBreaker),
		limiters: make(map[string]*resilience.KeyedLimiter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout runs op with the given deadline, failing with a timeout error
// if op does not settle in time.
func (c *Coordinator) WithTimeout(ctx context.Context, timeout time.Duration, op Operation) error {
	return resilience.NewTimeout(resilience.TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}

// WithRetry runs op under the given retry policy. Every retried attempt is
// counted in the coordinator's metrics.
func (c *Coordinator) WithRetry(ctx context.Context, config resilience.RetryConfig, op Operation) error {
	return c.retryFor(ctx, "", config).Execute(ctx, op)
}

// retryFor builds a Retry whose OnRetry hook feeds the metrics before
// chaining to any caller-supplied hook.
func (c *Coordinator) retryFor(ctx context.Context, operation string, config resilience.RetryConfig) *resilience.Retry {
	userHook := config.OnRetry
	config.OnRetry = func(err error, attempt int, delay time.Duration) {
		c.stats.recordRetry()
		c.metrics.RecordRetry(ctx, operation)
		c.logger.Warn(ctx, "retrying operation",
			observe.F("operation", operation),
			observe.F("attempt", attempt),
			observe.F("delay_ms", delay.Milliseconds()),
			observe.F("error", err.Error()),
		)
		if userHook != nil {
			userHook(err, attempt, delay)
		}
	}
	return resilience.NewRetry(config)
}

// CircuitBreaker returns the breaker registered under name, creating it on
// first use. The config of the first caller wins; later calls with the same
// name share the existing breaker and their config is ignored. Trips are
// counted in the coordinator's metrics.
func (c *Coordinator) CircuitBreaker(name string, config resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[name]; ok {
		return cb
	}

	config.Name = name
	userHook := config.OnStateChange
	config.OnStateChange = func(name string, from, to resilience.State) {
		if to == resilience.StateOpen {
			c.stats.recordTrip()
			c.metrics.RecordTrip(context.Background(), name)
			c.logger.Error(context.Background(), "circuit breaker opened",
				observe.F("circuit", name),
				observe.F("from", from.String()),
			)
		}
		if userHook != nil {
			userHook(name, from, to)
		}
	}

	cb := resilience.NewCircuitBreaker(config)
	c.breakers[name] = cb
	return cb
}

// RateLimiter returns the sliding-window limiter registered under name,
// creating it on first use. The config of the first caller wins.
func (c *Coordinator) RateLimiter(name string, config resilience.KeyedLimiterConfig) *resilience.KeyedLimiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[name]; ok {
		return l
	}

	l := resilience.NewKeyedLimiter(config)
	c.limiters[name] = l
	return l
}

// NewMutex creates an independent FIFO mutex.
func (c *Coordinator) NewMutex() *lock.Mutex {
	return lock.NewMutex()
}

// NewSemaphore creates an independent FIFO semaphore with the given permits.
func (c *Coordinator) NewSemaphore(permits int) *lock.Semaphore {
	return lock.NewSemaphore(permits)
}

// ExecuteConfig selects which protections apply to a call. Nil pattern
// configs are skipped entirely.
type ExecuteConfig struct {
	// Operation names the call in logs, metrics, and registry lookups.
	Operation string

	// Timeout bounds the whole protected call. Zero disables it.
	Timeout time.Duration

	// TimeoutMessage annotates the timeout error.
	TimeoutMessage string

	// Breaker protects the call with the named circuit breaker.
	Breaker *resilience.CircuitBreakerConfig

	// RateLimit applies the named sliding-window limiter.
	RateLimit *resilience.KeyedLimiterConfig

	// RateKey is the limiter key for this call. Default: Operation.
	RateKey string

	// Retry re-attempts the underlying operation on failure.
	Retry *resilience.RetryConfig
}

// Execute runs op through the configured protection chain: timeout
// outermost, then circuit breaker, then rate limiter, then retry, then op.
// Rate-limit and open-circuit rejections are raised before op runs and are
// never conflated with op's own errors. Every call is recorded in the
// coordinator's metrics.
func (c *Coordinator) Execute(ctx context.Context, config ExecuteConfig, op Operation) error {
	start := time.Now()
	err := c.buildChain(ctx, config, op)(ctx)
	c.recordCall(ctx, config.Operation, time.Since(start), err)
	return err
}

// Protect returns op wrapped in the configured protection chain as a
// reusable operation. Breaker and limiter state persists across calls.
func (c *Coordinator) Protect(config ExecuteConfig, op Operation) Operation {
	return func(ctx context.Context) error {
		return c.Execute(ctx, config, op)
	}
}

func (c *Coordinator) buildChain(ctx context.Context, config ExecuteConfig, op Operation) Operation {
	execute := op

	if config.Retry != nil {
		r := c.retryFor(ctx, config.Operation, *config.Retry)
		inner := execute
		execute = func(ctx context.Context) error {
			return r.Execute(ctx, inner)
		}
	}

	if config.RateLimit != nil {
		l := c.RateLimiter(config.Operation, *config.RateLimit)
		key := config.RateKey
		if key == "" {
			key = config.Operation
		}
		inner := execute
		execute = func(ctx context.Context) error {
			return l.Execute(ctx, key, inner)
		}
	}

	if config.Breaker != nil {
		cb := c.CircuitBreaker(config.Operation, *config.Breaker)
		inner := execute
		execute = func(ctx context.Context) error {
			return cb.Execute(ctx, inner)
		}
	}

	if config.Timeout > 0 {
		t := resilience.NewTimeout(resilience.TimeoutConfig{
			Timeout: config.Timeout,
			Message: config.TimeoutMessage,
		})
		inner := execute
		execute = func(ctx context.Context) error {
			return t.Execute(ctx, inner)
		}
	}

	return execute
}

func (c *Coordinator) recordCall(ctx context.Context, operation string, duration time.Duration, err error) {
	c.stats.recordCall(duration, err, errors.Is(err, resilience.ErrTimeout))
	c.metrics.RecordCall(ctx, operation, duration, err)

	if err != nil {
		c.logger.Error(ctx, "protected call failed",
			observe.F("operation", operation),
			observe.F("duration_ms", duration.Milliseconds()),
			observe.F("error", err.Error()),
		)
	} else {
		c.logger.Debug(ctx, "protected call succeeded",
			observe.F("operation", operation),
			observe.F("duration_ms", duration.Milliseconds()),
		)
	}
}

// Metrics returns the coordinator's aggregate counters.
func (c *Coordinator) Metrics() Snapshot {
	return c.stats.snapshot()
}

// ResetMetrics zeroes the aggregate counters. Per-breaker and per-limiter
// state is unaffected.
func (c *Coordinator) ResetMetrics() {
	c.stats.reset()
}

// Memoize wraps fn with argument-keyed caching whose hits and misses feed
// the coordinator's metrics. It fails fast when fn is nil.
func Memoize[A, V any](c *Coordinator, fn func(ctx context.Context, args A) (V, error), config cache.MemoizerConfig[A]) (*cache.Memoizer[A, V], error) {
	operation := config.Name

	userHit := config.OnHit
	config.OnHit = func(key string) {
		c.stats.recordCacheHit()
		c.metrics.RecordCacheLookup(context.Background(), operation, true)
		if userHit != nil {
			userHit(key)
		}
	}
	userMiss := config.OnMiss
	config.OnMiss = func(key string) {
		c.stats.recordCacheMiss()
		c.metrics.RecordCacheLookup(context.Background(), operation, false)
		if userMiss != nil {
			userMiss(key)
		}
	}

	return cache.NewMemoizer(fn, config)
}

// NewQueue creates a bounded priority queue. Queues are independent of the
// coordinator's registries; the function exists so callers of the façade
// need only this package.
func NewQueue[T any](concurrency int) *queue.Queue[T] {
	return queue.New[T](concurrency)
}
