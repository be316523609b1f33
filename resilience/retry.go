package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays grow between retry attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases the delay linearly with the attempt number.
	BackoffLinear
	// BackoffConstant uses BaseDelay for every retry.
	BackoffConstant
)

// RetryConfig configures the retry executor.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	// Default: 100ms
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy selects the backoff curve.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% random variance to each delay.
	// Default: false (delays are exactly as computed)
	Jitter bool

	// RetryIf decides whether an error on the given attempt should be
	// retried. Returning false rethrows the error unchanged.
	// Default: every non-nil error is retried.
	RetryIf func(err error, attempt int) bool

	// OnRetry is invoked after a failed attempt that will be retried,
	// before the backoff sleep.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// Retry executes operations with bounded re-attempts and backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry executor, applying defaults for zero fields.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error, _ int) bool { return err != nil }
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds, the retry condition declines, attempts
// are exhausted, or the context is cancelled. Cancellation is observed at
// attempt boundaries and during backoff sleeps, never mid-attempt. The last
// attempt's error is returned unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		if !r.config.RetryIf(err, attempt) || attempt >= r.config.MaxAttempts {
			return err
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(err, attempt, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (r *Retry) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.BaseDelay

	case BackoffLinear:
		delay = r.config.BaseDelay * time.Duration(attempt)

	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.BaseDelay) * multiplier)
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter && delay > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	return delay
}

// Config returns the retry configuration after defaulting.
func (r *Retry) Config() RetryConfig {
	return r.config
}
