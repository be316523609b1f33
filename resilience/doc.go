// Package resilience provides failure-handling primitives for fallible,
// latency-bearing operations.
//
// The package implements four patterns that can be used independently or
// composed through the coordinator package:
//
//   - Retry: re-attempts failed operations with configurable backoff
//     (exponential, linear, constant) and an attempt-aware retry condition.
//
//   - Circuit Breaker: tracks consecutive failures per operation and
//     fast-fails while a failing dependency recovers, allowing a single
//     probe after the reset timeout.
//
//   - Rate Limiter: bounds the number of calls per key inside a trailing
//     sliding window, reporting how long a rejected caller must wait.
//
//   - Timeout: bounds the duration of a single operation by racing it
//     against a context deadline.
//
// All primitives accept operations of the form func(context.Context) error
// and are safe for concurrent use. Cancellation is cooperative: an operation
// that ignores its context may keep running after a timeout fires, but its
// result is discarded.
//
// # Usage
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts: 4,
//	    BaseDelay:   100 * time.Millisecond,
//	    Multiplier:  2.0,
//	})
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    Name:         "payments",
//	    Threshold:    3,
//	    ResetTimeout: 30 * time.Second,
//	})
//
//	err := cb.Execute(ctx, func(ctx context.Context) error {
//	    return retry.Execute(ctx, callDependency)
//	})
package resilience
