// Package coordinator composes the resilience primitives into a single
// façade for protecting fallible, latency-bearing operations.
//
// A Coordinator owns per-name registries of circuit breakers and rate
// limiters, aggregates call metrics into a resettable snapshot, and exposes
// the composed execution chain: timeout, then circuit breaker, then rate
// limiter, then retry, then the underlying operation.
//
//	c := coordinator.New(
//	    coordinator.WithLogger(observe.NewLogger("info")),
//	)
//
//	err := c.Execute(ctx, coordinator.ExecuteConfig{
//	    Operation: "fetch-users",
//	    Timeout:   2 * time.Second,
//	    Retry:     &resilience.RetryConfig{MaxAttempts: 3},
//	    Breaker:   &resilience.CircuitBreakerConfig{Threshold: 5},
//	}, fetchUsers)
//
// Registries are instance-owned: independent coordinators never share
// breaker or limiter state.
package coordinator
