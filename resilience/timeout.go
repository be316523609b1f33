package resilience

import (
	"context"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 30 seconds
	Timeout time.Duration

	// Message optionally describes the operation in the timeout error.
	Message string
}

// Timeout bounds the duration of operations by racing them against a
// context deadline.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a timeout wrapper, applying defaults for zero fields.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Timeout{config: config}
}

// Execute runs op with the configured deadline. The child context is
// cancelled when the deadline fires, so context-aware operations stop;
// an operation that ignores its context keeps running in the background
// and its eventual result is discarded.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return &TimeoutError{After: t.config.Timeout, Message: t.config.Message}
		}
		return ctx.Err()
	}
}

// Config returns the timeout configuration after defaulting.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run op with a one-off timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	return NewTimeout(TimeoutConfig{Timeout: timeout}).Execute(ctx, op)
}
