package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vigilops/vigil/observe"
)

// WrapConfig configures Wrap.
type WrapConfig struct {
	// Operation labels the handler in logs and metrics.
	// Default: the request path at call time.
	Operation string

	// Timeout bounds handler execution. Default: 30 seconds
	Timeout time.Duration
}

// Wrap returns a handler that runs next with a deadline and structured
// failure logging. When the deadline fires before next finishes, the client
// receives 504 Gateway Timeout and the partial response is discarded; the
// handler goroutine keeps running in the background until it observes the
// cancelled request context.
func (c *Coordinator) Wrap(next http.Handler, config WrapConfig) http.Handler {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operation := config.Operation
		if operation == "" {
			operation = r.URL.Path
		}

		ctx, cancel := context.WithTimeout(r.Context(), config.Timeout)
		defer cancel()

		start := time.Now()
		bw := newBufferedWriter()
		done := make(chan struct{})

		go func() {
			next.ServeHTTP(bw, r.WithContext(ctx))
			close(done)
		}()

		select {
		case <-done:
			bw.copyTo(w)
			c.recordCall(ctx, operation, time.Since(start), nil)

		case <-ctx.Done():
			duration := time.Since(start)
			c.stats.recordCall(duration, ctx.Err(), true)
			c.metrics.RecordCall(ctx, operation, duration, ctx.Err())
			c.logger.Error(ctx, "request handler timed out",
				observe.F("operation", operation),
				observe.F("method", r.Method),
				observe.F("path", r.URL.Path),
				observe.F("timeout_ms", config.Timeout.Milliseconds()),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGatewayTimeout)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "request timed out",
			})
		}
	})
}

// bufferedWriter captures a handler's response so nothing reaches the client
// until the handler wins the race against the deadline.
type bufferedWriter struct {
	header http.Header
	code   int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{
		header: make(http.Header),
		code:   http.StatusOK,
	}
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(code int) {
	b.code = code
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedWriter) copyTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, vs := range b.header {
		dst[k] = vs
	}
	w.WriteHeader(b.code)
	w.Write(b.body.Bytes())
}
