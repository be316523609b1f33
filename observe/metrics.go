package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records resilience events for export.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic and must return quickly.
type Metrics interface {
	// RecordCall records one protected call with its duration and outcome.
	RecordCall(ctx context.Context, op string, duration time.Duration, err error)

	// RecordRetry records a retried attempt for op.
	RecordRetry(ctx context.Context, op string)

	// RecordTrip records a circuit breaker opening.
	RecordTrip(ctx context.Context, name string)

	// RecordCacheLookup records a memoization lookup and whether it hit.
	RecordCacheLookup(ctx context.Context, op string, hit bool)
}

// metricsImpl is the OpenTelemetry-backed Metrics implementation.
type metricsImpl struct {
	callTotal    metric.Int64Counter
	callErrors   metric.Int64Counter
	durationHist metric.Float64Histogram
	retries      metric.Int64Counter
	trips        metric.Int64Counter
	cacheLookups metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	callTotal, err := meter.Int64Counter(
		"vigil.calls.total",
		metric.WithDescription("Total number of protected calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	callErrors, err := meter.Int64Counter(
		"vigil.calls.errors",
		metric.WithDescription("Total number of failed protected calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"vigil.call.duration_ms",
		metric.WithDescription("Protected call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter(
		"vigil.retries.total",
		metric.WithDescription("Total number of retried attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	trips, err := meter.Int64Counter(
		"vigil.circuit.trips.total",
		metric.WithDescription("Total number of circuit breaker trips"),
		metric.WithUnit("{trip}"),
	)
	if err != nil {
		return nil, err
	}

	cacheLookups, err := meter.Int64Counter(
		"vigil.cache.lookups.total",
		metric.WithDescription("Total number of memoization lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		callTotal:    callTotal,
		callErrors:   callErrors,
		durationHist: durationHist,
		retries:      retries,
		trips:        trips,
		cacheLookups: cacheLookups,
	}, nil
}

func (m *metricsImpl) RecordCall(ctx context.Context, op string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("operation", op))

	m.callTotal.Add(ctx, 1, opt)
	if err != nil {
		m.callErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordRetry(ctx context.Context, op string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func (m *metricsImpl) RecordTrip(ctx context.Context, name string) {
	m.trips.Add(ctx, 1, metric.WithAttributes(attribute.String("circuit", name)))
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, op string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("result", result),
	))
}

// NopMetrics is a Metrics implementation that records nothing.
type NopMetrics struct{}

func (NopMetrics) RecordCall(context.Context, string, time.Duration, error) {}
func (NopMetrics) RecordRetry(context.Context, string)                      {}
func (NopMetrics) RecordTrip(context.Context, string)                       {}
func (NopMetrics) RecordCacheLookup(context.Context, string, bool)          {}

var _ Metrics = NopMetrics{}
