package coordinator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vigilops/vigil/resilience"
)

// HealthStatus represents the health of a protected component.
type HealthStatus int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy HealthStatus = iota
	// StatusDegraded indicates the component is recovering or under pressure.
	StatusDegraded
	// StatusUnhealthy indicates the component is failing.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s HealthStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string form.
func (s HealthStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ComponentHealth is the health of one registered component.
type ComponentHealth struct {
	Component string       `json:"component"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
}

// HealthReport aggregates component health into a worst-of overall status.
type HealthReport struct {
	Status     HealthStatus      `json:"status"`
	Components []ComponentHealth `json:"components"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Health reports the state of every registered circuit breaker: open
// breakers are unhealthy, half-open breakers degraded. A coordinator with
// no registrations is healthy.
func (c *Coordinator) Health() HealthReport {
	c.mu.Lock()
	breakers := make([]*resilience.CircuitBreaker, 0, len(c.breakers))
	for _, cb := range c.breakers {
		breakers = append(breakers, cb)
	}
	c.mu.Unlock()

	report := HealthReport{
		Status:    StatusHealthy,
		CheckedAt: time.Now(),
	}

	for _, cb := range breakers {
		m := cb.Metrics()
		ch := ComponentHealth{Component: "circuit:" + m.Name}

		switch m.State {
		case resilience.StateOpen:
			ch.Status = StatusUnhealthy
			ch.Message = fmt.Sprintf("open until %s", m.NextAttempt.Format(time.RFC3339))
		case resilience.StateHalfOpen:
			ch.Status = StatusDegraded
			ch.Message = "probing for recovery"
		default:
			ch.Status = StatusHealthy
		}

		if ch.Status > report.Status {
			report.Status = ch.Status
		}
		report.Components = append(report.Components, ch)
	}

	return report
}

// HealthHandler serves the health report as JSON. Unhealthy reports are
// served with 503 Service Unavailable so load balancers can act on them.
func (c *Coordinator) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := c.Health()

		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	})
}
