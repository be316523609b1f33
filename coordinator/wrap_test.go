package coordinator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWrap_PassThrough(t *testing.T) {
	c := New()

	handler := c.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "yes")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}), WrapConfig{Operation: "create"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/things", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if got := rec.Body.String(); got != "created" {
		t.Errorf("body = %q, want %q", got, "created")
	}
	if rec.Header().Get("X-Custom") != "yes" {
		t.Error("custom header not propagated")
	}
}

func TestWrap_DefaultStatus(t *testing.T) {
	c := New()

	handler := c.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}), WrapConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestWrap_Timeout(t *testing.T) {
	c := New()
	c.ResetMetrics()

	handler := c.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("too late"))
	}), WrapConfig{Operation: "slow", Timeout: 20 * time.Millisecond})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("timeout body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("timeout body missing error field")
	}

	if m := c.Metrics(); m.Timeouts != 1 {
		t.Errorf("Timeouts = %d, want 1", m.Timeouts)
	}
}

func TestWrap_RecordsMetrics(t *testing.T) {
	c := New()
	c.ResetMetrics()

	handler := c.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WrapConfig{Operation: "ok"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	m := c.Metrics()
	if m.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", m.TotalRequests)
	}
	if m.SuccessfulRequests != 1 {
		t.Errorf("SuccessfulRequests = %d, want 1", m.SuccessfulRequests)
	}
}
