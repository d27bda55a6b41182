package observability

import (
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/users", "GET", 200, 5*time.Millisecond)
	m.RecordRequest("/api/users", "GET", 200, 7*time.Millisecond)
	m.RecordRequest("/api/users", "POST", 201, 9*time.Millisecond)
	m.RecordError("/api/users", "POST", "VALIDATION_FAILED")

	if got := m.RequestTotal("/api/users", "GET", 200); got != 2 {
		t.Fatalf("expected 2 GET requests, got %d", got)
	}
	if got := m.RequestTotal("/api/users", "POST", 201); got != 1 {
		t.Fatalf("expected 1 POST request, got %d", got)
	}
	if got := m.ErrorTotal("/api/users", "POST", "VALIDATION_FAILED"); got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordError("/x", "GET", "INTERNAL_ERROR")
	if m.RequestTotal("/x", "GET", 200) != 0 || m.ErrorTotal("/x", "GET", "INTERNAL_ERROR") != 0 {
		t.Fatal("nil metrics must report zero")
	}
}
