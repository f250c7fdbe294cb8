package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestObserveRequestRecordsSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("/doctors", "GET", 200, 0.12)
	m.ObserveRequest("/doctors", "GET", 502, 0.4)
	m.ObserveRequest("/cart", "POST", 201, 0.05)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := map[string]bool{}
	for _, mf := range mfs {
		byName[mf.GetName()] = true
	}
	if !byName["mediwrap_http_requests_total"] || !byName["mediwrap_http_request_duration_seconds"] {
		t.Fatalf("expected request metric families, got %v", byName)
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 201: "2xx", 404: "4xx", 502: "5xx", 99: "unknown", 700: "unknown"}
	for status, want := range cases {
		if got := statusClass(status); got != want {
			t.Fatalf("statusClass(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var h *HTTPMetrics
	var s *StoreMetrics
	h.ObserveRequest("/doctors", "GET", 200, 0.1)
	s.ObserveBooking("confirmed")
	s.ObserveNotification("info")
}
