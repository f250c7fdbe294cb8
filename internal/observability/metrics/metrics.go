package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics exposes counters/histograms for the API surface. The
// request duration histogram feeds the admin dashboard latency snapshot.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediwrap",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served",
		}, []string{"route", "method", "status_class"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mediwrap",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status_class"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

func (m *HTTPMetrics) ObserveRequest(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	class := statusClass(status)
	m.requestsTotal.WithLabelValues(route, method, class).Inc()
	m.requestDuration.WithLabelValues(route, class).Observe(seconds)
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}

// StoreMetrics tracks the booking and notification flows.
type StoreMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediwrap",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total appointment booking attempts",
		}, []string{"status"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediwrap",
			Subsystem: "notify",
			Name:      "published_total",
			Help:      "Total notifications published to user streams",
		}, []string{"severity"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.notificationsTotal)
	return m
}

func (m *StoreMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *StoreMetrics) ObserveNotification(severity string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(severity).Inc()
}
