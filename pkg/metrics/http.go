package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latencies for the API surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Requests served, labeled by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Requests currently being handled.",
	})
	reg.MustRegister(requests, duration, inFlight)
	return &HTTPMetrics{
		requests: requests,
		duration: duration,
		inFlight: inFlight,
	}
}

// ObserveRequest records one completed request.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncInFlight marks a request as started.
func (m *HTTPMetrics) IncInFlight() {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Inc()
}

// DecInFlight marks a request as finished.
func (m *HTTPMetrics) DecInFlight() {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Dec()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
