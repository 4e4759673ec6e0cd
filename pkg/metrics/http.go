package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records per-route request counts and latencies.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests processed, by route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{
		requests: requests,
		duration: duration,
	}
}

// ObserveRequest records one completed request.
func (h *HTTPMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	h.requests.WithLabelValues(method, normalizeRoute(route), strconv.Itoa(status)).Inc()
	h.duration.WithLabelValues(method, normalizeRoute(route)).Observe(duration.Seconds())
}

func normalizeRoute(route string) string {
	if route == "" {
		return "unmatched"
	}
	return route
}

// StockMetrics tracks ledger mutations so dashboards can watch write volume
// and rejected updates without scraping logs.
type StockMetrics struct {
	applied  *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewStockMetrics registers the ledger metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_deltas_applied_total",
		Help: "Stock deltas applied to the ledger.",
	}, []string{"direction"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_deltas_rejected_total",
		Help: "Stock deltas rejected by the ledger.",
	}, []string{"reason"})
	reg.MustRegister(applied, rejected)
	return &StockMetrics{
		applied:  applied,
		rejected: rejected,
	}
}

// IncApplied counts one applied delta. Direction is "increase", "decrease"
// or "noop".
func (s *StockMetrics) IncApplied(direction string) {
	if s == nil || s.applied == nil {
		return
	}
	s.applied.WithLabelValues(normalizeLabel(direction)).Inc()
}

// IncRejected counts one rejected delta by reason.
func (s *StockMetrics) IncRejected(reason string) {
	if s == nil || s.rejected == nil {
		return
	}
	s.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
