package rest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	refreshes *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examwatch",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API calls by operation and final HTTP status (\"error\" for transport failures).",
		}, []string{"op", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "examwatch",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API call latency including retries and token refresh.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examwatch",
			Subsystem: "api",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) observe(op, code string, d time.Duration) {
	m.requests.WithLabelValues(op, code).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
