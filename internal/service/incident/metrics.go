package incident

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch results recorded by Metrics.
const (
	resultOK    = "ok"
	resultError = "error"
	resultStale = "stale"
)

// Metrics counts list fetches by result.
type Metrics struct {
	fetches *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		fetches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "examwatch",
			Subsystem: "incidents",
			Name:      "fetches_total",
			Help:      "Incident list fetches by result; stale responses are discarded.",
		}, []string{"result"}),
	}
}

func (m *Metrics) fetched(result string) {
	m.fetches.WithLabelValues(result).Inc()
}
