package agent

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the agent's collectors. They live on their own registry so
// the receiver's /metrics never carries agent series.
type Metrics struct {
	registry    *prometheus.Registry
	SamplesSent *prometheus.CounterVec
}

// NewMetrics registers the agent collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SamplesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitord_samples_sent_total",
				Help: "Total number of host samples posted by the monitor agent",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the agent registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NewMetricsServer builds the optional listener exposing GET /metrics.
func NewMetricsServer(addr string, m *Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
