package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

var (
	// Receiver metrics
	PayloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiver_payloads_total",
			Help: "Total number of payloads received on /data",
		},
		[]string{"outcome"},
	)

	PayloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "receiver_payload_bytes_total",
			Help: "Total bytes of accepted payload data",
		},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "receiver_http_request_duration_seconds",
			Help:    "Duration of HTTP requests on the ingestion listener",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	RelayErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "receiver_relay_errors_total",
			Help: "Total number of payloads that failed to publish to the relay",
		},
	)
)
