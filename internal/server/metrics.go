// Package server provides the HTTP API for taskgate.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed evaluations by verdict.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskgate",
			Subsystem: "runs",
			Name:      "total",
			Help:      "Total number of feasibility evaluations by verdict",
		},
		[]string{"verdict"},
	)

	// GateFailuresTotal counts which gate stopped the pipeline.
	GateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskgate",
			Subsystem: "gates",
			Name:      "failures_total",
			Help:      "Total number of gate failures by gate name",
		},
		[]string{"gate"},
	)

	// SweepVariantsTotal counts variants evaluated inside sweeps.
	SweepVariantsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taskgate",
			Subsystem: "sweeps",
			Name:      "variants_total",
			Help:      "Total number of sweep variants evaluated",
		},
	)

	// RequestDuration tracks HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskgate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and route",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// recordVerdict updates the run counters for one packet outcome.
func recordVerdict(verdict, failedGate string) {
	RunsTotal.WithLabelValues(verdict).Inc()
	if failedGate != "" {
		GateFailuresTotal.WithLabelValues(failedGate).Inc()
	}
}
