// Package metrics exposes the relayer's Prometheus gauges and counters,
// grounded on this tree's prometheus/client_golang usage elsewhere in the
// pack (the dependency was already present in the teacher's go.mod;
// wired here into relayer-specific series instead of anchor/attestation
// ones).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voyager_opqueue_depth",
		Help: "Number of pending ops per bucket.",
	}, []string{"bucket"})

	OpsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voyager_ops_processed_total",
		Help: "Ops completed, labeled by bucket and outcome.",
	}, []string{"bucket", "outcome"})

	SubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voyager_submissions_total",
		Help: "Tx submissions, labeled by chain and outcome.",
	}, []string{"chain_id", "outcome"})

	RelayLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voyager_relay_latency_seconds",
		Help:    "Time from event observation to enqueued submission.",
		Buckets: prometheus.DefBuckets,
	}, []string{"chain_id", "event_kind"})
)

// Register adds every series to reg. Called once at daemon startup.
func Register(reg *prometheus.Registry) {
	reg.MustRegister(QueueDepth, OpsProcessedTotal, SubmissionsTotal, RelayLatencySeconds)
}
