// Package metrics defines the worker's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics aggregates the offline worker's counters and gauges.
type WorkerMetrics struct {
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	CacheWrites     prometheus.Counter
	NetworkFailures prometheus.Counter
	QueueDepth      prometheus.Gauge
	DrainAttempts   prometheus.Counter
	DrainReplayed   prometheus.Counter
	DrainRetained   prometheus.Counter
}

// NewWorkerMetrics creates the metric set and registers it with reg.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	m := &WorkerMetrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrobio_cache_hits_total",
			Help: "Cache hits served, by strategy.",
		}, []string{"strategy"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrobio_cache_misses_total",
			Help: "Cache lookups that found no entry, by strategy.",
		}, []string{"strategy"}),
		CacheWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrobio_cache_writes_total",
			Help: "Response snapshots written to the cache.",
		}),
		NetworkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrobio_network_failures_total",
			Help: "Upstream fetches that failed at the transport level.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agrobio_sync_queue_depth",
			Help: "Deferred mutations currently awaiting replay.",
		}),
		DrainAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrobio_sync_drain_attempts_total",
			Help: "Drain passes triggered.",
		}),
		DrainReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrobio_sync_drain_replayed_total",
			Help: "Mutations replayed successfully and removed.",
		}),
		DrainRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrobio_sync_drain_retained_total",
			Help: "Mutations left in place after a failed replay.",
		}),
	}

	reg.MustRegister(
		m.CacheHits, m.CacheMisses, m.CacheWrites, m.NetworkFailures,
		m.QueueDepth, m.DrainAttempts, m.DrainReplayed, m.DrainRetained,
	)
	return m
}
