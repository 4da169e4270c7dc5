package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initPipelineMetrics initializes the signal pipeline metrics.
func (m *Manager) initPipelineMetrics(cfg Config) {
	m.signalsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signals_received_total",
			Help: "Total number of signals accepted into the queue",
		},
	)

	m.signalsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_rejected_total",
			Help: "Total number of rejected signals by reason",
		},
		[]string{"reason"},
	)

	m.queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signal_queue_depth",
			Help: "Current depth of the signal queue",
		},
	)

	m.queueWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_queue_wait_seconds",
			Help:    "Time signals spend waiting in the queue",
			Buckets: cfg.QueueWaitBuckets,
		},
	)

	m.recordsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_processed_total",
			Help: "Total number of processed records by outcome",
		},
		[]string{"outcome"},
	)

	m.enrichDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichment_duration_seconds",
			Help:    "Duration of enrichment calls",
			Buckets: cfg.EnrichDurationBuckets,
		},
	)

	m.persistDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "persist_duration_seconds",
			Help:    "Duration of record upserts",
			Buckets: cfg.PersistBuckets,
		},
	)

	m.registry.MustRegister(m.signalsReceived)
	m.registry.MustRegister(m.signalsRejected)
	m.registry.MustRegister(m.queueDepth)
	m.registry.MustRegister(m.queueWait)
	m.registry.MustRegister(m.recordsProcessed)
	m.registry.MustRegister(m.enrichDuration)
	m.registry.MustRegister(m.persistDuration)
}

// IncReceived counts one accepted signal.
func (m *Manager) IncReceived() {
	if !m.enabled {
		return
	}
	m.signalsReceived.Inc()
}

// IncRejected counts one rejected signal by reason.
func (m *Manager) IncRejected(reason string) {
	if !m.enabled {
		return
	}
	m.signalsRejected.WithLabelValues(reason).Inc()
}

// IncQueueDepth increments the signal queue depth.
func (m *Manager) IncQueueDepth() {
	if !m.enabled {
		return
	}
	m.queueDepth.Inc()
}

// DecQueueDepth decrements the signal queue depth.
func (m *Manager) DecQueueDepth() {
	if !m.enabled {
		return
	}
	m.queueDepth.Dec()
}

// RecordQueueWait records the time a signal spent queued.
func (m *Manager) RecordQueueWait(duration time.Duration) {
	if !m.enabled {
		return
	}
	m.queueWait.Observe(duration.Seconds())
}

// RecordProcessed counts one processed record by outcome
// (enriched, adapter_error, persist_error).
func (m *Manager) RecordProcessed(outcome string) {
	if !m.enabled {
		return
	}
	m.recordsProcessed.WithLabelValues(outcome).Inc()
}

// RecordEnrichDuration records the duration of one enrichment call.
func (m *Manager) RecordEnrichDuration(duration time.Duration) {
	if !m.enabled {
		return
	}
	m.enrichDuration.Observe(duration.Seconds())
}

// RecordPersistDuration records the duration of one upsert.
func (m *Manager) RecordPersistDuration(duration time.Duration) {
	if !m.enabled {
		return
	}
	m.persistDuration.Observe(duration.Seconds())
}
