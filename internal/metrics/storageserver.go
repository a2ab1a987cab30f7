package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StorageServerMetrics holds the Storage Server's Prometheus instruments.
// A nil *StorageServerMetrics is valid everywhere it's used; every method
// below is nil-safe so callers don't need to branch on whether metrics are
// enabled.
type StorageServerMetrics struct {
	writeSessions   *prometheus.CounterVec
	commitDuration  prometheus.Histogram
	activeLocks     prometheus.Gauge
	modLogLength    prometheus.Gauge
	undoCount       prometheus.Counter
}

// NewStorageServerMetrics returns nil if metrics are disabled (InitRegistry
// was never called), otherwise a set of registered instruments.
func NewStorageServerMetrics() *StorageServerMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &StorageServerMetrics{
		writeSessions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langos_ss_write_sessions_total",
				Help: "WRITE sessions by outcome: committed, locked, rejected, error.",
			},
			[]string{"outcome"},
		),
		commitDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "langos_ss_commit_duration_milliseconds",
			Help:    "Time spent in the WRITE commit phase, holding the file lock.",
			Buckets: prometheus.DefBuckets,
		}),
		activeLocks: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "langos_ss_active_sentence_locks",
			Help: "Number of sentence locks currently held.",
		}),
		modLogLength: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "langos_ss_modification_log_length",
			Help: "Number of entries currently in the in-memory modification log.",
		}),
		undoCount: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "langos_ss_undo_total",
			Help: "Number of successful UNDO operations.",
		}),
	}
}

func (m *StorageServerMetrics) WriteSession(outcome string) {
	if m == nil {
		return
	}
	m.writeSessions.WithLabelValues(outcome).Inc()
}

func (m *StorageServerMetrics) ObserveCommit(ms float64) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(ms)
}

func (m *StorageServerMetrics) SetActiveLocks(n int) {
	if m == nil {
		return
	}
	m.activeLocks.Set(float64(n))
}

func (m *StorageServerMetrics) SetModLogLength(n int) {
	if m == nil {
		return
	}
	m.modLogLength.Set(float64(n))
}

func (m *StorageServerMetrics) Undo() {
	if m == nil {
		return
	}
	m.undoCount.Inc()
}
