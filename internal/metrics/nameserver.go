package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NameServerMetrics holds the Name Server's Prometheus instruments. A nil
// *NameServerMetrics is valid everywhere it's used.
type NameServerMetrics struct {
	commands      *prometheus.CounterVec
	liveSS        prometheus.Gauge
	knownUsers    prometheus.Gauge
	roundRobin    *prometheus.CounterVec
	infoCacheHits *prometheus.CounterVec
}

// NewNameServerMetrics returns nil if metrics are disabled.
func NewNameServerMetrics() *NameServerMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &NameServerMetrics{
		commands: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langos_nm_commands_dispatched_total",
				Help: "Commands dispatched by the Name Server, by command and status code.",
			},
			[]string{"command", "status"},
		),
		liveSS: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "langos_nm_live_storage_servers",
			Help: "Number of Storage Servers currently connected.",
		}),
		knownUsers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "langos_nm_known_users",
			Help: "Number of distinct usernames the Name Server has registered.",
		}),
		roundRobin: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langos_nm_round_robin_assignments_total",
				Help: "CREATE assignments handed to each Storage Server by round robin.",
			},
			[]string{"ss_addr"},
		),
		infoCacheHits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "langos_nm_info_cache_total",
				Help: "INFO requests served, by cache hit or miss.",
			},
			[]string{"result"},
		),
	}
}

func (m *NameServerMetrics) Command(cmd string, status int) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(cmd, strconv.Itoa(status)).Inc()
}

func (m *NameServerMetrics) SetLiveSS(n int) {
	if m == nil {
		return
	}
	m.liveSS.Set(float64(n))
}

func (m *NameServerMetrics) SetKnownUsers(n int) {
	if m == nil {
		return
	}
	m.knownUsers.Set(float64(n))
}

func (m *NameServerMetrics) RoundRobinAssignment(ssAddr string) {
	if m == nil {
		return
	}
	m.roundRobin.WithLabelValues(ssAddr).Inc()
}

func (m *NameServerMetrics) InfoCacheHit() {
	if m == nil {
		return
	}
	m.infoCacheHits.WithLabelValues("hit").Inc()
}

func (m *NameServerMetrics) InfoCacheMiss() {
	if m == nil {
		return
	}
	m.infoCacheHits.WithLabelValues("miss").Inc()
}
