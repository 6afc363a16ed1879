package sync

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/f0rbit/media-timeline/internal/platform"
)

// Metrics exposes the sync engine's per-cycle counters on /metrics
// (cmd/api registers them on its own prometheus.Registry, which the
// /metrics handler serves). Ambient
// observability, carried regardless of spec.md's real-time-streaming
// Non-goal.
type Metrics struct {
	accountsProcessed *prometheus.CounterVec
	accountsFailed    *prometheus.CounterVec
	circuitOpened     *prometheus.CounterVec
	timelinesBuilt    prometheus.Counter
}

// NewMetrics registers the sync engine's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		accountsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_timeline_sync_accounts_processed_total",
			Help: "Accounts successfully fetched by the sync engine, by platform.",
		}, []string{"platform"}),
		accountsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_timeline_sync_accounts_failed_total",
			Help: "Accounts that failed a fetch cycle, by platform.",
		}, []string{"platform"}),
		circuitOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_timeline_sync_circuit_opened_total",
			Help: "Times an account's circuit breaker opened, by platform.",
		}, []string{"platform"}),
		timelinesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "media_timeline_sync_timelines_built_total",
			Help: "User timelines regenerated by the Timeline Assembler.",
		}),
	}
	reg.MustRegister(m.accountsProcessed, m.accountsFailed, m.circuitOpened, m.timelinesBuilt)
	return m
}

func (m *Metrics) RecordSuccess(p platform.Tag) {
	if m == nil {
		return
	}
	m.accountsProcessed.WithLabelValues(string(p)).Inc()
}

func (m *Metrics) RecordFailure(p platform.Tag) {
	if m == nil {
		return
	}
	m.accountsFailed.WithLabelValues(string(p)).Inc()
}

func (m *Metrics) RecordCircuitOpened(p platform.Tag) {
	if m == nil {
		return
	}
	m.circuitOpened.WithLabelValues(string(p)).Inc()
}

func (m *Metrics) RecordTimelineGenerated() {
	if m == nil {
		return
	}
	m.timelinesBuilt.Inc()
}
