package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics coletores do engine. Um Metrics nil é válido e não registra nada.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	stages      *prometheus.CounterVec
	runs        *prometheus.CounterVec
	appends     *prometheus.CounterVec
}

// NewMetrics cria os coletores e registra em reg (quando não nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maestro",
			Name:      "agent_invocations_total",
			Help:      "Agent invocations by agent and status.",
		}, []string{"agent", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "maestro",
			Name:      "agent_invocation_duration_seconds",
			Help:      "Agent invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maestro",
			Name:      "stages_total",
			Help:      "Finished stages by execution mode and status.",
		}, []string{"mode", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maestro",
			Name:      "runs_total",
			Help:      "Finished runs by status.",
		}, []string{"status"}),
		appends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maestro",
			Name:      "message_appends_total",
			Help:      "Message log appends by message type and result.",
		}, []string{"type", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.invocations, m.duration, m.stages, m.runs, m.appends)
	}
	return m
}

func (m *Metrics) observeInvocation(agent, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(agent, status).Inc()
	m.duration.WithLabelValues(agent).Observe(d.Seconds())
}

func (m *Metrics) observeStage(mode, status string) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(mode, status).Inc()
}

func (m *Metrics) observeRun(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) observeAppend(msgType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.appends.WithLabelValues(msgType, result).Inc()
}
