package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus метрики simsnap.
//
// Все методы безопасны для nil *Metrics: компоненты можно
// собирать без метрик (CLI, тесты).
type Metrics struct {
	// StatusPolls — запросы статуса по стадиям (result: ready, not_ready, error).
	StatusPolls *prometheus.CounterVec

	// RemoteCalls — вызовы SimSpace Weaver (result: ok, conflict, error).
	RemoteCalls *prometheus.CounterVec

	// Snapshots — итоги runs (result: taken, not_ready, failed).
	Snapshots *prometheus.CounterVec

	// RunDuration — длительность run от RUNNING до финального статуса.
	RunDuration prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StatusPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simsnap_status_polls_total",
			Help: "Status queries issued while waiting for a lifecycle stage",
		}, []string{"stage", "result"}),
		RemoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simsnap_remote_calls_total",
			Help: "SimSpace Weaver API calls by operation and result",
		}, []string{"operation", "result"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simsnap_snapshots_total",
			Help: "Finished snapshot runs by result",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "simsnap_run_duration_seconds",
			Help:    "Duration of snapshot runs",
			Buckets: []float64{1, 5, 30, 60, 120, 300, 600, 1800, 3600},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.StatusPolls, m.RemoteCalls, m.Snapshots, m.RunDuration)
	}

	return m
}

// ObservePoll учитывает один запрос статуса.
func (m *Metrics) ObservePoll(stage, result string) {
	if m == nil {
		return
	}
	m.StatusPolls.WithLabelValues(stage, result).Inc()
}

// ObserveCall учитывает один вызов API.
func (m *Metrics) ObserveCall(operation, result string) {
	if m == nil {
		return
	}
	m.RemoteCalls.WithLabelValues(operation, result).Inc()
}

// ObserveRun учитывает завершённый run.
func (m *Metrics) ObserveRun(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(result).Inc()
	m.RunDuration.Observe(duration.Seconds())
}
