package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// JobMetrics tracks scheduled monitoring job runs.
type JobMetrics struct {
	Runs        *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	LastSuccess *prometheus.GaugeVec
	Dispatched  prometheus.Counter
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "microlend_monitor_job_runs_total",
			Help: "Monitoring job runs by job name and outcome",
		}, []string{"job", "outcome"}), // outcome: "ok", "error", "skipped"

		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "microlend_monitor_job_duration_seconds",
			Help:    "Duration of monitoring job runs by job name",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),

		LastSuccess: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "microlend_monitor_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run by job name",
		}, []string{"job"}),

		Dispatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "microlend_notifications_dispatched_total",
			Help: "Notification events successfully dispatched",
		}),
	}
}

func (m *JobMetrics) ObserveRun(job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(job, outcome).Inc()
	m.RunDuration.WithLabelValues(job).Observe(d.Seconds())
	if outcome == "ok" {
		m.LastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

func (m *JobMetrics) IncDispatched() {
	if m != nil {
		m.Dispatched.Inc()
	}
}
