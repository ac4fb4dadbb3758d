package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedwatch/internal/pkg/config"
)

// WorkerMetrics exposes Prometheus metrics for the poll worker. It embeds
// the shared ConfigMetrics (worker_config_*) and adds poll-cycle metrics:
//
//   - worker_poll_runs_total: poll cycles by status (success/failure)
//   - worker_poll_duration_seconds: poll cycle duration histogram
//   - worker_poll_feeds_checked_total: feeds checked across all cycles
//   - worker_poll_last_success_timestamp: Unix time of last successful cycle
type WorkerMetrics struct {
	*config.ConfigMetrics

	PollRunsTotal            *prometheus.CounterVec
	PollDurationSeconds      prometheus.Histogram
	PollFeedsCheckedTotal    prometheus.Counter
	PollLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the worker metrics. Registration happens via
// promauto on the default registry, so construct this at most once.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		PollRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_poll_runs_total",
			Help: "Total number of poll cycles by status (success/failure)",
		}, []string{"status"}),

		PollDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_poll_duration_seconds",
			Help:    "Duration of one poll cycle in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 600},
		}),

		PollFeedsCheckedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_feeds_checked_total",
			Help: "Total number of feeds checked across all poll cycles",
		}),

		PollLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_last_success_timestamp",
			Help: "Unix timestamp of the last successful poll cycle",
		}),
	}
}

// RecordPollRun increments the poll cycle counter for "success" or "failure".
func (m *WorkerMetrics) RecordPollRun(status string) {
	m.PollRunsTotal.WithLabelValues(status).Inc()
}

// RecordPollDuration observes one poll cycle duration in seconds.
func (m *WorkerMetrics) RecordPollDuration(seconds float64) {
	m.PollDurationSeconds.Observe(seconds)
}

// RecordFeedsChecked adds the number of feeds checked in one cycle.
func (m *WorkerMetrics) RecordFeedsChecked(count int) {
	m.PollFeedsCheckedTotal.Add(float64(count))
}

// RecordLastSuccess marks the current time as the last successful cycle.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.PollLastSuccessTimestamp.SetToCurrentTime()
}
