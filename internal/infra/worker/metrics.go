package worker

import (
	"newsxpress/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the ingestion worker.
// It embeds the shared ConfigMetrics for configuration fallbacks and adds
// job-level metrics for the scheduled pipeline runs.
//
// Job metrics:
//   - worker_cron_job_runs_total: runs by status (success/failure)
//   - worker_cron_job_duration_seconds: full multi-category run duration
//   - worker_cron_job_articles_saved_total: articles saved across all runs
//   - worker_cron_job_last_success_timestamp: last fully successful run
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CronJobRunsTotal counts scheduled runs by status (success/failure).
	// A run is a failure when any category ends with an error.
	CronJobRunsTotal *prometheus.CounterVec

	// CronJobDurationSeconds observes the duration of a full run across
	// all configured categories.
	CronJobDurationSeconds prometheus.Histogram

	// CronJobArticlesSavedTotal accumulates articles saved per run.
	CronJobArticlesSavedTotal prometheus.Counter

	// CronJobLastSuccessTimestamp is the Unix time of the last run with
	// zero failing categories. Alert on staleness.
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the worker metrics. Registration happens via
// promauto at creation time.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of scheduled pipeline runs by status (success/failure)",
		}, []string{"status"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of a full multi-category pipeline run in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		CronJobArticlesSavedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_articles_saved_total",
			Help: "Total number of articles saved across all scheduled runs",
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last scheduled run with no failing category",
		}),
	}
}

// RecordJobRun increments the run counter for the given status
// ("success" or "failure").
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one full run's duration in seconds.
func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

// RecordArticlesSaved adds the number of articles saved in this run.
func (m *WorkerMetrics) RecordArticlesSaved(count int) {
	m.CronJobArticlesSavedTotal.Add(float64(count))
}

// RecordLastSuccess marks the current time as the last clean run.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
