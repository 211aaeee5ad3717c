package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AnalysisMetricsRecorder defines the interface for recording analysis
// metrics. Abstracting the recorder keeps the analyzers testable without a
// Prometheus registry and reusable across providers.
type AnalysisMetricsRecorder interface {
	// RecordOutcome counts one finished analysis per provider and status
	// (ok or error).
	RecordOutcome(provider, status string)

	// RecordDuration records the time one provider call took.
	RecordDuration(provider string, duration time.Duration)

	// RecordParseFailure counts a reply that was not usable JSON.
	RecordParseFailure(provider string)
}

// PrometheusAnalysisMetrics is the production AnalysisMetricsRecorder.
type PrometheusAnalysisMetrics struct {
	outcomeCounter    *prometheus.CounterVec
	durationHistogram *prometheus.HistogramVec
	parseFailures     *prometheus.CounterVec
}

var (
	analysisMetricsInstance *PrometheusAnalysisMetrics
	analysisMetricsOnce     sync.Once
)

// NewPrometheusAnalysisMetrics creates the Prometheus-backed recorder.
// Singleton to avoid duplicate registration when several analyzers are
// constructed in one process.
func NewPrometheusAnalysisMetrics() *PrometheusAnalysisMetrics {
	analysisMetricsOnce.Do(func() {
		analysisMetricsInstance = &PrometheusAnalysisMetrics{
			outcomeCounter: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "article_analysis_total",
				Help: "Total number of article analyses by provider and status",
			}, []string{"provider", "status"}),
			durationHistogram: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "article_analysis_duration_seconds",
				Help:    "Time taken by one analysis API call",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			}, []string{"provider"}),
			parseFailures: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "article_analysis_parse_failures_total",
				Help: "Total number of analysis replies that were not valid JSON",
			}, []string{"provider"}),
		}
	})
	return analysisMetricsInstance
}

// RecordOutcome implements AnalysisMetricsRecorder.
func (p *PrometheusAnalysisMetrics) RecordOutcome(provider, status string) {
	p.outcomeCounter.WithLabelValues(provider, status).Inc()
}

// RecordDuration implements AnalysisMetricsRecorder.
func (p *PrometheusAnalysisMetrics) RecordDuration(provider string, duration time.Duration) {
	p.durationHistogram.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordParseFailure implements AnalysisMetricsRecorder.
func (p *PrometheusAnalysisMetrics) RecordParseFailure(provider string) {
	p.parseFailures.WithLabelValues(provider).Inc()
}
