// Package metrics defines the Prometheus collectors for pipeline-level
// business metrics, plus helper functions for recording them. Collectors are
// registered with the default registry via promauto and exposed by the
// worker's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticlesFetchedTotal counts raw articles returned by the news-search API.
	ArticlesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_articles_fetched_total",
			Help: "Total number of raw articles fetched from the news-search API",
		},
		[]string{"category"},
	)

	// ArticlesDeduplicatedTotal counts candidates dropped by dedup,
	// split by whether the duplicate was already stored or appeared
	// earlier in the same incoming batch.
	ArticlesDeduplicatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_articles_deduplicated_total",
			Help: "Total number of articles dropped as duplicates",
		},
		[]string{"category", "reason"}, // reason: stored|batch
	)

	// ArticlesSummarizedTotal counts summarization outcomes.
	ArticlesSummarizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_articles_summarized_total",
			Help: "Total number of article summarization attempts",
		},
		[]string{"status"}, // status: success|failure
	)

	// SummarizationDuration tracks per-article LLM analysis latency.
	SummarizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_summarization_duration_seconds",
			Help:    "Time spent summarizing one article",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// ArticlesSavedTotal counts articles persisted per category.
	ArticlesSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_articles_saved_total",
			Help: "Total number of articles persisted",
		},
		[]string{"category"},
	)

	// PipelineRunsTotal counts pipeline runs by category and outcome.
	// Outcome is "success" or one of the tagged terminal reasons
	// (no-news, no-valid-articles, no-new-articles, no-summarized-output),
	// so a supervisor can alert differently on "upstream down" vs
	// "everything already ingested".
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of ingestion pipeline runs by outcome",
		},
		[]string{"category", "outcome"},
	)

	// PipelineDuration tracks end-to-end pipeline run duration per category
	// (excluding the detached notification loop).
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Ingestion pipeline run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"category"},
	)

	// ArticlesTotal is the current number of stored articles.
	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Current total number of articles in the database",
		},
	)
)
