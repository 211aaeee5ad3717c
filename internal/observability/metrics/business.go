package metrics

import "time"

// RecordArticlesFetched records the number of raw articles fetched for a category.
func RecordArticlesFetched(category string, count int) {
	if count > 0 {
		ArticlesFetchedTotal.WithLabelValues(category).Add(float64(count))
	}
}

// RecordArticleDeduplicated records one candidate dropped by dedup.
// Reason is "stored" (already in the database) or "batch" (duplicate within
// the incoming batch).
func RecordArticleDeduplicated(category, reason string) {
	ArticlesDeduplicatedTotal.WithLabelValues(category, reason).Inc()
}

// RecordArticleSummarized records the result of one summarization attempt.
func RecordArticleSummarized(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	ArticlesSummarizedTotal.WithLabelValues(status).Inc()
}

// RecordSummarizationDuration records the time taken to summarize an article.
func RecordSummarizationDuration(duration time.Duration) {
	SummarizationDuration.Observe(duration.Seconds())
}

// RecordArticlesSaved records the number of articles persisted for a category.
func RecordArticlesSaved(category string, count int) {
	if count > 0 {
		ArticlesSavedTotal.WithLabelValues(category).Add(float64(count))
	}
}

// RecordPipelineRun records one completed pipeline run. Outcome is "success"
// or a tagged terminal reason; duration covers fetch through save.
func RecordPipelineRun(category, outcome string, duration time.Duration) {
	PipelineRunsTotal.WithLabelValues(category, outcome).Inc()
	PipelineDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// UpdateArticlesTotal refreshes the stored-articles gauge.
func UpdateArticlesTotal(count int64) {
	ArticlesTotal.Set(float64(count))
}
