package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordArticlesFetched(t *testing.T) {
	before := testutil.ToFloat64(ArticlesFetchedTotal.WithLabelValues("technology"))

	RecordArticlesFetched("technology", 10)
	RecordArticlesFetched("technology", 0) // zero is a no-op

	after := testutil.ToFloat64(ArticlesFetchedTotal.WithLabelValues("technology"))
	assert.Equal(t, 10.0, after-before)
}

func TestRecordArticleDeduplicated(t *testing.T) {
	before := testutil.ToFloat64(ArticlesDeduplicatedTotal.WithLabelValues("sports", "stored"))

	RecordArticleDeduplicated("sports", "stored")
	RecordArticleDeduplicated("sports", "batch")

	after := testutil.ToFloat64(ArticlesDeduplicatedTotal.WithLabelValues("sports", "stored"))
	assert.Equal(t, 1.0, after-before)
}

func TestRecordArticleSummarized(t *testing.T) {
	successBefore := testutil.ToFloat64(ArticlesSummarizedTotal.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(ArticlesSummarizedTotal.WithLabelValues("failure"))

	RecordArticleSummarized(true)
	RecordArticleSummarized(false)
	RecordArticleSummarized(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(ArticlesSummarizedTotal.WithLabelValues("success"))-successBefore)
	assert.Equal(t, 2.0, testutil.ToFloat64(ArticlesSummarizedTotal.WithLabelValues("failure"))-failureBefore)
}

func TestRecordPipelineRun(t *testing.T) {
	before := testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("business", "no-new-articles"))

	RecordPipelineRun("business", "no-new-articles", 2*time.Second)

	after := testutil.ToFloat64(PipelineRunsTotal.WithLabelValues("business", "no-new-articles"))
	assert.Equal(t, 1.0, after-before)
}

func TestUpdateArticlesTotal(t *testing.T) {
	UpdateArticlesTotal(1234)
	assert.Equal(t, 1234.0, testutil.ToFloat64(ArticlesTotal))
}
