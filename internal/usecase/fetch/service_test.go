package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/repository"
	"newsxpress/internal/usecase/notify"
)

/* ──────────────────────────────── fakes ──────────────────────────────── */

type fakeArticleRepo struct {
	recent   []*entity.Article
	saved    []*entity.Article
	findErr  error
	saveErr  error
	failSave map[string]error // title -> error
}

func (f *fakeArticleRepo) FindRecentByTopic(_ context.Context, _ string, _ int) ([]*entity.Article, error) {
	return f.recent, f.findErr
}

func (f *fakeArticleRepo) SaveMany(_ context.Context, articles []*entity.Article) (*repository.SaveResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	result := &repository.SaveResult{}
	for _, article := range articles {
		if err, ok := f.failSave[article.Title]; ok {
			result.Errors = append(result.Errors, repository.SaveError{Title: article.Title, Err: err})
			continue
		}
		article.ID = int64(len(f.saved) + 1)
		f.saved = append(f.saved, article)
		result.Saved = append(result.Saved, article)
	}
	return result, nil
}

func (f *fakeArticleRepo) ExistsByURL(_ context.Context, url string) (bool, error) {
	for _, article := range f.saved {
		if article.OriginalURL == url {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeArticleRepo) CountArticles(_ context.Context) (int64, error) {
	return int64(len(f.saved)), nil
}

type fakeFetcher struct {
	articles map[string][]entity.RawArticle
	err      error
	calls    []string
}

func (f *fakeFetcher) SearchNews(_ context.Context, category string, _ int) ([]entity.RawArticle, error) {
	f.calls = append(f.calls, category)
	return f.articles[category], f.err
}

type fakeAnalyzer struct {
	err       error
	emptyOnly bool
	mu        sync.Mutex
	analyzed  []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, article entity.RawArticle, category string) (entity.Analysis, error) {
	f.mu.Lock()
	f.analyzed = append(f.analyzed, article.Title)
	f.mu.Unlock()

	if f.err != nil {
		return entity.Analysis{}, f.err
	}
	if f.emptyOnly {
		return entity.Analysis{}, nil
	}
	return entity.Analysis{
		Summary:   "summary of " + article.Title,
		Sentiment: 0.2,
		Actors:    []string{"RBI"},
		Place:     "Delhi",
		Topic:     category,
		Subtopic:  "economy",
	}, nil
}

func (f *fakeAnalyzer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyzed)
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []*entity.Article
}

func (f *fakeNotifier) NotifySubscribers(_ context.Context, article *entity.Article, _ string) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, article)
	return notify.Result{Success: true, Sent: 1}
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notified)
}

/* ──────────────────────────────── helpers ──────────────────────────────── */

func testPipelineConfig() Config {
	cfg := DefaultConfig()
	cfg.AnalyzeBatchPause = time.Millisecond
	cfg.NotifyDelay = 0
	cfg.CategoryDelay = time.Millisecond
	return cfg
}

func rawArticles(category string, n int) []entity.RawArticle {
	articles := make([]entity.RawArticle, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, entity.RawArticle{
			Title:   fmt.Sprintf("%s headline %d", category, i),
			Link:    fmt.Sprintf("https://example.com/%s/%d", category, i),
			Source:  "The Hindu",
			Snippet: "something happened",
		})
	}
	return articles
}

func waitForShutdown(t *testing.T, svc *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))
}

/* ──────────────────────────────── pipeline runs ──────────────────────────────── */

func TestFetchAndSaveNews_FullRun(t *testing.T) {
	raw := rawArticles("business", 10)
	// One result is already stored under the same headline.
	repo := &fakeArticleRepo{
		recent: []*entity.Article{{
			Title:       "  Business HEADLINE 0 ",
			OriginalURL: "https://example.com/other",
		}},
	}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": raw}}
	analyzer := &fakeAnalyzer{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, fetcher, analyzer, notifier, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "Business")
	require.NoError(t, err)

	assert.Equal(t, "business", result.Category)
	assert.Equal(t, 10, result.Fetched)
	assert.Equal(t, 10, result.Candidates)
	assert.Equal(t, 1, result.Deduplicated)
	assert.Equal(t, 8, result.Summarized, "analysis is capped at the summarize limit")
	assert.Equal(t, 8, result.Saved)
	assert.Empty(t, result.Reason)
	assert.Equal(t, 8, analyzer.count())

	saved := repo.saved[0]
	assert.Equal(t, "summary of business headline 1", saved.Summary)
	assert.Equal(t, "business", saved.Topic)
	assert.Equal(t, "The Hindu", saved.SourceName)
	assert.Equal(t, 1, saved.ReadTime)
	assert.Equal(t, "en", saved.LanguageCode)

	waitForShutdown(t, svc)
	assert.Equal(t, 8, notifier.count(), "every saved article must be pushed")
}

func TestFetchAndSaveNews_NoNews(t *testing.T) {
	repo := &fakeArticleRepo{}
	fetcher := &fakeFetcher{}
	svc := NewService(repo, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, "no-news", result.Reason)
	assert.Empty(t, repo.saved)
}

func TestFetchAndSaveNews_NoValidArticles(t *testing.T) {
	repo := &fakeArticleRepo{}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": {
		{Title: "no link at all"},
		{Title: "bad scheme", Link: "ftp://example.com/x"},
	}}}
	svc := NewService(repo, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 0, result.Candidates)
	assert.Equal(t, "no-valid-articles", result.Reason)
}

func TestFetchAndSaveNews_NoNewArticles(t *testing.T) {
	raw := rawArticles("business", 3)
	recent := make([]*entity.Article, 0, len(raw))
	for _, r := range raw {
		recent = append(recent, &entity.Article{Title: r.Title, OriginalURL: r.Link})
	}
	repo := &fakeArticleRepo{recent: recent}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": raw}}
	analyzer := &fakeAnalyzer{}
	svc := NewService(repo, fetcher, analyzer, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, "no-new-articles", result.Reason)
	assert.Equal(t, 3, result.Deduplicated)
	assert.Zero(t, analyzer.count())
}

func TestFetchAndSaveNews_InBatchDuplicatesDropped(t *testing.T) {
	raw := rawArticles("business", 2)
	raw = append(raw, entity.RawArticle{
		Title: "Business Headline 0", // same headline, different casing and URL
		Link:  "https://example.com/mirror/0",
	})
	repo := &fakeArticleRepo{}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": raw}}
	svc := NewService(repo, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deduplicated)
	assert.Equal(t, 2, result.Saved)
}

func TestFetchAndSaveNews_URLCaseDifferenceStillDeduplicated(t *testing.T) {
	// Same link as a stored article, differing only in casing and padding,
	// under a brand-new headline.
	repo := &fakeArticleRepo{
		recent: []*entity.Article{{
			Title:       "Sensex closes higher",
			OriginalURL: " HTTPS://Example.com/Business/1 ",
		}},
	}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": {
		{Title: "Markets rally on rate cut hopes", Link: "https://example.com/business/1"},
	}}}
	analyzer := &fakeAnalyzer{}
	svc := NewService(repo, fetcher, analyzer, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deduplicated)
	assert.Equal(t, "no-new-articles", result.Reason)
	assert.Zero(t, analyzer.count())
	assert.Empty(t, repo.saved)
}

func TestFetchAndSaveNews_NoSummarizedOutput(t *testing.T) {
	repo := &fakeArticleRepo{}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": rawArticles("business", 2)}}
	svc := NewService(repo, fetcher, &fakeAnalyzer{emptyOnly: true}, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, "no-summarized-output", result.Reason)
	assert.Empty(t, repo.saved)
}

func TestFetchAndSaveNews_AnalyzerFailureFallsBack(t *testing.T) {
	repo := &fakeArticleRepo{}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": rawArticles("business", 2)}}
	svc := NewService(repo, fetcher, &fakeAnalyzer{err: errors.New("groq down")}, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved, "fallback analysis still saves the articles")
	assert.Equal(t, "something happened", repo.saved[0].Summary)
	assert.Equal(t, "business", repo.saved[0].Topic)
}

func TestFetchAndSaveNews_SearchError(t *testing.T) {
	svc := NewService(&fakeArticleRepo{}, &fakeFetcher{err: errors.New("503")},
		&fakeAnalyzer{}, nil, testPipelineConfig())

	_, err := svc.FetchAndSaveNews(context.Background(), "business")
	assert.ErrorIs(t, err, ErrSearchFailed)
}

func TestFetchAndSaveNews_SaveError(t *testing.T) {
	repo := &fakeArticleRepo{saveErr: errors.New("connection lost")}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": rawArticles("business", 2)}}
	svc := NewService(repo, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())

	_, err := svc.FetchAndSaveNews(context.Background(), "business")
	assert.ErrorIs(t, err, ErrSaveFailed)
}

func TestFetchAndSaveNews_PerArticleSaveFailureCounted(t *testing.T) {
	repo := &fakeArticleRepo{failSave: map[string]error{
		"business headline 0": errors.New("value too long"),
	}}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{"business": rawArticles("business", 3)}}
	svc := NewService(repo, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())

	result, err := svc.FetchAndSaveNews(context.Background(), "business")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 1, result.Errors)
	assert.Empty(t, result.Reason)
}

/* ──────────────────────────────── multi-category ──────────────────────────────── */

func TestFetchAndSaveMultipleCategories(t *testing.T) {
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{
		"business": rawArticles("business", 2),
		"sports":   rawArticles("sports", 1),
	}}
	repo := &fakeArticleRepo{}
	svc := NewService(repo, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())

	results := svc.FetchAndSaveMultipleCategories(context.Background(),
		[]string{"business", "politics", "sports"})

	require.Len(t, results, 3)
	assert.Equal(t, 2, results[0].Saved)
	assert.Equal(t, "no-news", results[1].Reason)
	assert.Equal(t, 1, results[2].Saved)
	assert.Equal(t, []string{"business", "politics", "sports"}, fetcher.calls)
}

func TestFetchAndSaveMultipleCategories_ContinuesPastFailure(t *testing.T) {
	// First category fails at save time, second succeeds.
	repo := &fakeArticleRepo{}
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{
		"business": rawArticles("business", 1),
		"sports":   rawArticles("sports", 1),
	}}
	svc := NewService(repo, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())
	repo.saveErr = errors.New("down")

	resultsMid := svc.FetchAndSaveMultipleCategories(context.Background(), []string{"business"})
	require.Len(t, resultsMid, 1)
	assert.Equal(t, "error", resultsMid[0].Reason)

	repo.saveErr = nil
	results := svc.FetchAndSaveMultipleCategories(context.Background(), []string{"sports"})
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Saved)
}

func TestFetchAndSaveMultipleCategories_CanceledContext(t *testing.T) {
	fetcher := &fakeFetcher{articles: map[string][]entity.RawArticle{
		"business": rawArticles("business", 1),
	}}
	svc := NewService(&fakeArticleRepo{}, fetcher, &fakeAnalyzer{}, nil, testPipelineConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.FetchAndSaveMultipleCategories(ctx, []string{"business", "sports"})
	assert.Len(t, results, 1, "cancellation stops before the next category")
}

/* ──────────────────────────────── helpers under test ──────────────────────────────── */

func TestParsePublishedAt(t *testing.T) {
	fallback := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	parsed := parsePublishedAt("08/30/2026, 10:15 AM, +0000 UTC", fallback)
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, time.August, parsed.Month())
	assert.Equal(t, 30, parsed.Day())
	assert.Equal(t, 10, parsed.Hour())

	assert.Equal(t, fallback, parsePublishedAt("", fallback))
	assert.Equal(t, fallback, parsePublishedAt("yesterday", fallback))
}
