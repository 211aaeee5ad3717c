package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/observability/logging"
	"newsxpress/internal/observability/metrics"
	"newsxpress/internal/repository"
	"newsxpress/internal/usecase/notify"
	"newsxpress/internal/utils/text"
)

// NewsFetcher searches the external news provider for fresh headlines.
type NewsFetcher interface {
	SearchNews(ctx context.Context, category string, count int) ([]entity.RawArticle, error)
}

// ArticleAnalyzer produces the structured analysis for one raw article.
type ArticleAnalyzer interface {
	Analyze(ctx context.Context, article entity.RawArticle, category string) (entity.Analysis, error)
}

// ArticleNotifier pushes a saved article to category subscribers.
type ArticleNotifier interface {
	NotifySubscribers(ctx context.Context, article *entity.Article, category string) notify.Result
}

// Config holds the pipeline tunables.
type Config struct {
	// NewsCount is how many results to request from the search provider.
	NewsCount int

	// SummarizeLimit caps how many new articles get AI analysis per run.
	SummarizeLimit int

	// RecentWindow is how many stored articles feed the dedupe index.
	RecentWindow int

	// AnalyzeBatchSize is how many analyses run concurrently.
	AnalyzeBatchSize int

	// AnalyzeBatchPause is the wait between analysis batches, to stay
	// under provider rate limits.
	AnalyzeBatchPause time.Duration

	// NotifyDelay is the pause between per-article notifications.
	NotifyDelay time.Duration

	// CategoryDelay is the pause between categories in a multi-category
	// run.
	CategoryDelay time.Duration
}

// DefaultConfig returns the production pipeline tunables.
func DefaultConfig() Config {
	return Config{
		NewsCount:         10,
		SummarizeLimit:    8,
		RecentWindow:      100,
		AnalyzeBatchSize:  4,
		AnalyzeBatchPause: 500 * time.Millisecond,
		NotifyDelay:       250 * time.Millisecond,
		CategoryDelay:     2 * time.Second,
	}
}

// PipelineResult reports one pipeline run for one category.
type PipelineResult struct {
	Category     string
	Fetched      int           // results returned by the search provider
	Candidates   int           // results that passed validation
	Deduplicated int           // candidates dropped as already known
	Summarized   int           // articles that got a usable analysis
	Saved        int           // articles newly persisted
	Skipped      int           // persistence skips (already stored)
	Errors       int           // per-article persistence failures
	Reason       string        // set when the run ended early (no-news, no-valid-articles, no-new-articles, no-summarized-output)
	Duration     time.Duration
}

// Service orchestrates the ingestion pipeline. Notifications for saved
// articles run detached from the pipeline: a slow FCM fan-out must not
// stretch the cron tick.
type Service struct {
	articles repository.ArticleRepository
	fetcher  NewsFetcher
	analyzer ArticleAnalyzer
	notifier ArticleNotifier // nil disables notifications
	cfg      Config

	notifyGroup errgroup.Group
}

// NewService creates a pipeline service. notifier may be nil to disable
// push notifications.
func NewService(
	articles repository.ArticleRepository,
	fetcher NewsFetcher,
	analyzer ArticleAnalyzer,
	notifier ArticleNotifier,
	cfg Config,
) *Service {
	return &Service{
		articles: articles,
		fetcher:  fetcher,
		analyzer: analyzer,
		notifier: notifier,
		cfg:      cfg,
	}
}

// FetchAndSaveNews runs the pipeline for one category: search, validate,
// dedupe, analyze, save, notify. Empty stages end the run early with a
// tagged reason instead of an error; only provider and storage failures
// return one.
func (s *Service) FetchAndSaveNews(ctx context.Context, category string) (*PipelineResult, error) {
	category = entity.NormalizeCategory(category)
	ctx, runID := logging.WithRunID(ctx)
	logger := slog.With(
		slog.String("run_id", runID),
		slog.String("category", category))
	start := time.Now()

	result := &PipelineResult{Category: category}
	finish := func(reason string) *PipelineResult {
		result.Reason = reason
		result.Duration = time.Since(start)
		outcome := reason
		if outcome == "" {
			outcome = "completed"
		}
		metrics.RecordPipelineRun(category, outcome, result.Duration)
		logger.Info("pipeline run finished",
			slog.String("outcome", outcome),
			slog.Int("fetched", result.Fetched),
			slog.Int("saved", result.Saved),
			slog.Duration("duration", result.Duration))
		return result
	}

	raw, err := s.fetcher.SearchNews(ctx, category, s.cfg.NewsCount)
	if err != nil {
		metrics.RecordPipelineRun(category, "error", time.Since(start))
		return nil, fmt.Errorf("%w %q: %v", ErrSearchFailed, category, err)
	}
	result.Fetched = len(raw)
	metrics.RecordArticlesFetched(category, len(raw))
	if len(raw) == 0 {
		return finish("no-news"), nil
	}

	candidates := s.filterValid(raw, logger)
	result.Candidates = len(candidates)
	if len(candidates) == 0 {
		return finish("no-valid-articles"), nil
	}

	fresh := s.dropKnown(ctx, category, candidates, result, logger)
	if len(fresh) == 0 {
		return finish("no-new-articles"), nil
	}

	if len(fresh) > s.cfg.SummarizeLimit {
		logger.Info("truncating batch for analysis",
			slog.Int("new_articles", len(fresh)),
			slog.Int("limit", s.cfg.SummarizeLimit))
		fresh = fresh[:s.cfg.SummarizeLimit]
	}

	articles := s.analyzeAll(ctx, category, fresh)
	result.Summarized = len(articles)
	if len(articles) == 0 {
		return finish("no-summarized-output"), nil
	}

	saveResult, err := s.articles.SaveMany(ctx, articles)
	if err != nil {
		metrics.RecordPipelineRun(category, "error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	result.Saved = len(saveResult.Saved)
	result.Skipped = saveResult.Skipped
	result.Errors = len(saveResult.Errors)
	metrics.RecordArticlesSaved(category, result.Saved)
	for _, saveErr := range saveResult.Errors {
		logger.Warn("article was not saved",
			slog.String("title", saveErr.Title),
			slog.Any("error", saveErr.Err))
	}

	if s.notifier != nil && len(saveResult.Saved) > 0 {
		s.notifySavedDetached(runID, category, saveResult.Saved)
	}

	return finish(""), nil
}

// FetchAndSaveMultipleCategories runs the pipeline per category
// sequentially, pausing between categories so the provider and the AI API
// see a spread-out load. A failing category is reported in its result and
// does not stop the remaining ones.
func (s *Service) FetchAndSaveMultipleCategories(ctx context.Context, categories []string) []*PipelineResult {
	results := make([]*PipelineResult, 0, len(categories))

	for i, category := range categories {
		if i > 0 {
			select {
			case <-time.After(s.cfg.CategoryDelay):
			case <-ctx.Done():
				slog.Warn("multi-category run canceled",
					slog.Int("completed", len(results)),
					slog.Int("total", len(categories)))
				return results
			}
		}

		result, err := s.FetchAndSaveNews(ctx, category)
		if err != nil {
			slog.Error("pipeline run failed",
				slog.String("category", category),
				slog.Any("error", err))
			results = append(results, &PipelineResult{
				Category: entity.NormalizeCategory(category),
				Reason:   "error",
				Errors:   1,
			})
			continue
		}
		results = append(results, result)
	}

	return results
}

// Shutdown waits for detached notification goroutines to finish, up to the
// context deadline.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.notifyGroup.Wait() }()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out waiting for notifications: %w", ctx.Err())
	}
}

// filterValid drops results without the required fields or with an invalid
// link.
func (s *Service) filterValid(raw []entity.RawArticle, logger *slog.Logger) []entity.RawArticle {
	valid := make([]entity.RawArticle, 0, len(raw))
	for _, article := range raw {
		if !article.HasRequiredFields() {
			logger.Debug("dropping result without title or link",
				slog.String("title", article.Title))
			continue
		}
		if err := entity.ValidateURL(article.Link); err != nil {
			logger.Debug("dropping result with invalid link",
				slog.String("link", article.Link),
				slog.Any("error", err))
			continue
		}
		valid = append(valid, article)
	}
	return valid
}

// dropKnown removes candidates already stored or repeated within the batch.
// A failed recent-articles lookup degrades to batch-only deduplication, the
// save layer still skips stored URLs.
func (s *Service) dropKnown(ctx context.Context, category string, candidates []entity.RawArticle, result *PipelineResult, logger *slog.Logger) []entity.RawArticle {
	recent, err := s.articles.FindRecentByTopic(ctx, category, s.cfg.RecentWindow)
	if err != nil {
		logger.Warn("recent articles lookup failed, deduplicating within batch only",
			slog.Any("error", err))
		recent = nil
	}

	index := newDedupeIndex(recent)
	stored := len(index.titles)

	fresh := make([]entity.RawArticle, 0, len(candidates))
	for _, candidate := range candidates {
		if index.seen(candidate) {
			result.Deduplicated++
			reason := "batch"
			if stored > 0 {
				// Both sources share the index; stored wins the label
				// because it is the common case right after a run.
				reason = "stored"
			}
			metrics.RecordArticleDeduplicated(category, reason)
			continue
		}
		index.add(candidate.Title, candidate.Link)
		fresh = append(fresh, candidate)
	}
	return fresh
}

// analyzeAll runs the analyzer over the articles in concurrent batches with
// a pause in between. An analysis failure falls back to the snippet-based
// analysis; an article only drops out when even the fallback has no summary.
func (s *Service) analyzeAll(ctx context.Context, category string, fresh []entity.RawArticle) []*entity.Article {
	analyses := make([]entity.Analysis, len(fresh))

	for batchStart := 0; batchStart < len(fresh); batchStart += s.cfg.AnalyzeBatchSize {
		batchEnd := batchStart + s.cfg.AnalyzeBatchSize
		if batchEnd > len(fresh) {
			batchEnd = len(fresh)
		}

		var group errgroup.Group
		for i := batchStart; i < batchEnd; i++ {
			group.Go(func() error {
				start := time.Now()
				analysis, err := s.analyzer.Analyze(ctx, fresh[i], category)
				metrics.RecordSummarizationDuration(time.Since(start))
				if err != nil {
					metrics.RecordArticleSummarized(false)
					slog.Warn("analysis failed, using fallback",
						slog.String("title", fresh[i].Title),
						slog.Any("error", err))
					analysis = entity.FallbackAnalysis(fresh[i], category)
				} else {
					metrics.RecordArticleSummarized(true)
				}
				analyses[i] = analysis
				return nil
			})
		}
		_ = group.Wait()

		if batchEnd < len(fresh) {
			select {
			case <-time.After(s.cfg.AnalyzeBatchPause):
			case <-ctx.Done():
				return s.buildArticles(category, fresh[:batchEnd], analyses)
			}
		}
	}

	return s.buildArticles(category, fresh, analyses)
}

// buildArticles turns raw articles plus analyses into persistable entities.
func (s *Service) buildArticles(category string, fresh []entity.RawArticle, analyses []entity.Analysis) []*entity.Article {
	now := time.Now()
	articles := make([]*entity.Article, 0, len(fresh))
	for i, raw := range fresh {
		analysis := analyses[i]
		if strings.TrimSpace(analysis.Summary) == "" {
			continue
		}

		topic := analysis.Topic
		if topic == "" {
			topic = category
		}

		articles = append(articles, &entity.Article{
			SourceName:   raw.Source,
			Title:        raw.Title,
			Summary:      analysis.Summary,
			OriginalURL:  raw.Link,
			ContentText:  raw.Snippet,
			LanguageCode: "en",
			ImageURL:     raw.Thumbnail,
			Actors:       analysis.Actors,
			Place:        analysis.Place,
			Topic:        topic,
			Subtopic:     analysis.Subtopic,
			Sentiment:    analysis.Sentiment,
			ReadTime:     text.ReadTimeMinutes(analysis.Summary),
			PublishedAt:  parsePublishedAt(raw.Date, now),
			CreatedAt:    now,
		})
	}
	return articles
}

// publishedAtLayout matches the search provider's date format, e.g.
// "08/30/2026, 10:00 AM, +0000 UTC".
const publishedAtLayout = "01/02/2006, 03:04 PM, -0700 MST"

// parsePublishedAt parses the provider date, falling back to now when the
// format does not match.
func parsePublishedAt(date string, fallback time.Time) time.Time {
	if date == "" {
		return fallback
	}
	parsed, err := time.Parse(publishedAtLayout, date)
	if err != nil {
		return fallback
	}
	return parsed
}

// notifySavedDetached pushes the saved articles to subscribers in the
// background, one article at a time with a small delay. The goroutine uses
// a fresh context: pipeline completion must not cancel deliveries.
func (s *Service) notifySavedDetached(runID, category string, saved []*entity.Article) {
	s.notifyGroup.Go(func() error {
		ctx := context.Background()
		logger := slog.With(
			slog.String("run_id", runID),
			slog.String("category", category))
		logger.Info("notifying subscribers about saved articles",
			slog.Int("count", len(saved)))

		for i, article := range saved {
			if i > 0 {
				time.Sleep(s.cfg.NotifyDelay)
			}
			result := s.notifier.NotifySubscribers(ctx, article, category)
			if result.Skipped {
				logger.Info("notification skipped",
					slog.Int64("article_id", article.ID),
					slog.String("reason", result.Reason))
				continue
			}
			if !result.Success {
				logger.Warn("notification delivery failed",
					slog.Int64("article_id", article.ID),
					slog.Int("failed", result.Failed))
			}
		}
		return nil
	})
}
