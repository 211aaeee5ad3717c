// Package repository defines the persistence interfaces consumed by the
// use cases. Concrete implementations live under
// internal/infra/adapter/persistence.
package repository

import (
	"context"

	"newsxpress/internal/domain/entity"
)

// SaveError records a single article that could not be persisted during a
// batch save. The batch itself carries on past individual failures.
type SaveError struct {
	Title string
	Err   error
}

// SaveResult is the aggregated outcome of a batch save.
// Saved contains the articles actually inserted (with their assigned IDs),
// which is the list the notification loop iterates afterwards. Articles that
// already existed by original_url are counted in Skipped, not in Errors.
type SaveResult struct {
	Saved   []*entity.Article
	Skipped int
	Errors  []SaveError
}

// ArticleRepository manages persisted, summarized articles.
type ArticleRepository interface {
	// FindRecentByTopic returns up to limit of the most recently stored
	// articles whose topic matches the given category (case-insensitive).
	// Used to build the dedup set before ingesting a fresh batch.
	FindRecentByTopic(ctx context.Context, topic string, limit int) ([]*entity.Article, error)

	// SaveMany persists a batch of summarized articles. Row-level idempotency:
	// an article whose original_url already exists is skipped, not an error.
	// Per-article failures are collected in the result, never returned as the
	// error; the error return is reserved for total failures (no connection).
	SaveMany(ctx context.Context, articles []*entity.Article) (*SaveResult, error)

	// ExistsByURL reports whether an article with the given original_url is
	// already stored.
	ExistsByURL(ctx context.Context, url string) (bool, error)

	// CountArticles returns the total number of stored articles.
	// Used to refresh the articles-total gauge after each pipeline run.
	CountArticles(ctx context.Context) (int64, error)
}
