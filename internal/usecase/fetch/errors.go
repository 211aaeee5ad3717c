// Package fetch implements the ingestion pipeline use case: search for
// fresh news per category, drop what is already known, analyze what is new,
// persist it, and hand the saved articles to the notify service.
package fetch

import "errors"

// Sentinel errors for pipeline operations.
var (
	// ErrSearchFailed indicates the news search provider could not be
	// queried for a category.
	ErrSearchFailed = errors.New("news search failed for category")

	// ErrSaveFailed indicates the article batch could not be persisted.
	ErrSaveFailed = errors.New("failed to save article batch")
)
