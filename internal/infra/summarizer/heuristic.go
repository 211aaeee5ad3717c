package summarizer

import (
	"context"

	"newsxpress/internal/domain/entity"
)

// Heuristic is an analyzer that never calls a provider: it derives a neutral
// analysis from the raw article fields. Used in development, in tests, and
// as the degraded mode when no AI API key is configured.
type Heuristic struct{}

// NewHeuristic creates a new heuristic analyzer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Analyze returns the fallback analysis for the article.
func (h *Heuristic) Analyze(_ context.Context, article entity.RawArticle, category string) (entity.Analysis, error) {
	return entity.FallbackAnalysis(article, category), nil
}
