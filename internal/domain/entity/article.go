// Package entity defines the core domain entities and validation logic for the
// application. It contains the fundamental business objects such as RawArticle
// and Article, along with their validation rules and domain-specific errors.
package entity

import (
	"strings"
	"time"
)

// RawArticle represents a single news result as returned by the external
// news-search API, before any summarization or analysis has happened.
type RawArticle struct {
	Title     string
	Link      string
	Source    string
	Date      string
	Snippet   string
	Thumbnail string
	Position  int
}

// Analysis holds the output of the LLM analysis for one article.
// All fields are best-effort: a failed analysis yields the fallback values,
// never a missing Analysis.
type Analysis struct {
	Summary   string
	Sentiment float64
	Actors    []string
	Place     string
	Topic     string
	Subtopic  string
}

// FallbackAnalysis builds a neutral analysis from the raw article alone,
// used when AI analysis fails or is unavailable: a plain snippet summary
// beats dropping the article.
func FallbackAnalysis(article RawArticle, category string) Analysis {
	summary := strings.TrimSpace(article.Snippet)
	if summary == "" {
		summary = strings.TrimSpace(article.Title)
	}
	return Analysis{
		Summary:   summary,
		Sentiment: 0,
		Actors:    []string{},
		Place:     "",
		Topic:     category,
		Subtopic:  "",
	}
}

// Article represents a summarized news article as persisted in the database.
// OriginalURL is the unique key: saving an article whose OriginalURL already
// exists is treated as already-saved, not as an error.
type Article struct {
	ID           int64
	SourceID     *int64 // nil when the source name could not be resolved
	SourceName   string // as reported by the search API; resolved to SourceID on save
	Title        string
	Summary      string
	OriginalURL  string
	ContentText  string
	LanguageCode string
	ImageURL     string
	Actors       []string
	Place        string
	Topic        string
	Subtopic     string
	Sentiment    float64
	ReadTime     int
	PublishedAt  time.Time
	CreatedAt    time.Time
}
