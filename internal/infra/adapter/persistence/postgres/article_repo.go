// Package postgres contains the PostgreSQL implementations of the
// repository interfaces.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/repository"

	"github.com/lib/pq"
)

const articleColumns = `id, source_id, title, summary, original_url, content_text,
language_code, image_url, actors, place, topic, subtopic, sentiment, read_time,
published_at, created_at`

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// FindRecentByTopic returns up to limit recently stored articles whose topic
// matches the category, newest first. Topic matching is case-insensitive.
func (repo *ArticleRepo) FindRecentByTopic(ctx context.Context, topic string, limit int) ([]*entity.Article, error) {
	const query = `
SELECT ` + articleColumns + `
FROM articles
WHERE LOWER(topic) = LOWER($1)
ORDER BY created_at DESC
LIMIT $2`

	rows, err := repo.db.QueryContext(ctx, query, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("FindRecentByTopic: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("FindRecentByTopic: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// SaveMany persists a batch of summarized articles one by one. An article
// whose original_url already exists is skipped and counted, not treated as
// an error; other per-article failures are collected in the result and the
// batch continues. Only the inserted articles appear in result.Saved, with
// their assigned IDs, because those are the ones worth notifying about.
func (repo *ArticleRepo) SaveMany(ctx context.Context, articles []*entity.Article) (*repository.SaveResult, error) {
	result := &repository.SaveResult{}

	for _, article := range articles {
		saved, err := repo.saveOne(ctx, article)
		if err != nil {
			result.Errors = append(result.Errors, repository.SaveError{Title: article.Title, Err: err})
			continue
		}
		if saved == nil {
			result.Skipped++
			continue
		}
		result.Saved = append(result.Saved, saved)
	}

	slog.Info("batch save completed",
		slog.Int("saved", len(result.Saved)),
		slog.Int("skipped", result.Skipped),
		slog.Int("errors", len(result.Errors)))

	return result, nil
}

// saveOne inserts a single article. Returns (nil, nil) when the article
// already exists by original_url.
func (repo *ArticleRepo) saveOne(ctx context.Context, article *entity.Article) (*entity.Article, error) {
	exists, err := repo.ExistsByURL(ctx, article.OriginalURL)
	if err != nil {
		return nil, fmt.Errorf("check existing: %w", err)
	}
	if exists {
		return nil, nil
	}

	sourceID, err := repo.findOrCreateSource(ctx, article.SourceName)
	if err != nil {
		// A missing source row is not worth losing the article over.
		slog.Warn("failed to resolve source, saving article without one",
			slog.String("source", article.SourceName),
			slog.Any("error", err))
		sourceID = nil
	}
	article.SourceID = sourceID

	const query = `
INSERT INTO articles (source_id, title, summary, original_url, content_text,
language_code, image_url, actors, place, topic, subtopic, sentiment, read_time,
published_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (original_url) DO NOTHING
RETURNING id`

	err = repo.db.QueryRowContext(ctx, query,
		article.SourceID, article.Title, article.Summary, article.OriginalURL,
		article.ContentText, article.LanguageCode, article.ImageURL,
		pq.Array(article.Actors), article.Place, article.Topic, article.Subtopic,
		article.Sentiment, article.ReadTime, article.PublishedAt, article.CreatedAt,
	).Scan(&article.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a race with a concurrent insert of the same URL.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}

	return article, nil
}

// findOrCreateSource resolves a source name to its row id, creating the row
// when needed. Unknown or empty names map to a nil source id.
func (repo *ArticleRepo) findOrCreateSource(ctx context.Context, name string) (*int64, error) {
	if name == "" || name == "Unknown" || name == "Unknown Source" {
		return nil, nil
	}

	const query = `
INSERT INTO sources (name, is_active)
VALUES ($1, TRUE)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

	var id int64
	if err := repo.db.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("findOrCreateSource: %w", err)
	}
	return &id, nil
}

func (repo *ArticleRepo) ExistsByURL(ctx context.Context, url string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM articles WHERE original_url = $1)`
	var exists bool
	if err := repo.db.QueryRowContext(ctx, query, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("ExistsByURL: %w", err)
	}
	return exists, nil
}

func (repo *ArticleRepo) CountArticles(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM articles`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountArticles: %w", err)
	}
	return count, nil
}

// scanArticle reads one article row, mapping nullable columns onto the
// entity's zero values.
func scanArticle(rows *sql.Rows) (*entity.Article, error) {
	var article entity.Article
	var sourceID sql.NullInt64
	var contentText, languageCode, imageURL, place, topic, subtopic sql.NullString
	var sentiment sql.NullFloat64
	var readTime sql.NullInt64

	if err := rows.Scan(&article.ID, &sourceID, &article.Title, &article.Summary,
		&article.OriginalURL, &contentText, &languageCode, &imageURL,
		pq.Array(&article.Actors), &place, &topic, &subtopic, &sentiment,
		&readTime, &article.PublishedAt, &article.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	if sourceID.Valid {
		article.SourceID = &sourceID.Int64
	}
	article.ContentText = contentText.String
	article.LanguageCode = languageCode.String
	article.ImageURL = imageURL.String
	article.Place = place.String
	article.Topic = topic.String
	article.Subtopic = subtopic.String
	article.Sentiment = sentiment.Float64
	article.ReadTime = int(readTime.Int64)

	return &article, nil
}
