// Package fetcher provides the news search client used by the ingestion
// pipeline to discover fresh headlines per category.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/resilience/circuitbreaker"
	"newsxpress/internal/resilience/retry"
)

// ErrNewsSearchFailed indicates the search provider could not be queried
// after retries, or returned an unusable response.
var ErrNewsSearchFailed = errors.New("news search failed")

// SerpAPIClient fetches Google News results through the SerpAPI search
// endpoint. Requests are retried with backoff and guarded by a circuit
// breaker so a provider outage degrades a pipeline run instead of hanging it.
type SerpAPIClient struct {
	cfg     NewsSearchConfig
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewSerpAPIClient creates a news search client. Returns an error when the
// configuration cannot produce working requests.
func NewSerpAPIClient(cfg NewsSearchConfig) (*SerpAPIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("NewSerpAPIClient: %w", err)
	}
	return &SerpAPIClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.New(circuitbreaker.NewsSearchConfig()),
	}, nil
}

// searchResponse mirrors the subset of the SerpAPI google_news payload the
// pipeline consumes.
type searchResponse struct {
	NewsResults []newsResult `json:"news_results"`
	Error       string       `json:"error"`
}

type newsResult struct {
	Position  int        `json:"position"`
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Source    sourceName `json:"source"`
	Date      string     `json:"date"`
	Snippet   string     `json:"snippet"`
	Thumbnail string     `json:"thumbnail"`
}

// sourceName tolerates both shapes SerpAPI has used for the source field:
// a plain string and an object with a name key.
type sourceName string

func (s *sourceName) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = sourceName(plain)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("source field: %w", err)
	}
	*s = sourceName(obj.Name)
	return nil
}

// SearchNews queries the provider for recent news in the category and maps
// the first count results to raw articles. The query follows the
// "India <category> news" convention; an empty category searches "India news".
func (c *SerpAPIClient) SearchNews(ctx context.Context, category string, count int) ([]entity.RawArticle, error) {
	if count <= 0 || count > c.cfg.MaxResults {
		count = c.cfg.MaxResults
	}

	query := "India news"
	if category != "" {
		query = fmt.Sprintf("India %s news", category)
	}

	var payload searchResponse
	err := retry.WithBackoff(ctx, retry.NewsSearchConfig(), func() error {
		_, execErr := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.doSearch(ctx, query, &payload)
		})
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNewsSearchFailed, err)
	}

	if payload.Error != "" {
		return nil, fmt.Errorf("%w: provider error: %s", ErrNewsSearchFailed, payload.Error)
	}

	articles := make([]entity.RawArticle, 0, count)
	for _, result := range payload.NewsResults {
		if len(articles) >= count {
			break
		}
		articles = append(articles, entity.RawArticle{
			Title:     strings.TrimSpace(result.Title),
			Link:      result.Link,
			Source:    string(result.Source),
			Date:      result.Date,
			Snippet:   result.Snippet,
			Thumbnail: result.Thumbnail,
			Position:  result.Position,
		})
	}

	slog.Info("news search completed",
		slog.String("category", category),
		slog.String("query", query),
		slog.Int("results", len(payload.NewsResults)),
		slog.Int("returned", len(articles)))

	return articles, nil
}

// doSearch performs one HTTP round-trip and decodes the body into out.
// Non-2xx statuses surface as retry.HTTPError so the retry policy can tell
// transient failures from permanent ones.
func (c *SerpAPIClient) doSearch(ctx context.Context, query string, out *searchResponse) error {
	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", query)
	params.Set("gl", c.cfg.Country)
	params.Set("hl", c.cfg.Language)
	params.Set("api_key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
