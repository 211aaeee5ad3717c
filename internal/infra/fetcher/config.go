package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	pkgconfig "newsxpress/internal/pkg/config"
)

// NewsSearchConfig holds the configuration for the news search client.
//
// The search provider is queried per category on every pipeline run, so the
// timeout here must stay well below the per-category pipeline budget.
type NewsSearchConfig struct {
	// APIKey authenticates against the search provider. Required.
	APIKey string

	// BaseURL is the search endpoint. Overridable for tests.
	// Default: https://serpapi.com/search.json
	BaseURL string

	// Country is the geographic edition to search (gl parameter).
	// Default: in
	Country string

	// Language is the result language (hl parameter).
	// Default: en
	Language string

	// Timeout bounds a single search request.
	// Default: 15s
	Timeout time.Duration

	// MaxResults caps how many results a single search may return,
	// regardless of what the caller asks for.
	// Default: 50
	MaxResults int
}

// DefaultNewsSearchConfig returns production defaults. The API key is left
// empty and must be supplied by the environment.
func DefaultNewsSearchConfig() NewsSearchConfig {
	return NewsSearchConfig{
		BaseURL:    "https://serpapi.com/search.json",
		Country:    "in",
		Language:   "en",
		Timeout:    15 * time.Second,
		MaxResults: 50,
	}
}

// LoadNewsSearchConfigFromEnv builds the config from environment variables,
// falling back to defaults (with warnings) on invalid values:
//
//	SERP_API_KEY        - required, no default
//	NEWS_SEARCH_URL     - search endpoint
//	NEWS_SEARCH_COUNTRY - gl parameter
//	NEWS_SEARCH_LANG    - hl parameter
//	NEWS_SEARCH_TIMEOUT - Go duration, 1s..2m
//	NEWS_MAX_RESULTS    - 1..100
func LoadNewsSearchConfigFromEnv() NewsSearchConfig {
	cfg := DefaultNewsSearchConfig()
	cfg.APIKey = pkgconfig.LoadEnvString("SERP_API_KEY", "")
	cfg.BaseURL = pkgconfig.LoadEnvString("NEWS_SEARCH_URL", cfg.BaseURL)
	cfg.Country = pkgconfig.LoadEnvString("NEWS_SEARCH_COUNTRY", cfg.Country)
	cfg.Language = pkgconfig.LoadEnvString("NEWS_SEARCH_LANG", cfg.Language)

	timeout := pkgconfig.LoadEnvDuration("NEWS_SEARCH_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 2*time.Minute)
	})
	cfg.Timeout = timeout.Value.(time.Duration)
	for _, warning := range timeout.Warnings {
		slog.Warn(warning)
	}

	maxResults := pkgconfig.LoadEnvInt("NEWS_MAX_RESULTS", cfg.MaxResults, func(n int) error {
		return pkgconfig.ValidateIntRange(n, 1, 100)
	})
	cfg.MaxResults = maxResults.Value.(int)
	for _, warning := range maxResults.Warnings {
		slog.Warn(warning)
	}

	return cfg
}

// Validate checks that the configuration can produce working requests.
func (c *NewsSearchConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("news search API key is required (set SERP_API_KEY)")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("news search base URL must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("news search timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxResults < 1 || c.MaxResults > 100 {
		return fmt.Errorf("max results must be 1-100, got %d", c.MaxResults)
	}
	return nil
}
