package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadNewsSearchConfigFromEnv_Defaults(t *testing.T) {
	cfg := LoadNewsSearchConfigFromEnv()
	assert.Equal(t, "https://serpapi.com/search.json", cfg.BaseURL)
	assert.Equal(t, "in", cfg.Country)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 50, cfg.MaxResults)
}

func TestLoadNewsSearchConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SERP_API_KEY", "secret")
	t.Setenv("NEWS_SEARCH_COUNTRY", "us")
	t.Setenv("NEWS_SEARCH_TIMEOUT", "30s")
	t.Setenv("NEWS_MAX_RESULTS", "25")

	cfg := LoadNewsSearchConfigFromEnv()
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "us", cfg.Country)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 25, cfg.MaxResults)
}

func TestLoadNewsSearchConfigFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("NEWS_SEARCH_TIMEOUT", "not-a-duration")
	t.Setenv("NEWS_MAX_RESULTS", "5000")

	cfg := LoadNewsSearchConfigFromEnv()
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 50, cfg.MaxResults)
}

func TestNewsSearchConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewsSearchConfig)
		wantErr bool
	}{
		{"valid", func(c *NewsSearchConfig) { c.APIKey = "k" }, false},
		{"missing api key", func(c *NewsSearchConfig) {}, true},
		{"empty base url", func(c *NewsSearchConfig) { c.APIKey = "k"; c.BaseURL = "" }, true},
		{"zero timeout", func(c *NewsSearchConfig) { c.APIKey = "k"; c.Timeout = 0 }, true},
		{"max results too high", func(c *NewsSearchConfig) { c.APIKey = "k"; c.MaxResults = 200 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultNewsSearchConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
