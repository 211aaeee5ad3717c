package summarizer

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	pkgconfig "newsxpress/internal/pkg/config"
)

// AnalyzerConfig holds the shared configuration for AI article analyzers.
// Configuration is loaded from environment variables with fallback to defaults.
type AnalyzerConfig struct {
	// Model is the provider model identifier used for analysis.
	Model string

	// BaseURL is the API endpoint. Only meaningful for OpenAI-compatible
	// providers (Groq); overridable for tests.
	BaseURL string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single analysis API call.
	Timeout time.Duration

	// MaxInputChars caps how much article text is sent to the provider.
	// Valid range: 500-20000. Default: 4000.
	MaxInputChars int

	// SummaryWordLimit is the word budget the prompt asks the model to
	// respect. Soft limit only; oversized summaries are kept.
	// Valid range: 20-300. Default: 60.
	SummaryWordLimit int
}

// Validate checks that the configuration can produce working requests.
func (c *AnalyzerConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxInputChars < 500 || c.MaxInputChars > 20000 {
		return fmt.Errorf("max input chars must be 500-20000, got %d", c.MaxInputChars)
	}
	if c.SummaryWordLimit < 20 || c.SummaryWordLimit > 300 {
		return fmt.Errorf("summary word limit must be 20-300, got %d", c.SummaryWordLimit)
	}
	return nil
}

// loadSharedConfig applies the environment overrides common to all providers.
func loadSharedConfig(cfg AnalyzerConfig) AnalyzerConfig {
	inputChars := pkgconfig.LoadEnvInt("ANALYZER_MAX_INPUT_CHARS", cfg.MaxInputChars, func(n int) error {
		return pkgconfig.ValidateIntRange(n, 500, 20000)
	})
	cfg.MaxInputChars = inputChars.Value.(int)
	for _, warning := range inputChars.Warnings {
		slog.Warn(warning)
	}

	wordLimit := pkgconfig.LoadEnvInt("ANALYZER_SUMMARY_WORDS", cfg.SummaryWordLimit, func(n int) error {
		return pkgconfig.ValidateIntRange(n, 20, 300)
	})
	cfg.SummaryWordLimit = wordLimit.Value.(int)
	for _, warning := range wordLimit.Warnings {
		slog.Warn(warning)
	}

	timeout := pkgconfig.LoadEnvDuration("ANALYZER_TIMEOUT", cfg.Timeout, pkgconfig.ValidatePositiveDuration)
	cfg.Timeout = timeout.Value.(time.Duration)
	for _, warning := range timeout.Warnings {
		slog.Warn(warning)
	}

	return cfg
}

// LoadGroqConfig loads the Groq analyzer configuration.
//
// Environment variables:
//   - GROQ_MODEL: model identifier (default: llama-3.1-8b-instant)
//   - GROQ_BASE_URL: OpenAI-compatible endpoint
//   - ANALYZER_MAX_INPUT_CHARS, ANALYZER_SUMMARY_WORDS, ANALYZER_TIMEOUT
func LoadGroqConfig() AnalyzerConfig {
	return loadSharedConfig(AnalyzerConfig{
		Model:            pkgconfig.LoadEnvString("GROQ_MODEL", "llama-3.1-8b-instant"),
		BaseURL:          pkgconfig.LoadEnvString("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		MaxTokens:        1024,
		Timeout:          60 * time.Second,
		MaxInputChars:    4000,
		SummaryWordLimit: 60,
	})
}

// LoadClaudeAnalyzerConfig loads the Claude analyzer configuration.
//
// Environment variables:
//   - CLAUDE_MODEL: model identifier
//   - ANALYZER_MAX_INPUT_CHARS, ANALYZER_SUMMARY_WORDS, ANALYZER_TIMEOUT
func LoadClaudeAnalyzerConfig() AnalyzerConfig {
	return loadSharedConfig(AnalyzerConfig{
		Model:            pkgconfig.LoadEnvString("CLAUDE_MODEL", "claude-3-5-haiku-20241022"),
		MaxTokens:        1024,
		Timeout:          60 * time.Second,
		MaxInputChars:    4000,
		SummaryWordLimit: 60,
	})
}

// NewAnalyzerFromEnv builds the analyzer selected by SUMMARIZER_PROVIDER
// (groq, claude, or noop; default groq). A missing API key degrades to the
// heuristic analyzer with a warning so a pipeline run can still save
// articles, just without AI analysis.
func NewAnalyzerFromEnv() ArticleAnalyzer {
	provider := pkgconfig.LoadEnvString("SUMMARIZER_PROVIDER", "groq")

	switch provider {
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			slog.Warn("ANTHROPIC_API_KEY not set, using heuristic analyzer")
			return NewHeuristic()
		}
		return NewClaude(apiKey)
	case "noop":
		return NewHeuristic()
	case "groq":
	default:
		slog.Warn("unknown summarizer provider, using groq",
			slog.String("provider", provider))
	}

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		slog.Warn("GROQ_API_KEY not set, using heuristic analyzer")
		return NewHeuristic()
	}
	return NewGroq(apiKey, LoadGroqConfig())
}
