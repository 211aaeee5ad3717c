package worker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsxpress/internal/pkg/config"
)

// WorkerConfig holds the runtime configuration for the ingestion worker.
// It controls the cron schedule, the categories to ingest, per-run limits
// and the health endpoint.
//
// Loading is fail-open: LoadConfigFromEnv never returns an error, invalid
// environment values fall back to defaults with a warning and a metric.
type WorkerConfig struct {
	// CronSchedule is the cron expression for pipeline runs.
	// Format: "minute hour day month weekday".
	// Default: "0 */6 * * *" (every six hours).
	CronSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Default: "Asia/Kolkata" — the audience the feed serves.
	Timezone string

	// Categories are the news categories ingested per run, in order.
	// Default: business, sports, technology, politics, entertainment.
	Categories []string

	// NewsCount is how many search results to request per category.
	// Range: 1-50. Default: 10.
	NewsCount int

	// SummarizeLimit caps AI analyses per category per run.
	// Range: 1-20. Default: 8.
	SummarizeLimit int

	// PipelineTimeout bounds one full multi-category run.
	// Range: 1m-2h. Default: 15 minutes.
	PipelineTimeout time.Duration

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns the production defaults for the worker.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:    "0 */6 * * *",
		Timezone:        "Asia/Kolkata",
		Categories:      []string{"business", "sports", "technology", "politics", "entertainment"},
		NewsCount:       10,
		SummarizeLimit:  8,
		PipelineTimeout: 15 * time.Minute,
		HealthPort:      9091,
	}
}

// Validate checks every field and returns the collected errors, so a broken
// deployment reports all problems at once instead of one per restart.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateCategories(c.Categories); err != nil {
		errs = append(errs, fmt.Errorf("categories: %w", err))
	}
	if err := config.ValidateIntRange(c.NewsCount, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("news count: %w", err))
	}
	if err := config.ValidateIntRange(c.SummarizeLimit, 1, 20); err != nil {
		errs = append(errs, fmt.Errorf("summarize limit: %w", err))
	}
	if err := config.ValidateDuration(c.PipelineTimeout, 1*time.Minute, 2*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("pipeline timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

func validateCategories(categories []string) error {
	if len(categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	for _, category := range categories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("empty category name")
		}
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from environment
// variables with validation and fallback to defaults on failure.
//
// Environment variables:
//   - CRON_SCHEDULE: cron expression (default "0 */6 * * *")
//   - WORKER_TIMEZONE: IANA timezone (default "Asia/Kolkata")
//   - NEWS_CATEGORIES: comma-separated category list
//   - NEWS_COUNT: results per category, 1-50 (default 10)
//   - SUMMARIZE_LIMIT: analyses per category, 1-20 (default 8)
//   - PIPELINE_TIMEOUT: duration string, 1m-2h (default 15m)
//   - WORKER_HEALTH_PORT: 1024-65535 (default 9091)
//
// The error return is always nil; it exists so callers keep the standard
// load-and-check shape.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	applyFallback := func(field string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		applyFallback("cron_schedule", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		applyFallback("timezone", result.Warnings)
	}

	defaultCategories := strings.Join(cfg.Categories, ",")
	result = config.LoadEnvWithFallback("NEWS_CATEGORIES", defaultCategories, func(raw string) error {
		return validateCategories(splitCategories(raw))
	})
	cfg.Categories = splitCategories(result.Value.(string))
	if result.FallbackApplied {
		applyFallback("news_categories", result.Warnings)
	}

	result = config.LoadEnvInt("NEWS_COUNT", cfg.NewsCount, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.NewsCount = result.Value.(int)
	if result.FallbackApplied {
		applyFallback("news_count", result.Warnings)
	}

	result = config.LoadEnvInt("SUMMARIZE_LIMIT", cfg.SummarizeLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, 20)
	})
	cfg.SummarizeLimit = result.Value.(int)
	if result.FallbackApplied {
		applyFallback("summarize_limit", result.Warnings)
	}

	result = config.LoadEnvDuration("PIPELINE_TIMEOUT", cfg.PipelineTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 2*time.Hour)
	})
	cfg.PipelineTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		applyFallback("pipeline_timeout", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		applyFallback("health_port", result.Warnings)
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}

// splitCategories parses a comma-separated category list, trimming
// whitespace and dropping empty entries.
func splitCategories(raw string) []string {
	parts := strings.Split(raw, ",")
	categories := make([]string, 0, len(parts))
	for _, part := range parts {
		category := strings.TrimSpace(part)
		if category == "" {
			continue
		}
		categories = append(categories, category)
	}
	return categories
}
