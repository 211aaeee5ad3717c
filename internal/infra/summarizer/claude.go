package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/resilience/circuitbreaker"
	"newsxpress/internal/resilience/retry"
)

// Claude implements ArticleAnalyzer using Anthropic's Claude API.
// Configured through LoadClaudeAnalyzerConfig; reliability patterns match
// the Groq analyzer.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          AnalyzerConfig
	metricsRecorder AnalysisMetricsRecorder
}

// NewClaude creates a Claude analyzer with the given API key.
func NewClaude(apiKey string) *Claude {
	config := LoadClaudeAnalyzerConfig()

	slog.Info("initialized claude analyzer",
		slog.String("model", config.Model),
		slog.Int("summary_word_limit", config.SummaryWordLimit))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusAnalysisMetrics(),
	}
}

// Analyze produces a structured analysis for one article.
func (c *Claude) Analyze(ctx context.Context, article entity.RawArticle, category string) (entity.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var analysis entity.Analysis

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doAnalyze(ctx, article, category)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		analysis = cbResult.(entity.Analysis)
		return nil
	})
	if retryErr != nil {
		c.metricsRecorder.RecordOutcome("claude", "error")
		return entity.Analysis{}, fmt.Errorf("claude analyze failed after retries: %w", retryErr)
	}

	c.metricsRecorder.RecordOutcome("claude", "ok")
	return analysis, nil
}

// doAnalyze performs one API call without retry or circuit breaker.
func (c *Claude) doAnalyze(ctx context.Context, article entity.RawArticle, category string) (entity.Analysis, error) {
	requestID := uuid.New().String()
	prompt := buildAnalysisPrompt(article, category, c.config.SummaryWordLimit, c.config.MaxInputChars)

	slog.InfoContext(ctx, "starting article analysis",
		slog.String("request_id", requestID),
		slog.String("category", category),
		slog.String("title", article.Title))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)
	c.metricsRecorder.RecordDuration("claude", duration)

	if err != nil {
		slog.ErrorContext(ctx, "article analysis failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return entity.Analysis{}, fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return entity.Analysis{}, fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return entity.Analysis{}, fmt.Errorf("claude api returned unexpected response type")
	}

	analysis, err := parseAnalysisResponse(textBlock.Text)
	if err != nil {
		c.metricsRecorder.RecordParseFailure("claude")
		slog.WarnContext(ctx, "analysis reply was not parseable JSON",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return entity.Analysis{}, err
	}

	slog.InfoContext(ctx, "article analysis completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.String("topic", analysis.Topic),
		slog.Float64("sentiment", analysis.Sentiment))

	return analysis, nil
}
