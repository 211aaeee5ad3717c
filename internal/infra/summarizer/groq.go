package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/resilience/circuitbreaker"
	"newsxpress/internal/resilience/retry"
)

// Groq implements ArticleAnalyzer against the Groq chat-completion API,
// which speaks the OpenAI wire protocol. Circuit breaker and retry logic
// keep a flaky provider from stalling the pipeline.
type Groq struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          AnalyzerConfig
	metricsRecorder AnalysisMetricsRecorder
}

// NewGroq creates a Groq analyzer with the given API key and configuration.
func NewGroq(apiKey string, config AnalyzerConfig) *Groq {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = config.BaseURL

	slog.Info("initialized groq analyzer",
		slog.String("model", config.Model),
		slog.Int("summary_word_limit", config.SummaryWordLimit))

	return &Groq{
		client:          openai.NewClientWithConfig(clientConfig),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.GroqAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusAnalysisMetrics(),
	}
}

// Analyze produces a structured analysis for one article. It retries
// transient provider failures; a reply that parses as JSON but fails
// validation is not retried, the caller decides whether to fall back.
func (g *Groq) Analyze(ctx context.Context, article entity.RawArticle, category string) (entity.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	var analysis entity.Analysis

	retryErr := retry.WithBackoff(ctx, g.retryConfig, func() error {
		cbResult, err := g.circuitBreaker.Execute(func() (interface{}, error) {
			return g.doAnalyze(ctx, article, category)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("groq api circuit breaker open, request rejected",
					slog.String("state", g.circuitBreaker.State().String()))
				return fmt.Errorf("groq api unavailable: circuit breaker open")
			}
			return err
		}
		analysis = cbResult.(entity.Analysis)
		return nil
	})
	if retryErr != nil {
		g.metricsRecorder.RecordOutcome("groq", "error")
		return entity.Analysis{}, fmt.Errorf("groq analyze failed after retries: %w", retryErr)
	}

	g.metricsRecorder.RecordOutcome("groq", "ok")
	return analysis, nil
}

// doAnalyze performs one API call without retry or circuit breaker.
func (g *Groq) doAnalyze(ctx context.Context, article entity.RawArticle, category string) (entity.Analysis, error) {
	requestID := uuid.New().String()
	prompt := buildAnalysisPrompt(article, category, g.config.SummaryWordLimit, g.config.MaxInputChars)

	slog.InfoContext(ctx, "starting article analysis",
		slog.String("request_id", requestID),
		slog.String("category", category),
		slog.String("title", article.Title))

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.config.Model,
		MaxTokens: g.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})

	duration := time.Since(start)
	g.metricsRecorder.RecordDuration("groq", duration)

	if err != nil {
		slog.ErrorContext(ctx, "article analysis failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return entity.Analysis{}, fmt.Errorf("groq api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return entity.Analysis{}, fmt.Errorf("groq api returned empty response")
	}

	analysis, err := parseAnalysisResponse(resp.Choices[0].Message.Content)
	if err != nil {
		g.metricsRecorder.RecordParseFailure("groq")
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
