// Package main provides a manual trigger for the notification path.
// Usage: newsxpress-notify --category business [--mode pipeline|direct]
//
// It exercises the exact code the cron worker runs, which makes it the
// standard way to verify that an overlapping manual trigger is suppressed
// by the idempotency cache instead of double-notifying subscribers.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"newsxpress/internal/domain/entity"
	pgRepo "newsxpress/internal/infra/adapter/persistence/postgres"
	"newsxpress/internal/infra/db"
	"newsxpress/internal/infra/fetcher"
	"newsxpress/internal/infra/notifier"
	"newsxpress/internal/infra/summarizer"
	"newsxpress/internal/observability/logging"
	fetchUC "newsxpress/internal/usecase/fetch"
	notifyUC "newsxpress/internal/usecase/notify"
)

func main() {
	var (
		category string
		mode     string
		title    string
		summary  string
	)

	flag.StringVar(&category, "category", "", "News category to notify (required)")
	flag.StringVar(&mode, "mode", "pipeline", "Trigger mode: pipeline (full run) or direct (one test notification)")
	flag.StringVar(&title, "title", "Test notification", "Article title for direct mode")
	flag.StringVar(&summary, "summary", "This is a test push from the notify trigger.", "Article summary for direct mode")
	flag.Parse()

	if category == "" {
		fmt.Fprintln(os.Stderr, "Error: --category is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: newsxpress-notify --category business [--mode pipeline|direct]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  newsxpress-notify --category business")
		fmt.Fprintln(os.Stderr, "  newsxpress-notify --category sports --mode direct --title \"Ind vs Aus\"")
		os.Exit(1)
	}

	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	messagingClient, err := notifier.NewMessagingClient(ctx)
	if err != nil {
		logger.Error("failed to initialize Firebase messaging", slog.Any("error", err))
		os.Exit(1)
	}

	notifyService := notifyUC.NewService(
		pgRepo.NewSubscriberRepo(database),
		notifier.NewDispatcher(messagingClient),
		notifier.NewSendCache(),
		notifier.NewInFlightGuard(),
		os.Getenv("PUBLIC_BASE_URL"),
	)

	switch mode {
	case "pipeline":
		runPipeline(ctx, logger, database, notifyService, category)
	case "direct":
		runDirect(ctx, logger, notifyService, category, title, summary)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q (expected pipeline or direct)\n", mode)
		os.Exit(1)
	}
}

// runPipeline executes one full fetch-and-save run for the category, the
// same path the cron worker takes.
func runPipeline(ctx context.Context, logger *slog.Logger, database *sql.DB, notifyService *notifyUC.Service, category string) {
	newsFetcher, err := fetcher.NewSerpAPIClient(fetcher.LoadNewsSearchConfigFromEnv())
	if err != nil {
		logger.Error("failed to create news search client", slog.Any("error", err))
		os.Exit(1)
	}

	svc := fetchUC.NewService(
		pgRepo.NewArticleRepo(database),
		newsFetcher,
		summarizer.NewAnalyzerFromEnv(),
		notifyService,
		fetchUC.DefaultConfig(),
	)

	result, err := svc.FetchAndSaveNews(ctx, category)
	if err != nil {
		logger.Error("pipeline run failed", slog.Any("error", err))
		os.Exit(1)
	}

	outcome := result.Reason
	if outcome == "" {
		outcome = "completed"
	}
	fmt.Printf("Run %s: fetched %d, saved %d, skipped %d, errors %d\n",
		outcome, result.Fetched, result.Saved, result.Skipped, result.Errors)

	// Wait for the detached notification loop before exiting.
	drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := svc.Shutdown(drainCtx); err != nil {
		logger.Warn("notification drain incomplete", slog.Any("error", err))
	}
}

// runDirect sends a single synthetic notification, bypassing fetch and
// storage. Useful for verifying FCM credentials and subscriber resolution.
func runDirect(ctx context.Context, logger *slog.Logger, notifyService *notifyUC.Service, category, title, summary string) {
	article := &entity.Article{
		Title:       title,
		Summary:     summary,
		OriginalURL: "https://newsxpress.example/test",
		Topic:       category,
		PublishedAt: time.Now(),
	}

	result := notifyService.NotifySubscribers(ctx, article, category)
	printResult(result)
}

func printResult(result notifyUC.Result) {
	if result.Skipped {
		fmt.Printf("Skipped: %s\n", result.Reason)
		return
	}
	fmt.Printf("Success: %t, sent: %d, failed: %d\n", result.Success, result.Sent, result.Failed)
	if !result.Success {
		os.Exit(1)
	}
}
