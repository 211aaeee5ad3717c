package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	pgRepo "newsxpress/internal/infra/adapter/persistence/postgres"
	"newsxpress/internal/infra/db"
	"newsxpress/internal/infra/fetcher"
	"newsxpress/internal/infra/notifier"
	"newsxpress/internal/infra/summarizer"
	workerPkg "newsxpress/internal/infra/worker"
	"newsxpress/internal/observability/logging"
	"newsxpress/internal/observability/metrics"
	"newsxpress/internal/repository"
	fetchUC "newsxpress/internal/usecase/fetch"
	notifyUC "newsxpress/internal/usecase/notify"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	waitForMigrations(logger, database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Any("categories", workerConfig.Categories),
		slog.Int("news_count", workerConfig.NewsCount),
		slog.Int("summarize_limit", workerConfig.SummarizeLimit),
		slog.Duration("pipeline_timeout", workerConfig.PipelineTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	articleRepo := pgRepo.NewArticleRepo(database)
	svc := setupPipelineService(ctx, logger, database, articleRepo, workerConfig)

	runJob := func() {
		runPipelineJob(logger, svc, articleRepo, workerConfig, workerMetrics)
	}

	scheduler := startCron(logger, workerConfig, runJob)
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone))

	if os.Getenv("RUN_ON_START") == "true" {
		go runJob()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Shutdown(drainCtx); err != nil {
		logger.Warn("notification drain incomplete", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// waitForMigrations blocks until the articles table is queryable, so the
// worker container can start alongside the migration job.
func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM articles LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

// setupPipelineService wires the ingestion pipeline: search provider,
// analyzer, persistence and the FCM notification path. A missing or broken
// Firebase credential disables notifications instead of failing startup;
// a missing search API key is fatal because the worker would be useless.
func setupPipelineService(
	ctx context.Context,
	logger *slog.Logger,
	database *sql.DB,
	articleRepo repository.ArticleRepository,
	workerConfig *workerPkg.WorkerConfig,
) *fetchUC.Service {
	searchConfig := fetcher.LoadNewsSearchConfigFromEnv()
	newsFetcher, err := fetcher.NewSerpAPIClient(searchConfig)
	if err != nil {
		logger.Error("failed to create news search client", slog.Any("error", err))
		os.Exit(1)
	}

	analyzer := summarizer.NewAnalyzerFromEnv()

	var articleNotifier fetchUC.ArticleNotifier
	if messagingClient, err := notifier.NewMessagingClient(ctx); err != nil {
		logger.Warn("push notifications disabled", slog.Any("error", err))
	} else {
		notifyService := notifyUC.NewService(
			pgRepo.NewSubscriberRepo(database),
			notifier.NewDispatcher(messagingClient),
			notifier.NewSendCache(),
			notifier.NewInFlightGuard(),
			os.Getenv("PUBLIC_BASE_URL"),
		)
		articleNotifier = notifyService
		logger.Info("push notifications enabled")
	}

	pipelineConfig := fetchUC.DefaultConfig()
	pipelineConfig.NewsCount = workerConfig.NewsCount
	pipelineConfig.SummarizeLimit = workerConfig.SummarizeLimit

	return fetchUC.NewService(articleRepo, newsFetcher, analyzer, articleNotifier, pipelineConfig)
}

// startCron schedules the pipeline job in the configured timezone.
func startCron(logger *slog.Logger, cfg *workerPkg.WorkerConfig, job func()) *cron.Cron {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone),
			slog.Any("error", err))
		loc = time.UTC
	}

	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(cfg.CronSchedule, job); err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	return scheduler
}

// runPipelineJob executes one scheduled multi-category run with a timeout
// and records the job metrics.
func runPipelineJob(
	logger *slog.Logger,
	svc *fetchUC.Service,
	articleRepo repository.ArticleRepository,
	cfg *workerPkg.WorkerConfig,
	jobMetrics *workerPkg.WorkerMetrics,
) {
	start := time.Now()
	logger.Info("scheduled run started", slog.Any("categories", cfg.Categories))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PipelineTimeout)
	defer cancel()

	results := svc.FetchAndSaveMultipleCategories(ctx, cfg.Categories)

	saved, failures := 0, 0
	for _, result := range results {
		saved += result.Saved
		if result.Reason == "error" {
			failures++
		}
	}

	status := "success"
	if failures > 0 {
		status = "failure"
	}
	jobMetrics.RecordJobRun(status)
	jobMetrics.RecordJobDuration(time.Since(start).Seconds())
	jobMetrics.RecordArticlesSaved(saved)
	if failures == 0 {
		jobMetrics.RecordLastSuccess()
	}

	if total, err := articleRepo.CountArticles(ctx); err == nil {
		metrics.UpdateArticlesTotal(total)
	}

	logger.Info("scheduled run completed",
		slog.Int("categories", len(results)),
		slog.Int("saved", saved),
		slog.Int("failed_categories", failures),
		slog.Duration("duration", time.Since(start)))
}
