// Package observability provides the observability infrastructure for the
// ingestion and notification pipeline: structured logging and Prometheus
// metrics.
//
// Subpackages:
//   - logging: structured logging utilities with slog and per-run ids
//   - metrics: Prometheus collectors and recording helpers
//
// Example usage:
//
//	import (
//	    "newsxpress/internal/observability/logging"
//	    "newsxpress/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started")
//
//	    metrics.RecordArticlesFetched("technology", 10)
//	}
package observability
