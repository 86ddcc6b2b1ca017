package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sandalwoods/six-figure-rag-api/internal/bootstrap"
	"github.com/sandalwoods/six-figure-rag-api/internal/config"
	"github.com/sandalwoods/six-figure-rag-api/internal/observability/logging"
	"github.com/sandalwoods/six-figure-rag-api/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(serviceName, logging.Options{Level: cfg.LogLevel, AddSource: cfg.LogSource}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	pool := newWorkerPool(cfg.WorkerPoolSize)

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject, "pool_size", cfg.WorkerPoolSize)
	// The handler only admits the task into the pool; the document work runs
	// in its own goroutine so one slow document never stalls delivery of the
	// rest.
	err = app.Queue.SubscribeIngestionTasks(ctx, func(handlerCtx context.Context, documentID string) error {
		pool.Submit(func() {
			processOne(handlerCtx, app, workerMetrics, cfg.DocumentTimeout, documentID)
		})
		return nil
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
	pool.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func processOne(ctx context.Context, app *bootstrap.App, workerMetrics *metrics.WorkerMetrics, timeout time.Duration, documentID string) {
	if doc, err := app.Repo.GetByID(ctx, documentID); err == nil {
		workerMetrics.ObserveQueueLag(serviceName, time.Since(doc.UpdatedAt))
	}

	workerMetrics.StartDocument()
	start := time.Now()

	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	processErr := app.ProcessUC.ProcessByID(processCtx, documentID)

	workerMetrics.FinishDocument(serviceName, time.Since(start), processErr)
	if processErr != nil {
		slog.Error("ingestion_task_failed", "document_id", documentID, "error", processErr)
		return
	}
	if doc, err := app.Repo.GetByID(ctx, documentID); err == nil {
		workerMetrics.ObserveIndexedChunks(serviceName, indexedChunkCount(doc.Details))
	}
}

// indexedChunkCount reads the chunking stage diagnostics. Details come back
// from the database through JSON, so numbers arrive as float64.
func indexedChunkCount(details map[string]any) int {
	stage, ok := details["chunking"].(map[string]any)
	if !ok {
		return 0
	}
	switch v := stage["total_chunks"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
