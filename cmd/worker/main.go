package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"gitmeta/internal/config"
	handlerhttp "gitmeta/internal/handler/http"
	"gitmeta/internal/handler/http/extraction"
	"gitmeta/internal/handler/http/requestid"
	"gitmeta/internal/handler/http/respond"
	"gitmeta/internal/infra/githubapi"
	"gitmeta/internal/infra/manifest"
	"gitmeta/internal/infra/metastore"
	workerPkg "gitmeta/internal/infra/worker"
	"gitmeta/internal/observability/logging"
	"gitmeta/internal/observability/tracing"
	"gitmeta/internal/resilience/cache"
	"gitmeta/internal/resilience/circuitbreaker"
	"gitmeta/internal/usecase/extract"
	"gitmeta/internal/usecase/orchestrate"
)

const triggerBodyLimit = 1 << 20 // 1 MiB

func main() {
	logger := logging.NewLogger()

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
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
		slog.String("targets_file", workerConfig.TargetsFile),
		slog.Duration("extract_timeout", workerConfig.ExtractTimeout),
		slog.Int("max_concurrent_targets", workerConfig.MaxConcurrentTargets))

	orchestrator, err := buildOrchestrator(logger)
	if err != nil {
		logger.Error("failed to build extraction pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	startTriggerServer(ctx, logger, workerConfig, orchestrator)

	startCronWorker(ctx, logger, orchestrator, workerConfig, workerMetrics, healthServer)
}

// buildOrchestrator wires the extraction pipeline: upstream client,
// resilience singletons, extraction service, persistence, orchestrator.
func buildOrchestrator(logger *slog.Logger) (*orchestrate.Service, error) {
	extractorConfig, err := config.LoadExtractorConfig()
	if err != nil {
		return nil, err
	}

	client := githubapi.NewClient(githubapi.LoadConfigFromEnv())

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             "github-api",
		FailureThreshold: extractorConfig.CircuitBreaker.FailureThreshold,
		RecoveryTimeout:  extractorConfig.CircuitBreaker.RecoveryTimeout,
	})

	extractService := extract.NewService(
		client,
		cache.New(),
		breaker,
		manifest.NewParser(logger),
		extract.Defaults{
			CommitLimit: extractorConfig.DefaultCommitLimit,
			IssueLimit:  extractorConfig.DefaultIssueLimit,
			PRLimit:     extractorConfig.DefaultPRLimit,
			CacheTTL:    extractorConfig.CacheTTL,
		},
		logger,
	)

	store := metastore.NewFileStore(extractorConfig.MetadataDir, logger)

	return orchestrate.NewService(extractService, store, extractorConfig.SchemaVersion, logger), nil
}

// startTriggerServer exposes POST /extract for on-demand extraction runs.
func startTriggerServer(ctx context.Context, logger *slog.Logger, cfg *workerPkg.WorkerConfig, orchestrator *orchestrate.Service) {
	mux := http.NewServeMux()
	mux.Handle("/extract", extraction.TriggerHandler{Svc: orchestrator})

	var handler http.Handler = mux
	handler = handlerhttp.Timeout(cfg.ExtractTimeout)(handler)
	handler = handlerhttp.LimitRequestBody(triggerBodyLimit)(handler)
	handler = handlerhttp.Logging(logger)(handler)
	handler = tracing.Middleware(handler)
	handler = requestid.Middleware(handler)
	handler = handlerhttp.Recover(logger)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.TriggerPort),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ExtractTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("trigger server starting", slog.Int("port", cfg.TriggerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("trigger server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("trigger server shutdown error", slog.Any("error", err))
		}
	}()
}

// startCronWorker starts the cron scheduler and blocks until shutdown.
func startCronWorker(ctx context.Context, logger *slog.Logger, orchestrator *orchestrate.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runScheduledExtraction(logger, orchestrator, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("worker shutting down")

	// Let an in-flight scheduled run finish.
	stopCtx := c.Stop()
	<-stopCtx.Done()
	logger.Info("worker stopped")
}

// runScheduledExtraction re-extracts every repository in the targets file,
// bounded by the configured concurrency and timeout.
func runScheduledExtraction(logger *slog.Logger, orchestrator *orchestrate.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	startTime := time.Now()
	logger.Info("scheduled extraction started", slog.String("targets_file", cfg.TargetsFile))

	// The targets file is re-read each run so edits take effect without a
	// restart.
	targets, err := workerPkg.LoadTargets(cfg.TargetsFile)
	if err != nil {
		logger.Error("failed to load targets", slog.String("error", respond.SanitizeError(err)))
		metrics.RecordRun("failure")
		metrics.RecordRunDuration(time.Since(startTime).Seconds())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExtractTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)
	sem := make(chan struct{}, cfg.MaxConcurrentTargets)

	for _, spec := range targets {
		wg.Add(1)
		go func(spec workerPkg.TargetSpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := orchestrator.Run(ctx, spec.Request())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logger.Error("target extraction failed",
					slog.String("target", spec.Target),
					slog.String("error", respond.SanitizeError(err)))
				return
			}
			succeeded++
			logger.Info("target extracted",
				slog.String("target", spec.Target),
				slog.String("extraction_id", result.ExtractionID),
				slog.Int("failed_operations", len(result.FailedOps)))
		}(spec)
	}
	wg.Wait()

	status := "success"
	switch {
	case succeeded == 0:
		status = "failure"
	case failed > 0:
		status = "partial"
	}
	metrics.RecordRun(status)
	metrics.RecordRunDuration(time.Since(startTime).Seconds())
	metrics.RecordTargetsProcessed(succeeded)
	if status == "success" {
		metrics.RecordLastSuccess()
	}

	logger.Info("scheduled extraction completed",
		slog.String("status", status),
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(startTime)))
}
