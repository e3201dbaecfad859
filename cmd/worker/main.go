package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/eventline/internal/app"
	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/felixgeelhaar/eventline/pkg/config"
	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting eventline worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if path := os.Getenv("EVENTLINE_CONFIG"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			logger.Error("failed to load config file", "error", err)
			os.Exit(1)
		}
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	processor := container.OutboxProcessor
	if cfg.Outbox.Enabled {
		logger.Info("starting outbox processor",
			"poll_interval", cfg.Outbox.PollInterval,
			"batch_size", cfg.Outbox.BatchSize,
			"max_retries", cfg.Outbox.MaxRetries,
		)
		processor.Start(ctx)
	}

	// Nightly sweep over every timeline with auto-recalculation enabled.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Planning.AutoRecalcCron, func() {
		started := time.Now()
		result, err := container.AutoRecalculateHandler.Handle(ctx, commands.AutoRecalculateCommand{})
		if err != nil {
			logger.Error("auto-recalculation sweep failed", "error", err)
			return
		}
		logger.Info("auto-recalculation sweep completed",
			"recalculated", result.Recalculated,
			"degraded", result.Degraded,
			"failed", len(result.Failed),
			observability.DurationKey, time.Since(started).Milliseconds(),
		)
	})
	if err != nil {
		logger.Error("invalid auto-recalculation schedule", "cron", cfg.Planning.AutoRecalcCron, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("auto-recalculation scheduled", "cron", cfg.Planning.AutoRecalcCron)

	cleanupTicker := time.NewTicker(cfg.Outbox.CleanupInterval)
	defer cleanupTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-cleanupTicker.C:
				deleted, err := processor.Cleanup(ctx)
				if err != nil {
					logger.Error("outbox cleanup failed", "error", err)
					continue
				}
				if deleted > 0 {
					logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.Outbox.RetentionDays)
				}
			}
		}
	}()

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthRouter(container),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	statsTicker := time.NewTicker(cfg.Outbox.StatsInterval)
	defer statsTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-statsTicker.C:
				stats := processor.GetStats()
				logger.Info("outbox stats",
					"running", stats.IsRunning,
					"published", stats.PublishedCount,
					"failed", stats.FailedCount,
					"dead", stats.DeadCount,
					"lag_seconds", stats.LagSeconds,
					"last_processed_at", stats.LastProcessedAt,
					"last_error_at", stats.LastErrorAt,
					"last_error", stats.LastError,
				)
				logger.Info("metrics", "counters", container.Metrics.Counters())
			}
		}
	}()

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")

	// Let a running sweep finish before the container closes the database.
	<-scheduler.Stop().Done()
	processor.Stop()
	logger.Info("worker stopped")
}

func healthRouter(container *app.Container) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		stats := container.OutboxProcessor.GetStats()
		c.JSON(http.StatusOK, gin.H{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})

	router.GET("/readyz", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		health := container.Health.Check(checkCtx)
		status := http.StatusOK
		if health.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})

	return router
}
