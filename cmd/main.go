package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/chimeralabs/accolade/internal/adapters/http/api"
	"github.com/chimeralabs/accolade/internal/adapters/http/swagger"
	"github.com/chimeralabs/accolade/internal/adapters/repository"
	app "github.com/chimeralabs/accolade/internal/app"
	"github.com/chimeralabs/accolade/internal/config"
	"github.com/chimeralabs/accolade/internal/domain/catalog"
	"github.com/chimeralabs/accolade/internal/domain/reward"
	"github.com/chimeralabs/accolade/pkg/logger"
	"github.com/chimeralabs/accolade/pkg/metrics"
)

// HTTP server and scheduler timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	tickInterval              = 50 * time.Millisecond
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	bonusMultiplier           = 1.5
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Error(err)
		}
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Pick the persistence backend: file-backed when a snapshot path is
	// configured, in-memory otherwise.
	var store repository.Store
	if cfg.SnapshotPath != "" {
		fileStore, err := repository.NewFileStore(cfg.SnapshotPath)
		if err != nil {
			os.Stderr.WriteString("failed to open snapshot store: " + err.Error() + "\n")
			return
		}
		store = fileStore
		loggerInstance.Info(ctx, "using file store", logger.String("path", cfg.SnapshotPath))
	} else {
		store = repository.NewMemoryStore()
		loggerInstance.Info(ctx, "using in-memory store")
	}

	// Layer configured achievement definitions on top of the built-in set.
	catalogOpts := []catalog.Option{catalog.WithDefaults()}
	if cfg.AchievementsPath != "" {
		defs, err := config.LoadAchievements(cfg.AchievementsPath)
		if err != nil {
			os.Stderr.WriteString("failed to load achievement definitions: " + err.Error() + "\n")
			return
		}
		catalogOpts = append(catalogOpts, catalog.WithDefinitions(defs...))
		loggerInstance.Info(ctx, "loaded extra achievement definitions",
			logger.String("path", cfg.AchievementsPath), logger.Int("count", len(defs)))
	}
	cat, err := catalog.New(catalogOpts...)
	if err != nil {
		os.Stderr.WriteString("invalid achievement definitions: " + err.Error() + "\n")
		return
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithStore(store),
		app.WithCatalog(cat),
		app.WithQueueCapacity(cfg.QueueCapacity),
		app.WithBatchInterval(time.Duration(cfg.BatchIntervalMS)*time.Millisecond),
		app.WithBatchDrainLimit(cfg.BatchDrainLimit),
		app.WithRateLimit(cfg.RateLimitPerSec),
		app.WithBlockedEventTypes(cfg.BlockedEventTypes...),
		app.WithMaxActiveNotifications(cfg.NotificationMaxActive),
		app.WithNotificationPendingCapacity(cfg.NotificationPendingCapacity),
		app.WithNotificationDisplayDuration(time.Duration(cfg.NotificationDisplayMS)*time.Millisecond),
		app.WithNotificationDedupeWindow(time.Duration(cfg.NotificationDedupeMS)*time.Millisecond),
		app.WithHealthCheckInterval(time.Duration(cfg.HealthCheckIntervalSec)*time.Second),
		app.WithSaveInterval(time.Duration(cfg.SaveIntervalSec)*time.Second),
		app.WithReinitAttempts(cfg.ReinitMaxAttempts),
		app.WithReinitTimeout(time.Duration(cfg.ReinitTimeoutMS)*time.Millisecond),
		app.WithCommandQueueSize(cfg.CommandQueueSize),
		app.WithCommandsPerTick(cfg.CommandsPerTick),
		app.WithRewardOptions(
			reward.WithGlobalMultiplier(cfg.RewardGlobalMultiplier),
			reward.WithBonusRoll(cfg.RewardBonusChance, bonusMultiplier),
		),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Drive the pipeline scheduler. Everything periodic hangs off this.
	go startTickLoop(ctx, svc)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register Swagger UI under /swagger
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startTickLoop advances the pipeline on a fixed cadence, passing measured
// elapsed time so accumulated intervals stay accurate under scheduler jitter.
func startTickLoop(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			svc.Tick(ctx, now.Sub(last))
			last = now
		}
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	// Update memory usage
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	// Update goroutine count
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	// Update GC pause time
	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	// GetStats already refreshes gauges derived from pipeline state.
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}

	if tracked, ok := stats["trackedRecords"].(int); ok {
		metrics.UpdateTrackedRecords(tracked)
	}
}
