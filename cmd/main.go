package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/goodvibesclub/vibeoff/internal/adapters/http/api"
	"github.com/goodvibesclub/vibeoff/internal/adapters/http/swagger"
	app "github.com/goodvibesclub/vibeoff/internal/app"
	"github.com/goodvibesclub/vibeoff/internal/config"
	"github.com/goodvibesclub/vibeoff/pkg/logger"
	"github.com/goodvibesclub/vibeoff/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithCatalogPath(cfg.CatalogPath),
		app.WithCatalogSize(cfg.CatalogSize),
		app.WithAdminKey(cfg.AdminKey),
		app.WithRateLimit(cfg.VoteRateLimit, time.Duration(cfg.VoteRateWindowSec)*time.Second),
		app.WithDuoQuota(cfg.DuoDailyLimit),
		app.WithWeightTTL(time.Duration(cfg.WeightCacheTTLSec)*time.Second),
		app.WithPairQueueSize(cfg.PairQueueSize),
		app.WithBlacklist(cfg.BlacklistWallets),
		app.WithOwnerIndexer(cfg.OwnerIndexerURL, cfg.OwnerIndexerKey, cfg.OwnerContract),
		app.WithOwnerSyncPacing(cfg.OwnerSyncBatchSize, time.Duration(cfg.OwnerSyncDelayMS)*time.Millisecond),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// Periodic owner sync. Only scheduled when an indexer key is present;
	// the admin endpoint can still trigger a pass manually.
	scheduler, err := startOwnerSyncScheduler(ctx, svc, cfg, log)
	if err != nil {
		log.Error(ctx, "owner sync scheduler failed to start", logger.Error(err))
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API docs under /api-docs
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startOwnerSyncScheduler runs a recurring ownership refresh.
func startOwnerSyncScheduler(ctx context.Context, svc *app.Service, cfg *config.Config, log logger.Logger) (gocron.Scheduler, error) {
	if cfg.OwnerIndexerKey == "" || cfg.OwnerSyncEveryHours <= 0 {
		return nil, nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Duration(cfg.OwnerSyncEveryHours)*time.Hour),
		gocron.NewTask(func() {
			n, err := svc.SyncOwners(ctx)
			if err != nil {
				log.Error(ctx, "scheduled owner sync failed", logger.Error(err))
				return
			}
			log.Info(ctx, "scheduled owner sync complete", logger.Int("synced", n))
		}),
	)
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	log.Info(ctx, "owner sync scheduled", logger.Int("everyHours", cfg.OwnerSyncEveryHours))
	return scheduler, nil
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

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
