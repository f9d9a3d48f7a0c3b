package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pooldash/internal/api"
	"pooldash/internal/config"
	"pooldash/internal/explorer"
	"pooldash/internal/indexer"
	"pooldash/internal/logging"
	"pooldash/internal/observability"
	"pooldash/internal/reconcile"
	"pooldash/internal/storage"
	chstore "pooldash/internal/storage/clickhouse"
	"pooldash/internal/storage/memory"
	"pooldash/internal/storage/migrations"
	pgstore "pooldash/internal/storage/postgres"
)

func main() {
	mode := flag.String("mode", "once", "Run mode: once (full batch), pool (single pool), or daemon")
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	poolID := flag.String("pool-id", "", "Pool ID for -mode pool")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	flag.Parse()

	logger, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.String("path", *configPath), zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("signal received, shutting down", zap.String("signal", sig.String()))
		cancel()
		sig = <-sigCh
		logger.Warn("second signal received, forcing exit", zap.String("signal", sig.String()))
		os.Exit(1)
	}()

	app, err := buildApp(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer app.close()

	switch *mode {
	case "once":
		err = runOnce(ctx, app, logger)
	case "pool":
		err = runPool(ctx, app, *poolID, logger)
	case "daemon":
		err = runDaemon(ctx, app, cfg, logger)
	default:
		logger.Fatal("unknown mode", zap.String("mode", *mode))
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("run failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// app bundles the wired pipeline and its closers.
type app struct {
	poolStore   storage.PoolStore
	metricStore storage.HolderMetricStore
	reportStore storage.RunReportStore

	reconciler *reconcile.Reconciler
	scheduler  *reconcile.Scheduler

	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, useMemory bool, logger *zap.Logger) (*app, error) {
	a := &app{}

	if useMemory {
		a.poolStore = memory.NewPoolStore()
		a.metricStore = memory.NewHolderMetricStore()
		a.reportStore = memory.NewRunReportStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			a.close()
			return nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		a.poolStore = pgstore.NewPoolStore(pool)
		a.metricStore = pgstore.NewHolderMetricStore(pool)

		// ClickHouse telemetry is optional; without a DSN run reports are
		// simply not recorded.
		if cfg.ClickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
			if err != nil {
				a.close()
				return nil, fmt.Errorf("run clickhouse migrations: %w", err)
			}
			a.closers = append(a.closers, func() { _ = conn.Close() })
			a.reportStore = chstore.NewRunReportStore(conn)
		}
	}

	metrics := observability.NewMetrics("pooldash")

	explorerClient := explorer.NewClient(explorer.WithLogger(logger))
	indexerClient := indexer.NewClient(cfg.Indexer.BaseURL, cfg.Indexer.APIKey,
		indexer.WithPageSize(cfg.Indexer.PageSize),
		indexer.WithMaxPages(cfg.Indexer.MaxPages),
		indexer.WithLogger(logger),
	)
	if !indexerClient.Enabled() {
		logger.Info("indexer fallback disabled: no API key configured")
	}

	a.reconciler = reconcile.New(reconcile.Options{
		MetricStore:     a.metricStore,
		Explorer:        explorerClient,
		Indexer:         indexerClient,
		FreshnessWindow: cfg.FreshnessWindow,
		Logger:          logger,
		Metrics:         metrics,
	})
	a.scheduler = reconcile.NewScheduler(reconcile.SchedulerOptions{
		PoolStore:        a.poolStore,
		Reconciler:       a.reconciler,
		ReportStore:      a.reportStore,
		RequestInterval:  cfg.RequestInterval,
		RateLimitBackoff: cfg.RateLimitBackoff,
		Logger:           logger,
		Metrics:          metrics,
	})
	return a, nil
}

// runOnce executes a single full batch and exits.
func runOnce(ctx context.Context, a *app, logger *zap.Logger) error {
	result, err := a.scheduler.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("batch complete",
		zap.String("run_id", result.RunID),
		zap.Int("attempted", result.Attempted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	for _, e := range result.Errors {
		logger.Warn("pool error", zap.String("detail", e))
	}
	return nil
}

// runPool reconciles one pool by ID and exits.
func runPool(ctx context.Context, a *app, poolID string, logger *zap.Logger) error {
	if poolID == "" {
		return fmt.Errorf("-pool-id is required for pool mode")
	}
	pool, err := a.poolStore.GetByID(ctx, poolID)
	if err != nil {
		return fmt.Errorf("get pool %s: %w", poolID, err)
	}
	out, err := a.reconciler.ReconcileOne(ctx, pool)
	if err != nil {
		return err
	}
	logger.Info("pool reconciled",
		zap.String("pool_id", out.PoolID),
		zap.String("action", string(out.Action)),
		zap.String("source", string(out.Source)),
		zap.Int("count", out.Count),
		zap.Bool("truncated", out.Truncated))
	return nil
}

// runDaemon schedules periodic batches and serves the admin API until
// the context is cancelled.
func runDaemon(ctx context.Context, a *app, cfg *config.Config, logger *zap.Logger) error {
	// The scheduler serializes batches across cron and the API trigger.
	runBatch := func() {
		_, err := a.scheduler.Run(ctx)
		switch {
		case err == nil:
		case errors.Is(err, reconcile.ErrBatchRunning):
			logger.Warn("previous batch still running, skipping scheduled run")
		case !errors.Is(err, context.Canceled):
			logger.Error("scheduled batch failed", zap.Error(err))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSchedule, runBatch); err != nil {
		return fmt.Errorf("parse cron schedule %q: %w", cfg.CronSchedule, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()
	logger.Info("daemon started",
		zap.String("schedule", cfg.CronSchedule),
		zap.String("admin_addr", cfg.AdminListenAddr))

	adminServer := api.NewServer(api.Options{
		Reconciler:  a.reconciler,
		Scheduler:   a.scheduler,
		PoolStore:   a.poolStore,
		MetricStore: a.metricStore,
		ReportStore: a.reportStore,
		Logger:      logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.AdminListenAddr,
		Handler:           adminServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("admin server shutdown", zap.Error(err))
	}
	return nil
}
