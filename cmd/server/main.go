// Package main runs the unified HTTP service: backtest and sweep endpoints,
// WebSocket sweep progress, Prometheus metrics, and the optional scheduled
// sweep refresh.
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

	"pairs-trade-lab/internal/config"
	"pairs-trade-lab/internal/observability"
	"pairs-trade-lab/internal/runner"
	"pairs-trade-lab/internal/server"
	"pairs-trade-lab/internal/storage"
	chstore "pairs-trade-lab/internal/storage/clickhouse"
	"pairs-trade-lab/internal/storage/memory"
	"pairs-trade-lab/internal/storage/migrations"
	pgstore "pairs-trade-lab/internal/storage/postgres"
)

// serverStores bundles the storage implementations behind the service.
type serverStores struct {
	bars  storage.BarStore
	pairs storage.PairSeriesStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Parse flags (environment supplies the defaults)
	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (empty disables series persistence)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	sweepWorkers := flag.Int("sweep-workers", cfg.SweepWorkers, "Concurrent backtests per sweep (0 = number of CPUs)")
	sweepSchedule := flag.String("sweep-schedule", cfg.SweepSchedule, "Cron expression for the recurring sweep (empty disables)")
	sweepSpecPath := flag.String("sweep-spec", cfg.SweepSpecPath, "SweepSpec JSON file for the recurring sweep")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logPretty := flag.Bool("log-pretty", cfg.LogPretty, "Human-readable console output")

	flag.Parse()

	// Setup logger
	logger := observability.NewLogger(observability.LoggerConfig{Level: *logLevel, Pretty: *logPretty})

	// Validate flags
	if *sweepSchedule != "" && *sweepSpecPath == "" {
		logger.Fatal().Msg("--sweep-schedule requires --sweep-spec")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("create stores")
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	r := runner.NewRunner(runner.Options{
		BarStore:        stores.bars,
		PairSeriesStore: stores.pairs,
		Logger:          logger,
	})

	srv, err := server.New(server.Options{
		Addr:          *addr,
		Runner:        r,
		SweepWorkers:  *sweepWorkers,
		SweepSchedule: *sweepSchedule,
		SweepSpecPath: *sweepSpecPath,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create server")
	}

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()
	logger.Info().Str("addr", *addr).Msg("server started")

	// Wait for the first signal, then shut down gracefully. A second signal
	// forces immediate exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}

// createStores builds the bar and pair-series stores. The returned cleanup
// closes whatever connections were opened.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*serverStores, func(), error) {
	if useMemory {
		return &serverStores{
			bars:  memory.NewBarStore(),
			pairs: memory.NewPairSeriesStore(),
		}, func() {}, nil
	}

	if postgresDSN == "" {
		return nil, nil, fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
	}

	stores := &serverStores{bars: pgstore.NewBarStore(pool)}
	cleanup := func() { pool.Close() }

	// ClickHouse is optional; without it runs skip series persistence.
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		stores.pairs = chstore.NewPairSeriesStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}
