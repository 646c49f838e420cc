package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pairs-trade-lab/internal/config"
	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/ingestion"
	"pairs-trade-lab/internal/observability"
	"pairs-trade-lab/internal/reporting"
	"pairs-trade-lab/internal/runner"
	"pairs-trade-lab/internal/storage"
	"pairs-trade-lab/internal/storage/memory"
	pgstore "pairs-trade-lab/internal/storage/postgres"
	"pairs-trade-lab/internal/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Grid flags
	specPath := flag.String("spec", "", "SweepSpec JSON file (required)")
	workers := flag.Int("workers", cfg.SweepWorkers, "Concurrent backtests (0 = number of CPUs)")

	// Input: bars come from CSV files or from PostgreSQL.
	csv1 := flag.String("csv-1", "", "CSV bars for the first leg (skips storage)")
	csv2 := flag.String("csv-2", "", "CSV bars for the second leg")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")

	// Output
	outputJSON := flag.Bool("json", false, "Print per-cell results as JSON instead of CSV")
	outPath := flag.String("out", "", "Write the report to a file instead of stdout")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logPretty := flag.Bool("log-pretty", cfg.LogPretty, "Human-readable console output")

	flag.Parse()

	// Setup logger
	logger := observability.NewLogger(observability.LoggerConfig{Level: *logLevel, Pretty: *logPretty})

	// Validate flags and load the grid spec
	if *specPath == "" {
		logger.Fatal().Msg("--spec is required")
	}
	spec, err := loadSpec(*specPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load sweep spec")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Bar source: CSV files feed an in-memory store, otherwise PostgreSQL.
	var barStore storage.BarStore
	if *csv1 != "" {
		mem := memory.NewBarStore()
		if err := loadCSV(ctx, mem, spec.Profile.Pair.Asset1, *csv1); err != nil {
			logger.Fatal().Err(err).Msg("load first leg")
		}
		if spec.Profile.Pair.Pairs() {
			if *csv2 == "" {
				logger.Fatal().Msg("--csv-2 is required when the pair has two legs")
			}
			if err := loadCSV(ctx, mem, spec.Profile.Pair.Asset2, *csv2); err != nil {
				logger.Fatal().Err(err).Msg("load second leg")
			}
		} else if *csv2 != "" {
			logger.Fatal().Msg("--csv-2 given but the profile has a single leg")
		}
		barStore = mem
	} else {
		if *csv2 != "" {
			logger.Fatal().Msg("--csv-2 requires --csv-1")
		}
		if *postgresDSN == "" {
			logger.Fatal().Msg("--postgres-dsn or --csv-1 is required")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()

		barStore = pgstore.NewBarStore(pool)
	}

	r := runner.NewRunner(runner.Options{BarStore: barStore, Logger: logger})
	exec := sweep.NewExecutor(sweep.Options{Runner: r, Workers: *workers, Logger: logger})

	progress := func(done, total int, res sweep.CellResult) {
		evt := logger.Info()
		if res.Error != "" {
			evt = logger.Warn().Str("error", res.Error)
		}
		evt.
			Int("done", done).
			Int("total", total).
			Float64("open_level", res.OpenLevel).
			Str("cost_model", res.CostModel).
			Msg("cell finished")
	}

	// A canceled sweep still renders the cells it finished; the unfinished
	// ones carry the cancellation error.
	results, err := exec.Run(ctx, spec, progress)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("sweep failed")
	}

	var content string
	if *outputJSON {
		out, merr := json.MarshalIndent(results, "", "  ")
		if merr != nil {
			logger.Fatal().Err(merr).Msg("render results")
		}
		content = string(out) + "\n"
	} else {
		content, err = reporting.RenderSweepCSV(results)
		if err != nil {
			logger.Fatal().Err(err).Msg("render results")
		}
	}

	if err := writeOutput(*outPath, content); err != nil {
		logger.Fatal().Err(err).Msg("write report")
	}
}

// loadSpec reads and validates the SweepSpec JSON file.
func loadSpec(path string) (domain.SweepSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SweepSpec{}, fmt.Errorf("read spec: %w", err)
	}
	var spec domain.SweepSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return domain.SweepSpec{}, fmt.Errorf("parse spec: %w", err)
	}
	return spec, spec.Validate()
}

// loadCSV parses one symbol's CSV bars into the store.
func loadCSV(ctx context.Context, store storage.BarStore, symbol, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := ingestion.ParseBars(symbol, f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if err := store.InsertBulk(ctx, bars); err != nil {
		return fmt.Errorf("store %s bars: %w", symbol, err)
	}
	return nil
}

func writeOutput(path, content string) error {
	if path == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
