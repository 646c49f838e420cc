package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pairs-trade-lab/internal/config"
	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/ingestion"
	"pairs-trade-lab/internal/observability"
	"pairs-trade-lab/internal/reporting"
	"pairs-trade-lab/internal/runner"
	"pairs-trade-lab/internal/storage"
	chstore "pairs-trade-lab/internal/storage/clickhouse"
	"pairs-trade-lab/internal/storage/memory"
	"pairs-trade-lab/internal/storage/migrations"
	pgstore "pairs-trade-lab/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Strategy flags. --profile loads a full StrategyProfile JSON and wins
	// over the individual strategy flags.
	profilePath := flag.String("profile", "", "StrategyProfile JSON file (overrides the strategy flags)")
	pairFlag := flag.String("pair", "", `Pair to trade ("GLD/SLV"), or one symbol for single-asset mode`)
	window := flag.Int("window", 20, "Rolling z-score window in trading days")
	openLevel := flag.Float64("open-level", 1.0, "Z-score magnitude that opens positions")
	costModel := flag.String("cost-model", domain.CostModelRealistic, "Cost model: frictionless, tight, realistic, stressed")
	tradingCost := flag.Float64("trading-cost", -1, "Explicit per-transition cost rate (negative = use --cost-model)")
	weight1 := flag.Float64("weight-1", 0.5, "Capital weight of the first leg")
	weight2 := flag.Float64("weight-2", 0.5, "Capital weight of the second leg")

	// Input: bars come from CSV files or from PostgreSQL.
	csv1 := flag.String("csv-1", "", "CSV bars for the first leg (skips storage)")
	csv2 := flag.String("csv-2", "", "CSV bars for the second leg")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")

	// Derived-series persistence
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	persistSeries := flag.Bool("persist-series", false, "Persist the derived spread/z-score series to ClickHouse")

	// Output
	outputJSON := flag.Bool("json", false, "Print the full run result as JSON")
	metricsJSON := flag.Bool("metrics-json", false, "Print only the metrics record as JSON")
	outPath := flag.String("out", "", "Write the report to a file instead of stdout")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logPretty := flag.Bool("log-pretty", cfg.LogPretty, "Human-readable console output")

	flag.Parse()

	// Setup logger
	logger := observability.NewLogger(observability.LoggerConfig{Level: *logLevel, Pretty: *logPretty})

	// Validate flags
	if *outputJSON && *metricsJSON {
		logger.Fatal().Msg("--json and --metrics-json are mutually exclusive")
	}

	profile, err := buildProfile(*profilePath, *pairFlag, *window, *openLevel, *costModel, *tradingCost, *weight1, *weight2)
	if err != nil {
		logger.Fatal().Err(err).Msg("build profile")
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
		if err := loadCSV(ctx, mem, profile.Pair.Asset1, *csv1); err != nil {
			logger.Fatal().Err(err).Msg("load first leg")
		}
		if profile.Pair.Pairs() {
			if *csv2 == "" {
				logger.Fatal().Msg("--csv-2 is required when the pair has two legs")
			}
			if err := loadCSV(ctx, mem, profile.Pair.Asset2, *csv2); err != nil {
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

	// Optional derived-series persistence.
	var pairStore storage.PairSeriesStore
	if *persistSeries {
		if *clickhouseDSN == "" {
			logger.Fatal().Msg("--persist-series requires --clickhouse-dsn")
		}

		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()

		pairStore = chstore.NewPairSeriesStore(conn)
	}

	r := runner.NewRunner(runner.Options{
		BarStore:        barStore,
		PairSeriesStore: pairStore,
		Logger:          logger,
	})

	res, err := r.Run(ctx, profile)
	if err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	// Render the report
	var content string
	switch {
	case *outputJSON:
		content, err = reporting.RenderRunJSON(res)
	case *metricsJSON:
		content, err = reporting.RenderMetricsJSON(res.Metrics)
	default:
		content = reporting.RenderRunMarkdown(res, time.Now().UTC())
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("render report")
	}

	if err := writeOutput(*outPath, content); err != nil {
		logger.Fatal().Err(err).Msg("write report")
	}
}

// buildProfile assembles the strategy profile from a JSON file or from the
// individual flags, and validates it either way.
func buildProfile(path, pair string, window int, openLevel float64, costModel string, tradingCost, weight1, weight2 float64) (domain.StrategyProfile, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.StrategyProfile{}, fmt.Errorf("read profile: %w", err)
		}
		var p domain.StrategyProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return domain.StrategyProfile{}, fmt.Errorf("parse profile: %w", err)
		}
		return p, p.Validate()
	}

	if pair == "" {
		return domain.StrategyProfile{}, fmt.Errorf("--pair or --profile is required")
	}
	asset1, asset2 := parsePair(pair)
	p := domain.StrategyProfile{
		Pair:         domain.PairSpec{Asset1: asset1, Asset2: asset2},
		ZScoreWindow: window,
		CostModelID:  costModel,
		WeightAsset1: weight1,
		WeightAsset2: weight2,
		Legs:         domain.CanonicalLegs(openLevel),
	}
	if tradingCost >= 0 {
		p.TradingCost = &tradingCost
	}
	return p, p.Validate()
}

// parsePair splits "GLD/SLV" into its legs; a bare symbol means single-asset mode.
func parsePair(s string) (string, string) {
	parts := strings.SplitN(s, "/", 2)
	asset1 := strings.ToUpper(strings.TrimSpace(parts[0]))
	if len(parts) == 1 {
		return asset1, ""
	}
	return asset1, strings.ToUpper(strings.TrimSpace(parts[1]))
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
