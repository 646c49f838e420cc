package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"pairs-trade-lab/internal/config"
	"pairs-trade-lab/internal/ingestion"
	"pairs-trade-lab/internal/observability"
	"pairs-trade-lab/internal/storage"
	"pairs-trade-lab/internal/storage/memory"
	"pairs-trade-lab/internal/storage/migrations"
	pgstore "pairs-trade-lab/internal/storage/postgres"
)

// importJob is one CSV file queued for import.
type importJob struct {
	symbol string
	name   string
	path   string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Input flags: --file imports one symbol, --dir imports every *.csv in a
	// directory with symbols derived from file names.
	file := flag.String("file", "", "CSV file to import (date,close with header)")
	symbol := flag.String("symbol", "", "Asset symbol for --file (default: upper-cased file name)")
	name := flag.String("name", "", "Asset display name (default: the symbol)")
	dir := flag.String("dir", "", "Directory of <symbol>.csv files to import")

	// Storage
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (parse-only dry run)")

	// Output
	outputJSON := flag.Bool("json", false, "Print per-file import results as JSON")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logPretty := flag.Bool("log-pretty", cfg.LogPretty, "Human-readable console output")

	flag.Parse()

	// Setup logger
	logger := observability.NewLogger(observability.LoggerConfig{Level: *logLevel, Pretty: *logPretty})

	// Validate flags
	if *file == "" && *dir == "" {
		logger.Fatal().Msg("--file or --dir is required")
	}
	if *file != "" && *dir != "" {
		logger.Fatal().Msg("--file and --dir are mutually exclusive")
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

	// Create stores
	var assetStore storage.AssetStore = memory.NewAssetStore()
	var barStore storage.BarStore = memory.NewBarStore()

	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal().Msg("--postgres-dsn is required (use --use-memory for a dry run)")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply postgres migrations")
		}

		assetStore = pgstore.NewAssetStore(pool)
		barStore = pgstore.NewBarStore(pool)
	}

	importer := ingestion.NewImporter(ingestion.ImporterOptions{
		AssetStore: assetStore,
		BarStore:   barStore,
		Logger:     logger,
	})

	jobs, err := resolveJobs(*file, *symbol, *name, *dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("resolve input files")
	}

	// Import each file; one bad file aborts the run so partial batches are
	// obvious rather than silent.
	results := make([]*ingestion.Result, 0, len(jobs))
	for _, j := range jobs {
		res, err := importer.ImportFile(ctx, j.symbol, j.name, j.path)
		if err != nil {
			logger.Fatal().Err(err).Str("path", j.path).Msg("import failed")
		}
		results = append(results, res)
	}

	if *outputJSON {
		out, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(out))
		return
	}

	var rows, inserted, skipped int
	for _, r := range results {
		rows += r.Rows
		inserted += r.Inserted
		skipped += r.Skipped
	}
	logger.Info().
		Int("files", len(results)).
		Int("rows", rows).
		Int("inserted", inserted).
		Int("skipped", skipped).
		Msg("ingest complete")
}

// resolveJobs expands the input flags into an ordered list of files to import.
func resolveJobs(file, symbol, name, dir string) ([]importJob, error) {
	if file != "" {
		sym := symbol
		if sym == "" {
			sym = symbolFromPath(file)
		}
		if name == "" {
			name = sym
		}
		return []importJob{{symbol: sym, name: name, path: file}}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read csv directory: %w", err)
	}

	var jobs []importJob
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		sym := symbolFromPath(e.Name())
		jobs = append(jobs, importJob{symbol: sym, name: sym, path: filepath.Join(dir, e.Name())})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no csv files in %s", dir)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].symbol < jobs[j].symbol })
	return jobs, nil
}

// symbolFromPath derives an asset symbol from a CSV file name: "data/uso.csv" becomes "USO".
func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
