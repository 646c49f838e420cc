package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/observability"
	"pairs-trade-lab/internal/storage"
)

// Importer loads daily close bars from CSV files into the asset and bar
// stores. Re-imports are safe: rows whose (symbol, trade date) already
// exists are skipped and counted, never treated as errors.
type Importer struct {
	assets  storage.AssetStore
	bars    storage.BarStore
	metrics *observability.Metrics
	log     zerolog.Logger
}

// ImporterOptions contains configuration for creating an Importer.
type ImporterOptions struct {
	AssetStore storage.AssetStore
	BarStore   storage.BarStore
	Metrics    *observability.Metrics // optional
	Logger     zerolog.Logger
}

// NewImporter creates an importer over the given stores.
func NewImporter(opts ImporterOptions) *Importer {
	return &Importer{
		assets:  opts.AssetStore,
		bars:    opts.BarStore,
		metrics: opts.Metrics,
		log:     opts.Logger.With().Str("component", "ingestion").Logger(),
	}
}

// Result summarizes one import.
type Result struct {
	Symbol       string `json:"symbol"`
	AssetCreated bool   `json:"asset_created"`
	Rows         int    `json:"rows"`
	Inserted     int    `json:"inserted"`
	Skipped      int    `json:"skipped"` // duplicate (symbol, trade_date) rows
}

// ImportFile imports one symbol's CSV file.
func (im *Importer) ImportFile(ctx context.Context, symbol, name, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	return im.Import(ctx, symbol, name, f)
}

// Import parses and stores one symbol's bars.
// Steps:
//  1. Parse and validate the CSV
//  2. Register the asset if unknown
//  3. Drop rows whose trade date is already stored
//  4. Bulk-insert the remainder
func (im *Importer) Import(ctx context.Context, symbol, name string, r io.Reader) (*Result, error) {
	// 1. Parse and validate
	bars, err := ParseBars(symbol, r)
	if err != nil {
		return nil, err
	}

	result := &Result{Symbol: symbol, Rows: len(bars)}

	// 2. Register the asset if unknown
	created, err := im.ensureAsset(ctx, symbol, name)
	if err != nil {
		return nil, err
	}
	result.AssetCreated = created

	// 3. Drop rows already stored
	existing, err := im.bars.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load existing bars: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		known[domain.DateKey(b.TradeDate)] = struct{}{}
	}

	fresh := make([]*domain.Bar, 0, len(bars))
	for _, b := range bars {
		if _, dup := known[domain.DateKey(b.TradeDate)]; dup {
			result.Skipped++
			continue
		}
		fresh = append(fresh, b)
	}

	// 4. Bulk-insert the remainder
	if len(fresh) > 0 {
		if err := im.bars.InsertBulk(ctx, fresh); err != nil {
			return nil, fmt.Errorf("insert bars: %w", err)
		}
	}
	result.Inserted = len(fresh)
	if im.metrics != nil {
		im.metrics.BarsIngested.Add(float64(result.Inserted))
	}

	im.log.Info().
		Str("symbol", symbol).
		Int("rows", result.Rows).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("import complete")

	return result, nil
}

// ensureAsset registers the symbol on first sight. A concurrent importer
// winning the insert race is not an error.
func (im *Importer) ensureAsset(ctx context.Context, symbol, name string) (bool, error) {
	_, err := im.assets.GetBySymbol(ctx, symbol)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("look up asset: %w", err)
	}

	asset := &domain.Asset{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := im.assets.Insert(ctx, asset); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("register asset: %w", err)
	}
	return true, nil
}
