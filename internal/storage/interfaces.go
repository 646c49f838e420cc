package storage

import (
	"context"
	"time"

	"pairs-trade-lab/internal/domain"
)

// AssetStore provides access to assets storage.
type AssetStore interface {
	// Insert adds a new asset. Returns ErrDuplicateKey if the symbol exists.
	Insert(ctx context.Context, a *domain.Asset) error

	// GetBySymbol retrieves an asset by its symbol. Returns ErrNotFound if not exists.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error)

	// List retrieves all assets, ordered by symbol ASC.
	List(ctx context.Context) ([]*domain.Asset, error)
}

// BarStore provides access to daily_bars storage.
type BarStore interface {
	// InsertBulk adds multiple bars atomically. Fails entire batch on any
	// duplicate (symbol, trade_date).
	InsertBulk(ctx context.Context, bars []*domain.Bar) error

	// GetBySymbol retrieves all bars for a symbol, ordered by trade_date ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Bar, error)

	// GetByDateRange retrieves bars for a symbol within [start, end]
	// (inclusive), ordered by trade_date ASC.
	GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Bar, error)
}

// PairSeriesStore provides access to derived pair_series storage.
type PairSeriesStore interface {
	// ReplacePair stores the derived series for one (asset_1, asset_2,
	// zscore_window) combination, superseding any previous points for it.
	ReplacePair(ctx context.Context, points []*domain.PairSeriesPoint) error

	// GetPair retrieves the series for a pair and window, ordered by
	// trade_date ASC.
	GetPair(ctx context.Context, asset1, asset2 string, window int) ([]*domain.PairSeriesPoint, error)
}
