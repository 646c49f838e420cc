package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/storage"
)

// PairSeriesStore implements storage.PairSeriesStore using ClickHouse.
//
// Replacement is versioned rather than destructive: every ReplacePair batch
// carries one computed_at stamp, and GetPair reads only the rows of the
// newest stamp for the key. Superseded rows are collapsed lazily by the
// ReplacingMergeTree engine.
type PairSeriesStore struct {
	conn *Conn
}

// NewPairSeriesStore creates a new PairSeriesStore.
func NewPairSeriesStore(conn *Conn) *PairSeriesStore {
	return &PairSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PairSeriesStore = (*PairSeriesStore)(nil)

// ReplacePair stores the series for one pair/window combination, superseding
// any previous points for it. All points must belong to the same combination.
func (s *PairSeriesStore) ReplacePair(ctx context.Context, points []*domain.PairSeriesPoint) error {
	if len(points) == 0 || points[0] == nil || points[0].Asset1 == "" {
		return storage.ErrInvalidInput
	}

	asset1 := points[0].Asset1
	asset2 := points[0].Asset2
	window := points[0].ZScoreWindow
	for _, p := range points {
		if p == nil || p.Asset1 != asset1 || p.Asset2 != asset2 || p.ZScoreWindow != window {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pair_series (
			asset_1, asset_2, zscore_window, trade_date, spread, zscore, computed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	computedAt := time.Now().UTC()
	for _, p := range points {
		err = batch.Append(
			p.Asset1, p.Asset2, uint32(p.ZScoreWindow),
			p.TradeDate, p.Spread, p.ZScore, computedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetPair retrieves the series for a pair and window, ordered by trade_date
// ASC. Only the newest ReplacePair batch is visible; an unknown combination
// yields an empty result, not an error.
func (s *PairSeriesStore) GetPair(ctx context.Context, asset1, asset2 string, window int) ([]*domain.PairSeriesPoint, error) {
	query := `
		SELECT asset_1, asset_2, zscore_window, trade_date, spread, zscore
		FROM pair_series
		WHERE asset_1 = ? AND asset_2 = ? AND zscore_window = ?
		  AND computed_at = (
			SELECT max(computed_at) FROM pair_series
			WHERE asset_1 = ? AND asset_2 = ? AND zscore_window = ?
		  )
		ORDER BY trade_date ASC
	`

	rows, err := s.conn.Query(ctx, query,
		asset1, asset2, uint32(window),
		asset1, asset2, uint32(window),
	)
	if err != nil {
		return nil, fmt.Errorf("query pair series: %w", err)
	}
	defer rows.Close()

	return scanPairSeries(rows)
}

// scanPairSeries scans rows into PairSeriesPoint slices.
func scanPairSeries(rows driver.Rows) ([]*domain.PairSeriesPoint, error) {
	var points []*domain.PairSeriesPoint

	for rows.Next() {
		var p domain.PairSeriesPoint
		var window uint32

		err := rows.Scan(
			&p.Asset1, &p.Asset2, &window,
			&p.TradeDate, &p.Spread, &p.ZScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair series row: %w", err)
		}

		p.ZScoreWindow = int(window)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair series rows: %w", err)
	}

	return points, nil
}
