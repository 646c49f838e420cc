package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/storage"
)

// BarStore implements storage.BarStore using PostgreSQL.
type BarStore struct {
	pool *Pool
}

// NewBarStore creates a new BarStore.
func NewBarStore(pool *Pool) *BarStore {
	return &BarStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars atomically. Fails entire batch on any duplicate.
func (s *BarStore) InsertBulk(ctx context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO daily_bars (
			symbol, trade_date, close
		) VALUES ($1, $2, $3)
	`

	for _, b := range bars {
		_, err := tx.Exec(ctx, query,
			b.Symbol,
			b.TradeDate,
			b.Close,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert bar in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by trade_date ASC.
func (s *BarStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.Bar, error) {
	query := `
		SELECT symbol, trade_date, close
		FROM daily_bars
		WHERE symbol = $1
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get bars by symbol: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByDateRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *BarStore) GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Bar, error) {
	query := `
		SELECT symbol, trade_date, close
		FROM daily_bars
		WHERE symbol = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("get bars by date range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// scanBars scans multiple rows into a slice of Bar.
func scanBars(rows pgx.Rows) ([]*domain.Bar, error) {
	var bars []*domain.Bar

	for rows.Next() {
		var b domain.Bar

		err := rows.Scan(
			&b.Symbol,
			&b.TradeDate,
			&b.Close,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}

		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}
