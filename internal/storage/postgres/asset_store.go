package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/storage"
)

// AssetStore implements storage.AssetStore using PostgreSQL.
type AssetStore struct {
	pool *Pool
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(pool *Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetStore = (*AssetStore)(nil)

// Insert adds a new asset. Returns ErrDuplicateKey if the symbol exists.
func (s *AssetStore) Insert(ctx context.Context, a *domain.Asset) error {
	query := `
		INSERT INTO assets (
			id, symbol, name
		) VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID,
		a.Symbol,
		a.Name,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetBySymbol retrieves an asset by its symbol. Returns ErrNotFound if not exists.
func (s *AssetStore) GetBySymbol(ctx context.Context, symbol string) (*domain.Asset, error) {
	query := `
		SELECT id, symbol, name, created_at
		FROM assets
		WHERE symbol = $1
	`

	row := s.pool.QueryRow(ctx, query, symbol)
	a, err := scanAsset(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset by symbol: %w", err)
	}
	return a, nil
}

// List retrieves all assets, ordered by symbol ASC.
func (s *AssetStore) List(ctx context.Context) ([]*domain.Asset, error) {
	query := `
		SELECT id, symbol, name, created_at
		FROM assets
		ORDER BY symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset rows: %w", err)
	}

	return assets, nil
}

// scanAsset scans a single row into Asset.
func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var a domain.Asset

	err := row.Scan(
		&a.ID,
		&a.Symbol,
		&a.Name,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}
