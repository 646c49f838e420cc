package memory

import (
	"context"
	"sort"
	"sync"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/storage"
)

// AssetStore is an in-memory implementation of storage.AssetStore.
type AssetStore struct {
	mu       sync.RWMutex
	bySymbol map[string]*domain.Asset // keyed by symbol (unique)
}

// NewAssetStore creates a new in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		bySymbol: make(map[string]*domain.Asset),
	}
}

// Insert adds a new asset. Returns ErrDuplicateKey if the symbol already exists.
func (s *AssetStore) Insert(_ context.Context, a *domain.Asset) error {
	if a == nil || a.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySymbol[a.Symbol]; exists {
		return storage.ErrDuplicateKey
	}

	assetCopy := *a
	s.bySymbol[a.Symbol] = &assetCopy
	return nil
}

// GetBySymbol retrieves an asset by its symbol. Returns ErrNotFound if not exists.
func (s *AssetStore) GetBySymbol(_ context.Context, symbol string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.bySymbol[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}

	assetCopy := *a
	return &assetCopy, nil
}

// List retrieves all assets, ordered by symbol ASC.
func (s *AssetStore) List(_ context.Context) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Asset
	for _, a := range s.bySymbol {
		assetCopy := *a
		result = append(result, &assetCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}

var _ storage.AssetStore = (*AssetStore)(nil)
