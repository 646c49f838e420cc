package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bar // keyed by (symbol, trade_date)
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]*domain.Bar),
	}
}

// barKey generates a unique key for a bar.
func barKey(symbol string, tradeDate time.Time) string {
	return fmt.Sprintf("%s|%s", symbol, domain.DateKey(tradeDate))
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate.
func (s *BarStore) InsertBulk(_ context.Context, bars []*domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(bars))

	// First pass: check for duplicates (existing + intra-batch)
	for _, b := range bars {
		if b == nil || b.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := barKey(b.Symbol, b.TradeDate)

		// Check existing data
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		// Check intra-batch duplicate
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, b := range bars {
		key := barKey(b.Symbol, b.TradeDate)
		barCopy := *b
		s.data[key] = &barCopy
	}

	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by trade_date ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TradeDate.Before(result[j].TradeDate)
	})

	return result, nil
}

// GetByDateRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *BarStore) GetByDateRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for _, b := range s.data {
		if b.Symbol == symbol && !b.TradeDate.Before(start) && !b.TradeDate.After(end) {
			barCopy := *b
			result = append(result, &barCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TradeDate.Before(result[j].TradeDate)
	})

	return result, nil
}

var _ storage.BarStore = (*BarStore)(nil)
