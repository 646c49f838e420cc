package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/storage"
)

// PairSeriesStore is an in-memory implementation of storage.PairSeriesStore.
type PairSeriesStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PairSeriesPoint // keyed by (asset_1, asset_2, zscore_window)
}

// NewPairSeriesStore creates a new in-memory pair series store.
func NewPairSeriesStore() *PairSeriesStore {
	return &PairSeriesStore{
		data: make(map[string][]*domain.PairSeriesPoint),
	}
}

// pairKey generates a unique key for a pair series.
func pairKey(asset1, asset2 string, window int) string {
	return fmt.Sprintf("%s|%s|%d", asset1, asset2, window)
}

// ReplacePair stores the series for one pair/window combination, superseding
// any previous points for it. All points must belong to the same combination.
func (s *PairSeriesStore) ReplacePair(_ context.Context, points []*domain.PairSeriesPoint) error {
	if len(points) == 0 || points[0] == nil || points[0].Asset1 == "" {
		return storage.ErrInvalidInput
	}

	key := pairKey(points[0].Asset1, points[0].Asset2, points[0].ZScoreWindow)

	series := make([]*domain.PairSeriesPoint, 0, len(points))
	for _, p := range points {
		if p == nil || pairKey(p.Asset1, p.Asset2, p.ZScoreWindow) != key {
			return storage.ErrInvalidInput
		}
		pointCopy := *p
		series = append(series, &pointCopy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = series
	return nil
}

// GetPair retrieves the series for a pair and window, ordered by trade_date ASC.
// An unknown combination yields an empty result, not an error.
func (s *PairSeriesStore) GetPair(_ context.Context, asset1, asset2 string, window int) ([]*domain.PairSeriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[pairKey(asset1, asset2, window)]

	var result []*domain.PairSeriesPoint
	for _, p := range series {
		pointCopy := *p
		result = append(result, &pointCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TradeDate.Before(result[j].TradeDate)
	})

	return result, nil
}

var _ storage.PairSeriesStore = (*PairSeriesStore)(nil)
