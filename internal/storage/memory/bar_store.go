// Package memory provides in-memory storage implementations, used by
// tests and by runs that do not persist anything.
package memory

import (
	"context"
	"sort"
	"sync"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Bar // keyed by symbol, kept sorted by timestamp
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string][]domain.Bar),
	}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
func (s *BarStore) InsertBulk(_ context.Context, symbol string, bars []domain.Bar) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[int64]struct{}, len(s.data[symbol]))
	for _, b := range s.data[symbol] {
		existing[b.TimestampMs] = struct{}{}
	}

	// First pass: detect duplicates (existing + intra-batch)
	for _, b := range bars {
		if _, dup := existing[b.TimestampMs]; dup {
			return storage.ErrDuplicateKey
		}
		existing[b.TimestampMs] = struct{}{}
	}

	s.data[symbol] = append(s.data[symbol], bars...)
	sort.Slice(s.data[symbol], func(i, j int) bool {
		return s.data[symbol][i].TimestampMs < s.data[symbol][j].TimestampMs
	})
	return nil
}

// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars := s.data[symbol]
	result := make([]domain.Bar, len(bars))
	copy(result, bars)
	return result, nil
}

// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for _, b := range s.data[symbol] {
		if b.TimestampMs >= start && b.TimestampMs <= end {
			result = append(result, b)
		}
	}
	return result, nil
}

// Symbols returns every symbol with stored bars, sorted ASC.
func (s *BarStore) Symbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.data))
	for symbol := range s.data {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}
