package memory

import (
	"context"
	"sort"
	"sync"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/storage"
)

// EquityStore is an in-memory implementation of storage.EquityStore.
type EquityStore struct {
	mu   sync.RWMutex
	data map[string][]domain.EquityPoint // keyed by run_id
}

// NewEquityStore creates a new in-memory equity store.
func NewEquityStore() *EquityStore {
	return &EquityStore{
		data: make(map[string][]domain.EquityPoint),
	}
}

// Compile-time interface check.
var _ storage.EquityStore = (*EquityStore)(nil)

// InsertBulk adds multiple points for a run. Fails entire batch on
// duplicate (run_id, timestamp_ms).
func (s *EquityStore) InsertBulk(_ context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]struct{}, len(s.data[runID]))
	for _, p := range s.data[runID] {
		seen[p.TimestampMs] = struct{}{}
	}
	for _, p := range points {
		if _, dup := seen[p.TimestampMs]; dup {
			return storage.ErrDuplicateKey
		}
		seen[p.TimestampMs] = struct{}{}
	}

	s.data[runID] = append(s.data[runID], points...)
	sort.Slice(s.data[runID], func(i, j int) bool {
		return s.data[runID][i].TimestampMs < s.data[runID][j].TimestampMs
	})
	return nil
}

// GetByRunID retrieves the equity curve of a run, ordered by timestamp ASC.
func (s *EquityStore) GetByRunID(_ context.Context, runID string) ([]domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.data[runID]
	result := make([]domain.EquityPoint, len(points))
	copy(result, points)
	return result, nil
}
