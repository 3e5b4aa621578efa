package postgres

import (
	"context"
	"fmt"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/storage"
)

// EquityStore implements storage.EquityStore using PostgreSQL.
type EquityStore struct {
	pool *Pool
}

// NewEquityStore creates a new EquityStore.
func NewEquityStore(pool *Pool) *EquityStore {
	return &EquityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EquityStore = (*EquityStore)(nil)

// InsertBulk adds multiple points for a run atomically. Fails entire batch
// on duplicate (run_id, timestamp_ms).
func (s *EquityStore) InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO equity_curve (run_id, timestamp_ms, equity)
		VALUES ($1, $2, $3)
	`

	for _, p := range points {
		if _, err := tx.Exec(ctx, query, runID, p.TimestampMs, p.Equity); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert equity point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves the equity curve of a run, ordered by timestamp ASC.
func (s *EquityStore) GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error) {
	query := `
		SELECT timestamp_ms, equity
		FROM equity_curve
		WHERE run_id = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get equity curve by run id: %w", err)
	}
	defer rows.Close()

	var points []domain.EquityPoint
	for rows.Next() {
		var p domain.EquityPoint
		if err := rows.Scan(&p.TimestampMs, &p.Equity); err != nil {
			return nil, fmt.Errorf("scan equity point row: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity point rows: %w", err)
	}

	return points, nil
}
