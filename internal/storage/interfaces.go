package storage

import (
	"context"

	"pump-short-lab/internal/domain"
)

// BarStore provides access to kline bar storage.
type BarStore interface {
	// InsertBulk adds multiple bars. Fails entire batch on duplicate (symbol, timestamp_ms).
	InsertBulk(ctx context.Context, symbol string, bars []domain.Bar) error

	// GetBySymbol retrieves all bars for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.Bar, error)

	// GetByTimeRange retrieves bars for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]domain.Bar, error)

	// Symbols returns every symbol with stored bars, sorted ASC.
	Symbols(ctx context.Context) ([]string, error)
}

// TradeStore provides access to trade record storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetByRunID retrieves all trades of a run, ordered by timestamp ASC, trade_id ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Trade, error)

	// GetBySymbol retrieves all trades for a symbol across runs, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.Trade, error)
}

// EquityStore provides access to equity-curve storage.
type EquityStore interface {
	// InsertBulk adds multiple points for a run. Fails entire batch on duplicate (run_id, timestamp_ms).
	InsertBulk(ctx context.Context, runID string, points []domain.EquityPoint) error

	// GetByRunID retrieves the equity curve of a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]domain.EquityPoint, error)
}
