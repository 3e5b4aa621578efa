package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/storage"
	"pump-short-lab/internal/storage/postgres"
)

func createTestTrade(runID, tradeID, symbol, action string, timestampMs int64) *domain.Trade {
	return &domain.Trade{
		TradeID:     tradeID,
		RunID:       runID,
		TimestampMs: timestampMs,
		Symbol:      symbol,
		Action:      action,
		Price:       0.222,
		Size:        3603.6,
		Fee:         0.4,
		RealizedPnL: 0,
		Reason:      "gain 120.0% over 72h, reversal pattern volume_bearish",
	}
}

func TestTradeStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeStore(pool)

	trade := createTestTrade("run-001", "trade-001", "ABCUSDT", domain.ActionOpenShort, 1000)

	err := store.Insert(ctx, trade)
	require.NoError(t, err)

	retrieved, err := store.GetByID(ctx, "trade-001")
	require.NoError(t, err)

	assert.Equal(t, trade.TradeID, retrieved.TradeID)
	assert.Equal(t, trade.RunID, retrieved.RunID)
	assert.Equal(t, trade.TimestampMs, retrieved.TimestampMs)
	assert.Equal(t, trade.Symbol, retrieved.Symbol)
	assert.Equal(t, trade.Action, retrieved.Action)
	assert.InDelta(t, trade.Price, retrieved.Price, 1e-9)
	assert.InDelta(t, trade.Size, retrieved.Size, 1e-9)
	assert.InDelta(t, trade.Fee, retrieved.Fee, 1e-9)
	assert.InDelta(t, trade.RealizedPnL, retrieved.RealizedPnL, 1e-9)
	assert.Equal(t, trade.Reason, retrieved.Reason)
}

func TestTradeStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeStore(pool)

	trade := createTestTrade("run-001", "trade-dup-001", "ABCUSDT", domain.ActionOpenShort, 1000)

	err := store.Insert(ctx, trade)
	require.NoError(t, err)

	err = store.Insert(ctx, trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeStore(pool)

	_, err := store.GetByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_InsertBulkAndGetByRunID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeStore(pool)

	trades := []*domain.Trade{
		createTestTrade("run-001", "trade-b3", "ABCUSDT", domain.ActionCloseTakeProfit, 3000),
		createTestTrade("run-001", "trade-b1", "ABCUSDT", domain.ActionOpenShort, 1000),
		createTestTrade("run-001", "trade-b2", "ABCUSDT", domain.ActionAddShort, 2000),
		createTestTrade("run-002", "trade-b4", "XYZUSDT", domain.ActionOpenShort, 1500),
	}

	err := store.InsertBulk(ctx, trades)
	require.NoError(t, err)

	result, err := store.GetByRunID(ctx, "run-001")
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "trade-b1", result[0].TradeID)
	assert.Equal(t, "trade-b2", result[1].TradeID)
	assert.Equal(t, "trade-b3", result[2].TradeID)
}

func TestTradeStore_InsertBulkRollsBackOnDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeStore(pool)

	first := createTestTrade("run-001", "trade-r1", "ABCUSDT", domain.ActionOpenShort, 1000)
	require.NoError(t, store.Insert(ctx, first))

	trades := []*domain.Trade{
		createTestTrade("run-001", "trade-r2", "ABCUSDT", domain.ActionAddShort, 2000),
		createTestTrade("run-001", "trade-r1", "ABCUSDT", domain.ActionOpenShort, 1000), // duplicate
	}

	err := store.InsertBulk(ctx, trades)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := store.GetByRunID(ctx, "run-001")
	require.NoError(t, err)
	assert.Len(t, all, 1, "bulk insert must be all-or-nothing")
}

func TestTradeStore_GetBySymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeStore(pool)

	trades := []*domain.Trade{
		createTestTrade("run-001", "trade-s1", "ABCUSDT", domain.ActionOpenShort, 1000),
		createTestTrade("run-002", "trade-s2", "ABCUSDT", domain.ActionOpenShort, 2000),
		createTestTrade("run-001", "trade-s3", "XYZUSDT", domain.ActionOpenShort, 3000),
	}
	require.NoError(t, store.InsertBulk(ctx, trades))

	result, err := store.GetBySymbol(ctx, "ABCUSDT")
	require.NoError(t, err)
	assert.Len(t, result, 2, "expected trades across runs")
}
