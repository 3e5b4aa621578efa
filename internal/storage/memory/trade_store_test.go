package memory

import (
	"context"
	"errors"
	"testing"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/storage"
)

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := &domain.Trade{
		TradeID:     "trade1",
		RunID:       "run1",
		TimestampMs: 1000,
		Symbol:      "ABCUSDT",
		Action:      domain.ActionOpenShort,
		Price:       0.222,
		Size:        3600,
	}

	err := store.Insert(ctx, trade)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Price != 0.222 {
		t.Errorf("Price mismatch: got %f, want %f", got.Price, 0.222)
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := &domain.Trade{TradeID: "trade1", RunID: "run1", Symbol: "ABCUSDT"}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeStore_NotFound(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeStore_InsertBulk(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		{TradeID: "t1", RunID: "r1", Symbol: "ABCUSDT", TimestampMs: 1000},
		{TradeID: "t2", RunID: "r1", Symbol: "ABCUSDT", TimestampMs: 2000},
		{TradeID: "t3", RunID: "r2", Symbol: "XYZUSDT", TimestampMs: 3000},
	}

	err := store.InsertBulk(ctx, trades)
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, _ := store.GetByRunID(ctx, "r1")
	if len(result) != 2 {
		t.Errorf("Expected 2 trades for r1, got %d", len(result))
	}
}

func TestTradeStore_InsertBulkPartialDuplicate(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	// Insert first
	first := &domain.Trade{TradeID: "t1", RunID: "r1", Symbol: "ABCUSDT"}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// Bulk with duplicate
	trades := []*domain.Trade{
		{TradeID: "t2", RunID: "r1", Symbol: "ABCUSDT"},
		{TradeID: "t1", RunID: "r1", Symbol: "ABCUSDT"}, // duplicate
	}

	err := store.InsertBulk(ctx, trades)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Verify all-or-nothing
	all, _ := store.GetByRunID(ctx, "r1")
	if len(all) != 1 {
		t.Errorf("Expected 1 trade (no partial insert), got %d", len(all))
	}
}

func TestTradeStore_GetByRunIDOrdering(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		{TradeID: "t3", RunID: "r1", Symbol: "ABCUSDT", TimestampMs: 3000},
		{TradeID: "t1", RunID: "r1", Symbol: "ABCUSDT", TimestampMs: 1000},
		{TradeID: "t2", RunID: "r1", Symbol: "XYZUSDT", TimestampMs: 1000},
	}

	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByRunID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(result))
	}
	if result[0].TradeID != "t1" || result[1].TradeID != "t2" || result[2].TradeID != "t3" {
		t.Errorf("Results not ordered by (timestamp_ms, trade_id): %s, %s, %s",
			result[0].TradeID, result[1].TradeID, result[2].TradeID)
	}
}

func TestTradeStore_GetBySymbol(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []*domain.Trade{
		{TradeID: "t1", RunID: "r1", Symbol: "ABCUSDT", TimestampMs: 1000},
		{TradeID: "t2", RunID: "r2", Symbol: "ABCUSDT", TimestampMs: 2000},
		{TradeID: "t3", RunID: "r1", Symbol: "XYZUSDT", TimestampMs: 3000},
	}

	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySymbol(ctx, "ABCUSDT")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}

	if len(result) != 2 {
		t.Errorf("Expected 2 trades across runs, got %d", len(result))
	}
}

func TestTradeStore_InvalidInput(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	err := store.Insert(ctx, nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	err = store.Insert(ctx, &domain.Trade{TradeID: ""})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
