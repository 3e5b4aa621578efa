package engine_test

import (
	"context"
	"errors"
	"testing"

	"pump-short-lab/internal/config"
	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/engine"
	"pump-short-lab/internal/storage"
	"pump-short-lab/internal/storage/memory"
)

// runnerSeries is a pump scenario that produces a full trade cycle:
// 25 quiet hourly bars, a volume-confirmed reversal bar, and a collapse
// bar that takes profit.
func runnerSeries() []domain.Bar {
	bars := make([]domain.Bar, 25)
	for i := range bars {
		bars[i] = domain.Bar{
			TimestampMs: int64(i) * 3600000,
			Open:        0.10, High: 0.10, Low: 0.10, Close: 0.10,
			Volume: 100,
		}
	}
	bars = append(bars, domain.Bar{
		TimestampMs: 25 * 3600000,
		Open:        0.22, High: 0.23, Low: 0.19, Close: 0.20,
		Volume:      1000,
	})
	return append(bars, domain.Bar{
		TimestampMs: 26 * 3600000,
		Open:        0.20, High: 0.20, Low: 0.16, Close: 0.17,
		Volume:      100,
	})
}

func runnerConfig() *config.Config {
	cfg := config.Default()
	cfg.LookbackDays = 1
	cfg.BaselineWindow = 4
	return cfg
}

func newRunner(t *testing.T, barStore storage.BarStore, tradeStore storage.TradeStore, equityStore storage.EquityStore) *engine.Runner {
	t.Helper()
	exec, err := engine.New(runnerConfig(), nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return engine.NewRunner(engine.RunnerOptions{
		Executor:    exec,
		BarStore:    barStore,
		TradeStore:  tradeStore,
		EquityStore: equityStore,
	})
}

func TestRunner_RunPersistsTradesAndEquity(t *testing.T) {
	ctx := context.Background()

	barStore := memory.NewBarStore()
	if err := barStore.InsertBulk(ctx, "ABCUSDT", runnerSeries()); err != nil {
		t.Fatalf("seed bars: %v", err)
	}
	tradeStore := memory.NewTradeStore()
	equityStore := memory.NewEquityStore()

	r := newRunner(t, barStore, tradeStore, equityStore)
	result, err := r.Run(ctx, []string{"ABCUSDT"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Trades) == 0 {
		t.Fatal("Expected trades from the pump scenario")
	}

	stored, err := tradeStore.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(stored) != len(result.Trades) {
		t.Errorf("stored %d trades, result has %d", len(stored), len(result.Trades))
	}

	curve, err := equityStore.GetByRunID(ctx, result.RunID)
	if err != nil {
		t.Fatalf("equity GetByRunID failed: %v", err)
	}
	if len(curve) != result.BarsProcessed {
		t.Errorf("stored %d equity points, want %d", len(curve), result.BarsProcessed)
	}
}

func TestRunner_EmptySymbolsMeansAll(t *testing.T) {
	ctx := context.Background()

	barStore := memory.NewBarStore()
	if err := barStore.InsertBulk(ctx, "ABCUSDT", runnerSeries()); err != nil {
		t.Fatalf("seed bars: %v", err)
	}

	r := newRunner(t, barStore, nil, nil)
	result, err := r.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.BarsProcessed != 27 {
		t.Errorf("BarsProcessed = %d, want 27", result.BarsProcessed)
	}
}

func TestRunner_NoBars(t *testing.T) {
	r := newRunner(t, memory.NewBarStore(), nil, nil)

	_, err := r.Run(context.Background(), []string{"ABCUSDT"})
	if !errors.Is(err, engine.ErrNoBars) {
		t.Errorf("Expected ErrNoBars, got %v", err)
	}
}

func TestRunner_NilPersistenceStoresAreOptional(t *testing.T) {
	ctx := context.Background()

	barStore := memory.NewBarStore()
	if err := barStore.InsertBulk(ctx, "ABCUSDT", runnerSeries()); err != nil {
		t.Fatalf("seed bars: %v", err)
	}

	r := newRunner(t, barStore, nil, nil)
	if _, err := r.Run(ctx, []string{"ABCUSDT"}); err != nil {
		t.Fatalf("Run without persistence failed: %v", err)
	}
}
