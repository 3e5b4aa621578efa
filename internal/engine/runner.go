package engine

import (
	"context"
	"errors"
	"fmt"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/storage"
)

// Runner errors
var (
	ErrNoBars = errors.New("no bars found for requested symbols")
)

// Runner wires the executor to storage: it loads bar history, runs the
// simulation, and persists the resulting trades and equity curve.
type Runner struct {
	executor    *Executor
	barStore    storage.BarStore
	tradeStore  storage.TradeStore
	equityStore storage.EquityStore
}

// RunnerOptions contains configuration for creating a Runner.
// TradeStore and EquityStore may be nil; the run then stays in memory.
type RunnerOptions struct {
	Executor    *Executor
	BarStore    storage.BarStore
	TradeStore  storage.TradeStore
	EquityStore storage.EquityStore
}

// NewRunner creates a storage-backed runner.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		executor:    opts.Executor,
		barStore:    opts.BarStore,
		tradeStore:  opts.TradeStore,
		equityStore: opts.EquityStore,
	}
}

// Run loads bars for the given symbols, simulates, and persists results.
// An empty symbol list means every symbol in the bar store.
func (r *Runner) Run(ctx context.Context, symbols []string) (*Result, error) {
	if len(symbols) == 0 {
		all, err := r.barStore.Symbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("list symbols: %w", err)
		}
		symbols = all
	}

	series := make(map[string][]domain.Bar, len(symbols))
	for _, symbol := range symbols {
		bars, err := r.barStore.GetBySymbol(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("load bars for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			continue
		}
		series[symbol] = bars
	}
	if len(series) == 0 {
		return nil, ErrNoBars
	}

	result, err := r.executor.Run(ctx, series)
	if err != nil {
		return nil, err
	}

	if r.tradeStore != nil && len(result.Trades) > 0 {
		trades := make([]*domain.Trade, len(result.Trades))
		for i := range result.Trades {
			trades[i] = &result.Trades[i]
		}
		if err := r.tradeStore.InsertBulk(ctx, trades); err != nil {
			return nil, fmt.Errorf("persist trades: %w", err)
		}
	}

	if r.equityStore != nil && len(result.EquityCurve) > 0 {
		curve := domain.CollapseEquityCurve(result.EquityCurve)
		if err := r.equityStore.InsertBulk(ctx, result.RunID, curve); err != nil {
			return nil, fmt.Errorf("persist equity curve: %w", err)
		}
	}

	return result, nil
}
