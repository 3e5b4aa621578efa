// Package reporting renders run results for humans: a Markdown summary
// plus CSV exports of the trade log and equity curve.
package reporting

import (
	"time"

	"pump-short-lab/internal/domain"
)

// Report represents the rendered view of one simulation run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	SymbolCount int
	BarCount    int

	// Performance
	Summary domain.PerformanceSummary

	// Per-symbol breakdown (sorted by symbol ASC)
	SymbolMetrics []SymbolMetricRow

	// Trade log (chronological)
	Trades []domain.Trade

	// Signals rejected by capacity limits (chronological)
	SkippedSignals []domain.SkippedSignal

	// Symbols excluded for data defects
	IntegrityErrors []string
}

// SymbolMetricRow aggregates closed trades of one symbol.
type SymbolMetricRow struct {
	Symbol       string
	Trades       int
	ClosedTrades int
	RealizedPnL  float64
	FeesPaid     float64
	WinRate      float64
}
