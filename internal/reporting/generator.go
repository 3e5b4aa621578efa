package reporting

import (
	"sort"
	"strings"
	"time"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/metrics"
)

// BuildOptions carries the raw run output the report is built from.
type BuildOptions struct {
	RunID           string
	InitialCapital  float64
	Trades          []domain.Trade
	EquityCurve     []domain.EquityPoint
	SkippedSignals  []domain.SkippedSignal
	IntegrityErrors []string
	SymbolCount     int
	BarCount        int
}

// Build assembles a report from run output. It computes the performance
// summary and the per-symbol breakdown; rendering is left to the caller.
func Build(opts BuildOptions) *Report {
	return &Report{
		GeneratedAt:     time.Now().UTC(),
		RunID:           opts.RunID,
		SymbolCount:     opts.SymbolCount,
		BarCount:        opts.BarCount,
		Summary:         *metrics.Compute(opts.InitialCapital, opts.EquityCurve, opts.Trades, len(opts.SkippedSignals)),
		SymbolMetrics:   buildSymbolMetrics(opts.Trades),
		Trades:          opts.Trades,
		SkippedSignals:  opts.SkippedSignals,
		IntegrityErrors: opts.IntegrityErrors,
	}
}

// buildSymbolMetrics aggregates the trade log per symbol, sorted by
// symbol ASC.
func buildSymbolMetrics(trades []domain.Trade) []SymbolMetricRow {
	bySymbol := make(map[string]*SymbolMetricRow)
	winsBySymbol := make(map[string]int)

	for _, t := range trades {
		row, ok := bySymbol[t.Symbol]
		if !ok {
			row = &SymbolMetricRow{Symbol: t.Symbol}
			bySymbol[t.Symbol] = row
		}

		row.Trades++
		row.FeesPaid += t.Fee

		if strings.HasPrefix(t.Action, "CLOSE_") {
			row.ClosedTrades++
			row.RealizedPnL += t.RealizedPnL
			if t.RealizedPnL > 0 {
				winsBySymbol[t.Symbol]++
			}
		}
	}

	rows := make([]SymbolMetricRow, 0, len(bySymbol))
	for symbol, row := range bySymbol {
		if row.ClosedTrades > 0 {
			row.WinRate = float64(winsBySymbol[symbol]) / float64(row.ClosedTrades)
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	return rows
}
