package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RenderMarkdown renders a report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Pump-Short Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Symbols: %d | Bars: %d\n\n", r.SymbolCount, r.BarCount))

	// Performance Summary
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | %.2f |\n", r.Summary.InitialCapital))
	sb.WriteString(fmt.Sprintf("| Final Equity | %.2f |\n", r.Summary.FinalEquity))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", r.Summary.TotalReturn*100))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", r.Summary.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.4f |\n", r.Summary.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.Summary.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatProfitFactor(r.Summary.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Total Fills | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.Summary.ClosedTrades))
	sb.WriteString(fmt.Sprintf("| Skipped Signals | %d |\n", r.Summary.SkippedSignals))
	sb.WriteString("\n")

	// Per-symbol breakdown
	sb.WriteString("## Per-Symbol Breakdown\n\n")
	if len(r.SymbolMetrics) > 0 {
		sb.WriteString("| Symbol | Fills | Closed | Realized PnL | Fees | WinRate |\n")
		sb.WriteString("|--------|-------|--------|--------------|------|--------|\n")
		for _, m := range r.SymbolMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.4f | %.4f | %.2f%% |\n",
				m.Symbol, m.Trades, m.ClosedTrades, m.RealizedPnL, m.FeesPaid, m.WinRate*100))
		}
	} else {
		sb.WriteString("No trades executed.\n")
	}
	sb.WriteString("\n")

	// Skipped signals
	sb.WriteString("## Skipped Signals\n\n")
	if len(r.SkippedSignals) > 0 {
		sb.WriteString("| Timestamp (ms) | Symbol | Reason |\n")
		sb.WriteString("|----------------|--------|--------|\n")
		for _, s := range r.SkippedSignals {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", s.TimestampMs, s.Symbol, s.Reason))
		}
	} else {
		sb.WriteString("No signals were skipped.\n")
	}
	sb.WriteString("\n")

	// Integrity errors (shown only if present)
	if len(r.IntegrityErrors) > 0 {
		sb.WriteString("## Integrity Errors\n\n")
		for _, err := range r.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", pf)
}
