package domain

// Trade action constants.
const (
	ActionOpenShort       = "OPEN_SHORT"
	ActionAddShort        = "ADD_SHORT"
	ActionCloseStopLoss   = "CLOSE_STOP_LOSS"
	ActionCloseTakeProfit = "CLOSE_TAKE_PROFIT"
	ActionCloseEndOfData  = "CLOSE_END_OF_DATA"
)

// Position close reason constants.
const (
	CloseReasonStopLoss   = "STOP_LOSS"
	CloseReasonTakeProfit = "TAKE_PROFIT"
	CloseReasonEndOfData  = "END_OF_DATA"
)

// Trade represents one execution: an open, a grid add, or a full close.
type Trade struct {
	TradeID     string // deterministic hash, see idhash
	RunID       string // simulation run this trade belongs to
	TimestampMs int64
	Symbol      string
	Action      string
	Price       float64 // fill price after slippage
	Size        float64 // base units
	Fee         float64 // fee charged on notional
	RealizedPnL float64 // non-zero only on close actions
	Reason      string  // diagnostic: signal reason, grid direction, exit reason
}

// EquityPoint is one equity-curve sample: portfolio equity after a bar
// has been fully applied. Exactly one sample per processed bar.
type EquityPoint struct {
	TimestampMs int64
	Equity      float64
}

// CollapseEquityCurve reduces a time-ordered equity curve to one point per
// timestamp, keeping the last sample. Symbols sharing a bar grid produce
// several samples at the same instant; the last one reflects the portfolio
// after every bar of that instant has been applied. Stores keyed by
// (run_id, timestamp_ms) require the collapsed form.
func CollapseEquityCurve(points []EquityPoint) []EquityPoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]EquityPoint, 0, len(points))
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].TimestampMs == p.TimestampMs {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// PerformanceSummary holds derived metrics computed from the equity curve
// and the trade log by the reporting side, not by the engine.
type PerformanceSummary struct {
	InitialCapital float64
	FinalEquity    float64
	TotalReturn    float64 // (final - initial) / initial
	MaxDrawdown    float64 // worst peak-to-trough on the equity curve, fraction of peak
	SharpeRatio    float64 // annualized from per-bar returns, hourly bars
	WinRate        float64 // closed positions with positive realized P&L / closed positions
	ProfitFactor   float64 // gross profit / gross loss, 0 when no losses
	TotalTrades    int     // all executions including adds
	ClosedTrades   int     // close executions only
	SkippedSignals int
}
