package domain

// Signal kind constants.
const (
	SignalKindPumpReversal = "PUMP_REVERSAL"
)

// Signal is an entry signal produced by the detector.
// Produced once, never mutated; consumed once by the executor.
type Signal struct {
	TimestampMs    int64
	Symbol         string
	Kind           string
	ReferencePrice float64 // close of the signal bar, before slippage
	GainPercent    float64 // trailing gain that triggered the pump condition
	Reason         string  // free-text diagnostic (which reversal pattern fired)
}

// Skip reason constants for signals that qualified but were not acted on.
const (
	SkipReasonExposureBudget     = "EXPOSURE_BUDGET_EXHAUSTED"
	SkipReasonConcurrencyLimit   = "MAX_CONCURRENT_POSITIONS"
	SkipReasonInsufficientEquity = "INSUFFICIENT_EQUITY"
)

// SkippedSignal records a qualifying signal that capacity limits rejected.
// Kept separate from trades so reports can distinguish "no pump happened"
// from "pump happened but was capacity-limited".
type SkippedSignal struct {
	TimestampMs int64
	Symbol      string
	Reason      string
	Signal      Signal
}
