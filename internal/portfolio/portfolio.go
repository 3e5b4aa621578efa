// Package portfolio keeps the cash/equity ledger of one simulation run.
// A Portfolio is not safe for concurrent mutation; the executor that
// created it owns it exclusively for the duration of the run.
package portfolio

import (
	"errors"

	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/position"
)

// Ledger errors.
var (
	ErrPositionExists   = errors.New("position already open for symbol")
	ErrNoPosition       = errors.New("no open position for symbol")
	ErrPositionNotOpen  = errors.New("position is not open")
	ErrNonPositiveSize  = errors.New("position size must be positive")
	ErrNonPositivePrice = errors.New("fill price must be positive")
)

// Portfolio holds cash, at most one open position per symbol, the closed
// archive and the equity curve. Cash moves only through open/add/close:
// fees are debited at each fill, realized P&L is settled once at close.
// Short sale proceeds are never credited (margin-reserve convention), so
// equity(t) = cash + Σ unrealized P&L holds exactly.
type Portfolio struct {
	InitialCapital float64
	CashBalance    float64

	open        map[string]*position.Position
	Closed      []*position.Position
	EquityCurve []domain.EquityPoint
}

// New creates a portfolio with its full capital in cash.
func New(initialCapital float64) *Portfolio {
	return &Portfolio{
		InitialCapital: initialCapital,
		CashBalance:    initialCapital,
		open:           make(map[string]*position.Position),
	}
}

// OpenShort opens a new short position and debits the entry fee.
func (pf *Portfolio) OpenShort(symbol string, timestampMs int64, fillPrice, size, fee float64) (*position.Position, error) {
	if _, exists := pf.open[symbol]; exists {
		return nil, ErrPositionExists
	}
	if size <= 0 {
		return nil, ErrNonPositiveSize
	}
	if fillPrice <= 0 {
		return nil, ErrNonPositivePrice
	}

	pos := position.Open(symbol, timestampMs, fillPrice, size, fee)
	pf.open[symbol] = pos
	pf.CashBalance -= fee
	return pos, nil
}

// AddToPosition appends a grid fill to an open position and debits its fee.
func (pf *Portfolio) AddToPosition(symbol string, kind position.LotKind, timestampMs int64, fillPrice, size, fee float64) error {
	pos, exists := pf.open[symbol]
	if !exists {
		return ErrNoPosition
	}
	if pos.Status != position.StatusOpen {
		return ErrPositionNotOpen
	}
	pos.AddLot(kind, timestampMs, fillPrice, size, fee)
	pf.CashBalance -= fee
	return nil
}

// ClosePosition covers the entire position atomically: realized P&L across
// all lots is credited, the exit fee debited, and the position moves from
// the active set to the closed archive.
func (pf *Portfolio) ClosePosition(symbol string, timestampMs int64, coverPrice, fee float64, reason string) (float64, error) {
	pos, exists := pf.open[symbol]
	if !exists {
		return 0, ErrNoPosition
	}

	realized := pos.Close(timestampMs, coverPrice, fee, reason)
	pf.CashBalance += realized - fee

	delete(pf.open, symbol)
	pf.Closed = append(pf.Closed, pos)
	return realized, nil
}

// Position returns the open position for a symbol, if any.
func (pf *Portfolio) Position(symbol string) (*position.Position, bool) {
	pos, exists := pf.open[symbol]
	return pos, exists
}

// OpenCount returns the number of open positions.
func (pf *Portfolio) OpenCount() int {
	return len(pf.open)
}

// OpenSymbols returns the symbols with an open position, in map order.
// Callers that need determinism sort the result.
func (pf *Portfolio) OpenSymbols() []string {
	symbols := make([]string, 0, len(pf.open))
	for s := range pf.open {
		symbols = append(symbols, s)
	}
	return symbols
}

// TotalExposure is the committed entry notional across open positions.
// Deliberately not mark-to-market, so the exposure budget does not breathe
// with unrealized P&L.
func (pf *Portfolio) TotalExposure() float64 {
	total := 0.0
	for _, pos := range pf.open {
		total += pos.EntryNotional()
	}
	return total
}

// Equity marks the portfolio against the latest close per symbol.
func (pf *Portfolio) Equity(lastClose map[string]float64) float64 {
	equity := pf.CashBalance
	for symbol, pos := range pf.open {
		equity += pos.UnrealizedPnL(lastClose[symbol])
	}
	return equity
}

// SampleEquity appends one equity-curve point. The executor calls this
// exactly once per processed bar.
func (pf *Portfolio) SampleEquity(timestampMs int64, lastClose map[string]float64) {
	pf.EquityCurve = append(pf.EquityCurve, domain.EquityPoint{
		TimestampMs: timestampMs,
		Equity:      pf.Equity(lastClose),
	})
}
