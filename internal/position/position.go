// Package position models one open short with its reverse-grid add
// history. The aggregate is owned exclusively by one executor; decision
// helpers (GridAdds, CheckExit) are pure so the bar loop stays auditable.
package position

// Status of a position. Closed positions are terminal; a new pump cycle
// creates a new Position.
type Status string

// Status constants.
const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// LotKind identifies what produced a fill.
type LotKind string

// Lot kind constants. LotClose is the synthetic marker appended on close;
// it is excluded from size and average-entry math.
const (
	LotOpen    LotKind = "open"
	LotAddUp   LotKind = "add_up"
	LotAddDown LotKind = "add_down"
	LotClose   LotKind = "close"
)

// Lot is one execution fill inside a position. Append-only.
type Lot struct {
	TimestampMs int64
	Kind        LotKind
	Price       float64 // after slippage
	Size        float64
	FeePaid     float64
}

// Position is the stateful model of one open short.
type Position struct {
	Symbol string
	Lots   []Lot

	InitialSize  float64
	UpAddsUsed   int
	DownAddsUsed int

	Status           Status
	CloseReason      string
	CloseTimestampMs int64

	entryPrice float64 // initial fill, anchor for the "entry" grid mode
	refUp      float64 // last up-add fill, or entry while no up-add exists
	refDown    float64 // last down-add fill, tracked independently
}

// Open creates a position from its initial fill.
func Open(symbol string, timestampMs int64, fillPrice, size, fee float64) *Position {
	return &Position{
		Symbol: symbol,
		Lots: []Lot{{
			TimestampMs: timestampMs,
			Kind:        LotOpen,
			Price:       fillPrice,
			Size:        size,
			FeePaid:     fee,
		}},
		InitialSize: size,
		Status:      StatusOpen,
		entryPrice:  fillPrice,
		refUp:       fillPrice,
		refDown:     fillPrice,
	}
}

// AddLot appends a grid fill and advances the matching counter and
// reference price. Grid steps compound from the last fill in that
// direction, not from the original entry.
func (p *Position) AddLot(kind LotKind, timestampMs int64, fillPrice, size, fee float64) {
	p.Lots = append(p.Lots, Lot{
		TimestampMs: timestampMs,
		Kind:        kind,
		Price:       fillPrice,
		Size:        size,
		FeePaid:     fee,
	})
	switch kind {
	case LotAddUp:
		p.UpAddsUsed++
		p.refUp = fillPrice
	case LotAddDown:
		p.DownAddsUsed++
		p.refDown = fillPrice
	}
}

// Close appends the synthetic close marker, flips status and returns the
// realized P&L of the short: (weighted average entry - cover price) × size,
// before fees.
func (p *Position) Close(timestampMs int64, coverPrice, fee float64, reason string) float64 {
	size := p.TotalSize()
	realized := (p.WeightedAvgEntry() - coverPrice) * size

	p.Lots = append(p.Lots, Lot{
		TimestampMs: timestampMs,
		Kind:        LotClose,
		Price:       coverPrice,
		Size:        size,
		FeePaid:     fee,
	})
	p.Status = StatusClosed
	p.CloseReason = reason
	p.CloseTimestampMs = timestampMs
	return realized
}

// TotalSize is the sum of entry-side lot sizes. Zero once closed lots are
// ignored the position still reports its full entry size for audit.
func (p *Position) TotalSize() float64 {
	total := 0.0
	for _, lot := range p.Lots {
		if lot.Kind != LotClose {
			total += lot.Size
		}
	}
	return total
}

// EntryNotional is the committed notional across entry-side lots,
// Σ lot.price × lot.size. Used for exposure budgeting.
func (p *Position) EntryNotional() float64 {
	total := 0.0
	for _, lot := range p.Lots {
		if lot.Kind != LotClose {
			total += lot.Price * lot.Size
		}
	}
	return total
}

// WeightedAvgEntry is the size-weighted mean fill price across entry lots.
func (p *Position) WeightedAvgEntry() float64 {
	size := p.TotalSize()
	if size == 0 {
		return 0
	}
	return p.EntryNotional() / size
}

// UnrealizedPnL marks the open short against a price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Status != StatusOpen {
		return 0
	}
	return (p.WeightedAvgEntry() - price) * p.TotalSize()
}

// ProfitPercent is the position's unrealized profit fraction for a short:
// positive when price sits below the weighted average entry.
func (p *Position) ProfitPercent(price float64) float64 {
	avg := p.WeightedAvgEntry()
	if avg == 0 {
		return 0
	}
	return (avg - price) / avg
}
