package domain

import (
	"errors"
	"fmt"
)

// Bar represents one OHLCV candle for a symbol.
// Timestamps are Unix milliseconds; bars are immutable once loaded.
type Bar struct {
	TimestampMs int64   // bar open time, unique per symbol
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
}

// Bar validation errors.
var (
	ErrNonPositivePrice = errors.New("bar has non-positive price")
	ErrNegativeVolume   = errors.New("bar has negative volume")
	ErrHighBelowBody    = errors.New("bar high below max(open, close)")
	ErrLowAboveBody     = errors.New("bar low above min(open, close)")
	ErrOutOfOrder       = errors.New("bars are not in strictly increasing time order")
)

// IntegrityError reports a malformed bar or broken ordering with enough
// context to locate the upstream data defect.
type IntegrityError struct {
	Symbol      string
	TimestampMs int64
	Err         error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("bar integrity violation for %s at %d: %v", e.Symbol, e.TimestampMs, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Validate checks the OHLC invariants of a single bar.
func (b Bar) Validate() error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return ErrNonPositivePrice
	}
	if b.Volume < 0 {
		return ErrNegativeVolume
	}
	if b.High < max(b.Open, b.Close) {
		return ErrHighBelowBody
	}
	if b.Low > min(b.Open, b.Close) {
		return ErrLowAboveBody
	}
	return nil
}

// ValidateSeries checks every bar of a series plus strict time ordering.
// Returns an *IntegrityError identifying the first offending bar.
// A broken series is a data defect, not a strategy edge case.
func ValidateSeries(symbol string, bars []Bar) error {
	var prev int64
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return &IntegrityError{Symbol: symbol, TimestampMs: b.TimestampMs, Err: err}
		}
		if i > 0 && b.TimestampMs <= prev {
			return &IntegrityError{Symbol: symbol, TimestampMs: b.TimestampMs, Err: ErrOutOfOrder}
		}
		prev = b.TimestampMs
	}
	return nil
}
