// Package indicator provides rolling-window helpers over a bar history.
// All helpers fail closed: when the window lacks enough prior bars they
// return ErrInsufficientHistory and callers treat that as "no signal".
package indicator

import (
	"errors"

	"pump-short-lab/internal/domain"
)

// ErrInsufficientHistory is returned when the rolling window does not
// have enough prior bars. Recoverable; never extrapolated over.
var ErrInsufficientHistory = errors.New("insufficient history for rolling window")

// GainPercent returns the close-over-close gain of the last bar versus the
// bar `hours` periods earlier, in percent. Hour granularity is the bar's
// native period, so a "day" lookback is 24 bars on hourly data.
func GainPercent(bars []domain.Bar, hours int) (float64, error) {
	if hours <= 0 {
		return 0, ErrInsufficientHistory
	}
	last := len(bars) - 1
	ref := last - hours
	if ref < 0 {
		return 0, ErrInsufficientHistory
	}
	past := bars[ref].Close
	return (bars[last].Close - past) / past * 100, nil
}

// VolumeBaseline returns the arithmetic mean volume over the `window` bars
// preceding the last bar, excluding the last bar itself. Used to confirm
// that a surge is not a single-bar anomaly.
func VolumeBaseline(bars []domain.Bar, window int) (float64, error) {
	return trailingMean(bars, window, func(b domain.Bar) float64 { return b.Volume })
}

// HistoricalAvgPrice returns the arithmetic mean close over the `window`
// bars preceding the last bar, excluding the last bar itself.
func HistoricalAvgPrice(bars []domain.Bar, window int) (float64, error) {
	return trailingMean(bars, window, func(b domain.Bar) float64 { return b.Close })
}

func trailingMean(bars []domain.Bar, window int, value func(domain.Bar) float64) (float64, error) {
	if window <= 0 {
		return 0, ErrInsufficientHistory
	}
	last := len(bars) - 1
	if last < window {
		return 0, ErrInsufficientHistory
	}
	sum := 0.0
	for i := last - window; i < last; i++ {
		sum += value(bars[i])
	}
	return sum / float64(window), nil
}
