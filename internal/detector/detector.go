// Package detector implements pump and reversal detection over a bar
// history. Detect is pure and side-effect-free; admission control (one
// position per symbol) belongs to the executor.
package detector

import (
	"fmt"

	"pump-short-lab/internal/config"
	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/indicator"
)

// Detector evaluates the entry conditions of the pump-short strategy.
type Detector struct {
	PumpThresholdPercent         float64
	LookbackHours                int
	VolumeConfirmationMultiplier float64
	BaselineWindow               int

	Patterns        Thresholds
	HighLevelMult   float64 // close must exceed trailing avg by this fraction
	HighLevelFactor float64 // relaxation factor applied to Patterns, in (0, 1]
}

// Thresholds are the candle-pattern cutoffs for reversal detection.
// Kept as one value so the high-level relaxation stays table-driven
// instead of branching inside each pattern check.
type Thresholds struct {
	BearishVolumeMultiplier float64
	UpperShadowRatio        float64
	DojiBodyRatio           float64
}

// Relaxed returns the thresholds scaled by a relaxation factor: the volume
// and shadow requirements shrink, the doji body tolerance grows.
func (t Thresholds) Relaxed(factor float64) Thresholds {
	return Thresholds{
		BearishVolumeMultiplier: t.BearishVolumeMultiplier * factor,
		UpperShadowRatio:        t.UpperShadowRatio * factor,
		DojiBodyRatio:           t.DojiBodyRatio / factor,
	}
}

// FromConfig builds a Detector from the validated config.
func FromConfig(cfg *config.Config) *Detector {
	return &Detector{
		PumpThresholdPercent:         cfg.PumpThresholdPercent,
		LookbackHours:                cfg.LookbackHours(),
		VolumeConfirmationMultiplier: cfg.VolumeConfirmationMultiplier,
		BaselineWindow:               cfg.BaselineWindow,
		Patterns: Thresholds{
			BearishVolumeMultiplier: cfg.BearishVolumeMultiplier,
			UpperShadowRatio:        cfg.UpperShadowRatioThreshold,
			DojiBodyRatio:           cfg.DojiBodyRatioThreshold,
		},
		HighLevelMult:   cfg.HighLevelMultiplier,
		HighLevelFactor: cfg.HighLevelRelaxFactor,
	}
}

// Detect returns an entry signal when the last bar of the history completes
// a volume-confirmed pump and shows reversal evidence, nil otherwise.
// Insufficient history is treated as "no signal", never as an error.
func (d *Detector) Detect(symbol string, bars []domain.Bar) *domain.Signal {
	if len(bars) == 0 {
		return nil
	}
	bar := bars[len(bars)-1]

	gain, err := indicator.GainPercent(bars, d.LookbackHours)
	if err != nil {
		return nil
	}
	if gain < d.PumpThresholdPercent {
		return nil
	}

	baseline, err := indicator.VolumeBaseline(bars, d.BaselineWindow)
	if err != nil {
		return nil
	}
	// Thin-volume spikes are rejected even when the gain qualifies.
	if bar.Volume < d.VolumeConfirmationMultiplier*baseline {
		return nil
	}

	thresholds := d.Patterns
	highLevel := false
	if avg, err := indicator.HistoricalAvgPrice(bars, d.BaselineWindow); err == nil {
		if bar.Close > avg*(1+d.HighLevelMult) {
			thresholds = d.Patterns.Relaxed(d.HighLevelFactor)
			highLevel = true
		}
	}

	pattern, ok := matchReversal(bar, baseline, thresholds)
	if !ok {
		return nil
	}
	if highLevel {
		pattern = "high_level_" + pattern
	}

	return &domain.Signal{
		TimestampMs:    bar.TimestampMs,
		Symbol:         symbol,
		Kind:           domain.SignalKindPumpReversal,
		ReferencePrice: bar.Close,
		GainPercent:    gain,
		Reason:         fmt.Sprintf("gain %.1f%% over %dh, reversal pattern %s", gain, d.LookbackHours, pattern),
	}
}

// matchReversal checks the candle patterns in fixed order and reports the
// first match. Zero-range bars cannot produce shadow or doji evidence.
func matchReversal(bar domain.Bar, volumeBaseline float64, t Thresholds) (string, bool) {
	if bar.Close < bar.Open && bar.Volume >= volumeBaseline*t.BearishVolumeMultiplier {
		return "volume_bearish", true
	}

	totalRange := bar.High - bar.Low
	if totalRange <= 0 {
		return "", false
	}

	upperShadow := bar.High - max(bar.Open, bar.Close)
	if upperShadow/totalRange >= t.UpperShadowRatio {
		return "upper_shadow", true
	}

	body := bar.Close - bar.Open
	if body < 0 {
		body = -body
	}
	if body/totalRange <= t.DojiBodyRatio {
		return "doji", true
	}

	return "", false
}
