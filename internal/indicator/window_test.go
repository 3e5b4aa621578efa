package indicator

import (
	"errors"
	"math"
	"testing"

	"pump-short-lab/internal/domain"
)

func barsWithCloses(closes ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{TimestampMs: int64(i) * 3600000, Close: c, Volume: 100}
	}
	return bars
}

func TestGainPercent(t *testing.T) {
	bars := barsWithCloses(0.10, 0.11, 0.12, 0.22)

	got, err := GainPercent(bars, 3)
	if err != nil {
		t.Fatalf("GainPercent failed: %v", err)
	}
	if math.Abs(got-120.0) > 1e-9 {
		t.Errorf("GainPercent = %f, want 120", got)
	}
}

func TestGainPercent_InsufficientHistory(t *testing.T) {
	bars := barsWithCloses(0.10, 0.20)

	_, err := GainPercent(bars, 3)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("Expected ErrInsufficientHistory, got %v", err)
	}

	// Exactly enough: last index minus hours lands on index 0
	bars = barsWithCloses(0.10, 0.12, 0.15, 0.20)
	if _, err := GainPercent(bars, 3); err != nil {
		t.Errorf("Expected success with exact history, got %v", err)
	}
}

func TestVolumeBaseline_ExcludesLastBar(t *testing.T) {
	bars := []domain.Bar{
		{Volume: 100}, {Volume: 200}, {Volume: 300},
		{Volume: 9000}, // last bar, the spike under test
	}

	got, err := VolumeBaseline(bars, 3)
	if err != nil {
		t.Fatalf("VolumeBaseline failed: %v", err)
	}
	if math.Abs(got-200) > 1e-9 {
		t.Errorf("VolumeBaseline = %f, want 200 (spike excluded)", got)
	}
}

func TestVolumeBaseline_InsufficientHistory(t *testing.T) {
	bars := []domain.Bar{{Volume: 100}, {Volume: 200}}

	_, err := VolumeBaseline(bars, 3)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("Expected ErrInsufficientHistory, got %v", err)
	}
}

func TestHistoricalAvgPrice(t *testing.T) {
	bars := barsWithCloses(0.10, 0.20, 0.30, 0.90)

	got, err := HistoricalAvgPrice(bars, 3)
	if err != nil {
		t.Fatalf("HistoricalAvgPrice failed: %v", err)
	}
	if math.Abs(got-0.20) > 1e-9 {
		t.Errorf("HistoricalAvgPrice = %f, want 0.20", got)
	}
}
