package metrics

import (
	"math"
	"testing"

	"pump-short-lab/internal/domain"
)

func TestCompute_EmptyRun(t *testing.T) {
	s := Compute(10000, nil, nil, 0)

	if s.FinalEquity != 10000 {
		t.Errorf("FinalEquity = %f, want initial capital", s.FinalEquity)
	}
	if s.TotalReturn != 0 {
		t.Errorf("TotalReturn = %f, want 0", s.TotalReturn)
	}
	if s.MaxDrawdown != 0 || s.SharpeRatio != 0 || s.WinRate != 0 {
		t.Error("empty run should have zero risk metrics")
	}
}

func TestCompute_TotalReturn(t *testing.T) {
	curve := []domain.EquityPoint{
		{TimestampMs: 1000, Equity: 10000},
		{TimestampMs: 2000, Equity: 11200},
	}

	s := Compute(10000, curve, nil, 0)

	if math.Abs(s.TotalReturn-0.12) > 1e-9 {
		t.Errorf("TotalReturn = %f, want 0.12", s.TotalReturn)
	}
	if s.FinalEquity != 11200 {
		t.Errorf("FinalEquity = %f, want 11200", s.FinalEquity)
	}
}

func TestComputeMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		equities []float64
		want     float64
	}{
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"single dip", []float64{100, 120, 90, 130}, 0.25},
		{"worst of two dips", []float64{100, 80, 120, 60}, 0.5},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curve := make([]domain.EquityPoint, len(tt.equities))
			for i, e := range tt.equities {
				curve[i] = domain.EquityPoint{TimestampMs: int64(i), Equity: e}
			}

			got := computeMaxDrawdown(curve)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("computeMaxDrawdown = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestComputeSharpe_FlatCurveIsZero(t *testing.T) {
	curve := []domain.EquityPoint{
		{TimestampMs: 1, Equity: 10000},
		{TimestampMs: 2, Equity: 10000},
		{TimestampMs: 3, Equity: 10000},
	}

	if got := computeSharpe(curve); got != 0 {
		t.Errorf("computeSharpe = %f, want 0 for zero variance", got)
	}
}

func TestComputeSharpe_PositiveForSteadyGains(t *testing.T) {
	curve := []domain.EquityPoint{
		{TimestampMs: 1, Equity: 10000},
		{TimestampMs: 2, Equity: 10100},
		{TimestampMs: 3, Equity: 10150},
		{TimestampMs: 4, Equity: 10300},
	}

	if got := computeSharpe(curve); got <= 0 {
		t.Errorf("computeSharpe = %f, want > 0", got)
	}
}

func TestCompute_WinRateAndProfitFactor(t *testing.T) {
	trades := []domain.Trade{
		{Action: domain.ActionOpenShort},
		{Action: domain.ActionAddShort},
		{Action: domain.ActionCloseTakeProfit, RealizedPnL: 200},
		{Action: domain.ActionOpenShort},
		{Action: domain.ActionCloseStopLoss, RealizedPnL: -100},
		{Action: domain.ActionCloseEndOfData, RealizedPnL: 50},
	}

	s := Compute(10000, nil, trades, 2)

	if s.TotalTrades != 6 {
		t.Errorf("TotalTrades = %d, want 6", s.TotalTrades)
	}
	if s.ClosedTrades != 3 {
		t.Errorf("ClosedTrades = %d, want 3", s.ClosedTrades)
	}
	if math.Abs(s.WinRate-2.0/3.0) > 1e-9 {
		t.Errorf("WinRate = %f, want 2/3", s.WinRate)
	}
	if math.Abs(s.ProfitFactor-2.5) > 1e-9 {
		t.Errorf("ProfitFactor = %f, want 2.5", s.ProfitFactor)
	}
	if s.SkippedSignals != 2 {
		t.Errorf("SkippedSignals = %d, want 2", s.SkippedSignals)
	}
}

func TestComputeProfitFactor_NoLosses(t *testing.T) {
	closes := []domain.Trade{{Action: domain.ActionCloseTakeProfit, RealizedPnL: 100}}
	if got := computeProfitFactor(closes); !math.IsInf(got, 1) {
		t.Errorf("computeProfitFactor = %f, want +Inf", got)
	}

	if got := computeProfitFactor(nil); got != 0 {
		t.Errorf("computeProfitFactor = %f, want 0 for no closes", got)
	}
}
