// Package metrics derives the performance summary of a finished run from
// its equity curve and trade log. Everything here is pure arithmetic so
// stored runs can be re-summarized without replaying bars.
package metrics

import (
	"math"
	"strings"

	"pump-short-lab/internal/domain"
)

// Hourly bars, so a trading year is 24*365 samples.
const periodsPerYear = 8760

// Compute calculates the performance summary for one run.
// The equity curve must be in chronological order.
func Compute(initialCapital float64, curve []domain.EquityPoint, trades []domain.Trade, skipped int) *domain.PerformanceSummary {
	s := &domain.PerformanceSummary{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		TotalTrades:    len(trades),
		SkippedSignals: skipped,
	}

	if len(curve) > 0 {
		s.FinalEquity = curve[len(curve)-1].Equity
	}
	if initialCapital > 0 {
		s.TotalReturn = (s.FinalEquity - initialCapital) / initialCapital
	}

	s.MaxDrawdown = computeMaxDrawdown(curve)
	s.SharpeRatio = computeSharpe(curve)

	closes := closedTrades(trades)
	s.ClosedTrades = len(closes)
	s.WinRate = computeWinRate(closes)
	s.ProfitFactor = computeProfitFactor(closes)

	return s
}

// closedTrades filters the trade log down to closing fills, the only ones
// carrying realized PnL.
func closedTrades(trades []domain.Trade) []domain.Trade {
	var closes []domain.Trade
	for _, t := range trades {
		if strings.HasPrefix(t.Action, "CLOSE_") {
			closes = append(closes, t)
		}
	}
	return closes
}

// computeMaxDrawdown calculates the worst peak-to-trough decline as a
// fraction of the peak.
func computeMaxDrawdown(curve []domain.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Equity
	maxDrawdown := 0.0

	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - p.Equity) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeSharpe calculates the annualized Sharpe ratio of per-bar returns
// with a zero risk-free rate. Returns 0 when the curve is too short or
// return variance is zero.
func computeSharpe(curve []domain.EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			return 0
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}

	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)
	if stddev == 0 {
		return 0
	}

	return mean / stddev * math.Sqrt(periodsPerYear)
}

// computeWinRate calculates the fraction of closed trades with positive
// realized PnL.
func computeWinRate(closes []domain.Trade) float64 {
	if len(closes) == 0 {
		return 0
	}
	wins := 0
	for _, t := range closes {
		if t.RealizedPnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(closes))
}

// computeProfitFactor calculates gross profit over gross loss. With no
// losing trades the factor is undefined and reported as +Inf when there
// are wins, 0 otherwise.
func computeProfitFactor(closes []domain.Trade) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, t := range closes {
		if t.RealizedPnL > 0 {
			grossProfit += t.RealizedPnL
		} else {
			grossLoss += -t.RealizedPnL
		}
	}

	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}
