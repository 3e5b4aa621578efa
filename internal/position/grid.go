package position

import (
	"pump-short-lab/internal/config"
	"pump-short-lab/internal/domain"
)

// AddIntent is a grid add the current bar triggers. Intents are decisions,
// not fills: the executor prices them with slippage and may discard them
// when an exit fires on the same bar.
type AddIntent struct {
	Kind         LotKind // LotAddUp or LotAddDown
	TriggerPrice float64 // bar close that crossed the grid step
	Size         float64 // initial size × add fraction
}

// GridConfig is the grid subset of the simulation config.
type GridConfig struct {
	AddUpThreshold   float64
	AddDownThreshold float64
	MaxAdds          int
	AddFraction      float64
	Reference        string // config.GridRefLastFill or config.GridRefEntry
}

// ExitConfig is the risk-exit subset of the simulation config.
type ExitConfig struct {
	StopLossThreshold   float64
	TakeProfitThreshold float64
}

// GridAdds reports which grid adds the bar triggers. Up and down use
// independent reference prices and counters, so a wide-range bar can
// trigger both directions at once.
func GridAdds(p *Position, bar domain.Bar, cfg GridConfig) []AddIntent {
	if p.Status != StatusOpen {
		return nil
	}

	size := p.InitialSize * cfg.AddFraction
	var intents []AddIntent

	if p.UpAddsUsed < cfg.MaxAdds && bar.Close >= p.upTrigger(cfg) {
		intents = append(intents, AddIntent{Kind: LotAddUp, TriggerPrice: bar.Close, Size: size})
	}
	if p.DownAddsUsed < cfg.MaxAdds && bar.Close <= p.downTrigger(cfg) {
		intents = append(intents, AddIntent{Kind: LotAddDown, TriggerPrice: bar.Close, Size: size})
	}
	return intents
}

// upTrigger returns the price at which the next up-add fires.
// In last-fill mode each step compounds from the previous fill; in entry
// mode steps are fixed multiples of the original entry price.
func (p *Position) upTrigger(cfg GridConfig) float64 {
	if cfg.Reference == config.GridRefEntry {
		return p.entryPrice * (1 + cfg.AddUpThreshold*float64(p.UpAddsUsed+1))
	}
	return p.refUp * (1 + cfg.AddUpThreshold)
}

func (p *Position) downTrigger(cfg GridConfig) float64 {
	if cfg.Reference == config.GridRefEntry {
		return p.entryPrice * (1 - cfg.AddDownThreshold*float64(p.DownAddsUsed+1))
	}
	return p.refDown * (1 - cfg.AddDownThreshold)
}

// CheckExit reports whether the bar triggers a full close, and why.
// Stop loss is checked before take profit: capital preservation wins
// when both fire on the same bar. Evaluated against the pre-add state;
// an exit cancels any add the same bar would have recorded.
func CheckExit(p *Position, bar domain.Bar, cfg ExitConfig) (string, bool) {
	if p.Status != StatusOpen {
		return "", false
	}
	avg := p.WeightedAvgEntry()

	if bar.Close >= avg*(1+cfg.StopLossThreshold) {
		return domain.CloseReasonStopLoss, true
	}
	if p.ProfitPercent(bar.Close) >= cfg.TakeProfitThreshold {
		return domain.CloseReasonTakeProfit, true
	}
	return "", false
}
