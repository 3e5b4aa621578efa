// Package engine drives the per-bar simulation loop: signal admission,
// grid and exit evaluation, and portfolio accounting. One Executor owns
// one Portfolio exclusively for the duration of a run; the whole run is a
// deterministic fold over the merged, time-ordered bar stream.
package engine

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"pump-short-lab/internal/config"
	"pump-short-lab/internal/detector"
	"pump-short-lab/internal/domain"
	"pump-short-lab/internal/idhash"
	"pump-short-lab/internal/observability"
	"pump-short-lab/internal/portfolio"
	"pump-short-lab/internal/position"
)

// Result holds the complete output of one simulation run.
type Result struct {
	RunID           string
	Portfolio       *portfolio.Portfolio
	Trades          []domain.Trade
	EquityCurve     []domain.EquityPoint
	Skips           []domain.SkippedSignal
	IntegrityErrors []string // symbols excluded for data defects
	BarsProcessed   int
}

// Executor runs the pump-short simulation.
type Executor struct {
	cfg     *config.Config
	det     *detector.Detector
	gridCfg position.GridConfig
	exitCfg position.ExitConfig

	log     *zap.Logger
	metrics *observability.Metrics
}

// New creates an Executor. The config must already be validated; a nil
// logger falls back to a no-op logger, nil metrics record nothing.
func New(cfg *config.Config, log *zap.Logger, metrics *observability.Metrics) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Executor{
		cfg: cfg,
		det: detector.FromConfig(cfg),
		gridCfg: position.GridConfig{
			AddUpThreshold:   cfg.AddUpThreshold,
			AddDownThreshold: cfg.AddDownThreshold,
			MaxAdds:          cfg.MaxAdds,
			AddFraction:      cfg.AddFraction,
			Reference:        cfg.GridReference,
		},
		exitCfg: position.ExitConfig{
			StopLossThreshold:   cfg.StopLossThreshold,
			TakeProfitThreshold: cfg.TakeProfitThreshold,
		},
		log:     log,
		metrics: metrics,
	}, nil
}

// streamEntry addresses one bar of one symbol inside the merged stream.
type streamEntry struct {
	symbol string
	index  int // index into series[symbol]
}

// run-local mutable state, owned by a single Run invocation so the
// Executor itself can be reused across runs.
type runState struct {
	runID     string
	pf        *portfolio.Portfolio
	trades    []domain.Trade
	skips     []domain.SkippedSignal
	lastClose map[string]float64
}

// Run simulates all series and returns the run result. Series with
// integrity violations are excluded and reported; they never mutate the
// portfolio. Cancellation stops the bar iteration cleanly.
func (e *Executor) Run(ctx context.Context, series map[string][]domain.Bar) (*Result, error) {
	valid := make(map[string][]domain.Bar, len(series))
	var integrityErrors []string

	symbols := make([]string, 0, len(series))
	for symbol := range series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		if err := domain.ValidateSeries(symbol, series[symbol]); err != nil {
			integrityErrors = append(integrityErrors, err.Error())
			e.log.Warn("symbol excluded from run",
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}
		valid[symbol] = series[symbol]
	}

	validSymbols := make([]string, 0, len(valid))
	for symbol := range valid {
		validSymbols = append(validSymbols, symbol)
	}
	sort.Strings(validSymbols)

	st := &runState{
		runID:     idhash.ComputeRunID(e.cfg.Fingerprint(), validSymbols),
		pf:        portfolio.New(e.cfg.InitialCapital),
		lastClose: make(map[string]float64, len(valid)),
	}

	stream := mergeStream(valid)
	for _, entry := range stream {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars := valid[entry.symbol]
		bar := bars[entry.index]
		st.lastClose[entry.symbol] = bar.Close

		if _, open := st.pf.Position(entry.symbol); open {
			e.managePosition(st, entry.symbol, bar)
		} else {
			e.tryEnter(st, entry.symbol, bars[:entry.index+1], bar)
		}

		st.pf.SampleEquity(bar.TimestampMs, st.lastClose)
		e.metrics.RecordBar()
		e.metrics.SetOpenPositions(st.pf.OpenCount())
	}

	e.closeRemaining(st, valid)

	return &Result{
		RunID:           st.runID,
		Portfolio:       st.pf,
		Trades:          st.trades,
		EquityCurve:     st.pf.EquityCurve,
		Skips:           st.skips,
		IntegrityErrors: integrityErrors,
		BarsProcessed:   len(stream),
	}, nil
}

// mergeStream flattens per-symbol series into one time-ordered stream.
// Ties on timestamp break by symbol ASC so the fold stays deterministic.
func mergeStream(series map[string][]domain.Bar) []streamEntry {
	total := 0
	for _, bars := range series {
		total += len(bars)
	}

	stream := make([]streamEntry, 0, total)
	for symbol, bars := range series {
		for i := range bars {
			stream = append(stream, streamEntry{symbol: symbol, index: i})
		}
	}

	sort.Slice(stream, func(i, j int) bool {
		ti := series[stream[i].symbol][stream[i].index].TimestampMs
		tj := series[stream[j].symbol][stream[j].index].TimestampMs
		if ti != tj {
			return ti < tj
		}
		return stream[i].symbol < stream[j].symbol
	})
	return stream
}

// tryEnter asks the detector for a signal and applies admission control.
// Capacity rejections are recorded as skips, never errors.
func (e *Executor) tryEnter(st *runState, symbol string, history []domain.Bar, bar domain.Bar) {
	sig := e.det.Detect(symbol, history)
	if sig == nil {
		return
	}
	e.metrics.RecordSignal()

	if st.pf.OpenCount() >= e.cfg.MaxConcurrentPositions {
		e.skip(st, *sig, domain.SkipReasonConcurrencyLimit)
		return
	}

	equity := st.pf.Equity(st.lastClose)
	budget := e.cfg.MaxTotalExposureRatio*equity - st.pf.TotalExposure()
	if budget <= 0 {
		e.skip(st, *sig, domain.SkipReasonExposureBudget)
		return
	}

	notional := min(e.cfg.MaxPositionSizeRatio*equity, budget)
	if notional <= 0 {
		e.skip(st, *sig, domain.SkipReasonInsufficientEquity)
		return
	}

	// Slippage worsens the fill: a short sells below the quoted close.
	fill := bar.Close * (1 - e.cfg.SlippageRate)
	size := notional / fill
	fee := e.cfg.FeeRate * fill * size

	if _, err := st.pf.OpenShort(symbol, bar.TimestampMs, fill, size, fee); err != nil {
		// Admission was checked above; any failure here is a bug.
		e.log.Error("open short failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	e.record(st, domain.Trade{
		TimestampMs: bar.TimestampMs,
		Symbol:      symbol,
		Action:      domain.ActionOpenShort,
		Price:       fill,
		Size:        size,
		Fee:         fee,
		Reason:      sig.Reason,
	})
	e.log.Info("opened short",
		zap.String("symbol", symbol),
		zap.Int64("timestamp_ms", bar.TimestampMs),
		zap.Float64("price", fill),
		zap.Float64("size", size),
		zap.String("reason", sig.Reason))
}

// managePosition runs grid-add and exit checks for one open position on
// one bar. An exit supersedes and cancels any add from the same pass, so
// exits are decided against the pre-add state before anything mutates.
func (e *Executor) managePosition(st *runState, symbol string, bar domain.Bar) {
	pos, _ := st.pf.Position(symbol)

	intents := position.GridAdds(pos, bar, e.gridCfg)
	reason, exits := position.CheckExit(pos, bar, e.exitCfg)
	if exits {
		e.closePosition(st, symbol, pos, bar.TimestampMs, bar.Close, reason)
		return
	}

	for _, intent := range intents {
		fill := bar.Close * (1 - e.cfg.SlippageRate)
		fee := e.cfg.FeeRate * fill * intent.Size
		if err := st.pf.AddToPosition(symbol, intent.Kind, bar.TimestampMs, fill, intent.Size, fee); err != nil {
			e.log.Error("grid add failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		e.record(st, domain.Trade{
			TimestampMs: bar.TimestampMs,
			Symbol:      symbol,
			Action:      domain.ActionAddShort,
			Price:       fill,
			Size:        intent.Size,
			Fee:         fee,
			Reason:      string(intent.Kind),
		})
	}
}

// closePosition covers the whole position at the bar close, slippage
// against the cover (shorts buy back above the quote).
func (e *Executor) closePosition(st *runState, symbol string, pos *position.Position, timestampMs int64, closePrice float64, reason string) {
	fill := closePrice * (1 + e.cfg.SlippageRate)
	size := pos.TotalSize()
	fee := e.cfg.FeeRate * fill * size

	realized, err := st.pf.ClosePosition(symbol, timestampMs, fill, fee, reason)
	if err != nil {
		e.log.Error("close failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	e.record(st, domain.Trade{
		TimestampMs: timestampMs,
		Symbol:      symbol,
		Action:      closeAction(reason),
		Price:       fill,
		Size:        size,
		Fee:         fee,
		RealizedPnL: realized,
		Reason:      reason,
	})
	e.log.Info("closed short",
		zap.String("symbol", symbol),
		zap.Int64("timestamp_ms", timestampMs),
		zap.Float64("price", fill),
		zap.Float64("realized_pnl", realized),
		zap.String("reason", reason))
}

// closeRemaining covers positions still open after the last bar of their
// series, at that bar's close.
func (e *Executor) closeRemaining(st *runState, series map[string][]domain.Bar) {
	remaining := st.pf.OpenSymbols()
	sort.Strings(remaining)

	for _, symbol := range remaining {
		pos, _ := st.pf.Position(symbol)
		bars := series[symbol]
		last := bars[len(bars)-1]
		e.closePosition(st, symbol, pos, last.TimestampMs, last.Close, domain.CloseReasonEndOfData)
	}

	// The final curve sample predates the forced closes; bring it up to
	// date so reported final equity includes their slippage and fees.
	if len(remaining) > 0 {
		if n := len(st.pf.EquityCurve); n > 0 {
			st.pf.EquityCurve[n-1].Equity = st.pf.Equity(st.lastClose)
		}
	}
	e.metrics.SetOpenPositions(st.pf.OpenCount())
}

func (e *Executor) record(st *runState, t domain.Trade) {
	t.RunID = st.runID
	t.TradeID = idhash.ComputeTradeID(st.runID, len(st.trades), t.Symbol, t.Action, t.TimestampMs)
	st.trades = append(st.trades, t)
	e.metrics.RecordTrade(t.Action)
}

func (e *Executor) skip(st *runState, sig domain.Signal, reason string) {
	st.skips = append(st.skips, domain.SkippedSignal{
		TimestampMs: sig.TimestampMs,
		Symbol:      sig.Symbol,
		Reason:      reason,
		Signal:      sig,
	})
	e.metrics.RecordSkip(reason)
	e.log.Info("skipped signal",
		zap.String("symbol", sig.Symbol),
		zap.Int64("timestamp_ms", sig.TimestampMs),
		zap.String("reason", reason))
}

func closeAction(reason string) string {
	switch reason {
	case domain.CloseReasonStopLoss:
		return domain.ActionCloseStopLoss
	case domain.CloseReasonTakeProfit:
		return domain.ActionCloseTakeProfit
	default:
		return domain.ActionCloseEndOfData
	}
}
