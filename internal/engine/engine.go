// Package engine implements the cycle controller: the fixed-interval
// loop that drives one evaluation tick at a time through fetch, compute,
// safety checks, position management or entry, and reporting.
//
// One tick runs to completion before the next begins. The ledger and
// position book are mutated only from inside a tick, which is what keeps
// the model correct without locks. A failed or panicking tick is logged
// and abandoned; the next tick proceeds with clean state.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"crypto-agentv1/config"
	"crypto-agentv1/internal/indicator"
	"crypto-agentv1/internal/ledger"
	"crypto-agentv1/internal/marketdata"
	"crypto-agentv1/internal/metrics"
	"crypto-agentv1/internal/model"
	"crypto-agentv1/internal/risk"
	redisstore "crypto-agentv1/internal/store/redis"
	"crypto-agentv1/internal/strategy"
)

// Engine composes the trading components and drives the tick loop.
type Engine struct {
	cfg      *config.Config
	log      *slog.Logger
	client   marketdata.Client
	ledger   *ledger.Ledger
	book     *strategy.Book
	breakers *risk.Breakers
	metrics  *metrics.Metrics

	// optional status publisher; nil when Redis is not configured
	publisher *redisstore.Publisher

	params indicator.Params
	entry  strategy.EntryParams

	lastTick time.Time
	now      func() time.Time // injected for tests
}

// New wires up an engine from its components. publisher may be nil.
func New(cfg *config.Config, client marketdata.Client, led *ledger.Ledger, book *strategy.Book,
	breakers *risk.Breakers, m *metrics.Metrics, publisher *redisstore.Publisher, log *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       log,
		client:    client,
		ledger:    led,
		book:      book,
		breakers:  breakers,
		metrics:   m,
		publisher: publisher,
		params: indicator.Params{
			ATRPeriod:       cfg.ATRPeriod,
			ADXPeriod:       cfg.ADXPeriod,
			BBPeriod:        cfg.BBPeriod,
			BBStd:           cfg.BBStd,
			RSIPeriod:       cfg.RSIPeriod,
			VolumeAvgPeriod: cfg.VolumeAvgPeriod,
			VolumeSpikeMult: cfg.VolumeSpikeMult,
		},
		entry: strategy.EntryParams{
			ADXThreshold:  cfg.ADXThreshold,
			BBEntryMargin: cfg.BBEntryMargin,
			RSIOverbought: cfg.RSIOverbought,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Run executes ticks at the configured interval until ctx is cancelled.
// The stop signal is honored between ticks only; an in-flight tick always
// runs to completion.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info("engine started",
		slog.String("pair", e.cfg.Pair),
		slog.Duration("interval", e.cfg.CheckInterval),
		slog.Float64("starting_balance", e.cfg.PaperBalanceQuote))

	ticker := time.NewTicker(e.cfg.CheckInterval)
	defer ticker.Stop()

	e.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			e.logSummary("session summary")
			e.log.Info("engine stopped")
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle executes one evaluation tick: rollover bookkeeping, data
// fetch, indicator computation, circuit breakers, position management or
// entry, and the status report. Any panic is contained here so a single
// bad tick never takes the process down.
func (e *Engine) RunCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.TickFailures.Inc()
			e.log.Error("tick abandoned", slog.Any("panic", r))
		}
	}()

	now := e.now()
	e.metrics.TicksTotal.Inc()
	e.rollover(now)
	e.lastTick = now

	// FETCH — an empty window or failed fetch degrades the tick to a no-op.
	fetchStart := time.Now()
	primary, err := e.client.Candles(ctx, e.cfg.Granularity, e.cfg.LookbackCandles)
	if err != nil || len(primary) == 0 {
		e.skipTick("primary candles unavailable", err)
		return
	}
	confirm, err := e.client.Candles(ctx, e.cfg.ConfirmGranularity, e.cfg.LookbackCandles)
	if err != nil || len(confirm) == 0 {
		e.skipTick("confirmation candles unavailable", err)
		return
	}
	e.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())

	// COMPUTE — snapshots are rebuilt from scratch every tick.
	snapPrimary := indicator.Compute(primary, e.params)
	snapConfirm := indicator.Compute(confirm, e.params)
	price := e.currentPrice(ctx, snapPrimary.Price)
	if price <= 0 {
		e.skipTick("no usable price", nil)
		return
	}

	e.ledger.UpdatePeak(price)

	// SAFETY — breakers may pause trading and force-close.
	wasPaused, _ := e.ledger.Paused()
	e.breakers.RunAll(ctx, now, price, primary, e.book)
	if nowPaused, _ := e.ledger.Paused(); nowPaused && !wasPaused {
		e.metrics.BreakerTrips.Inc()
	}

	// MANAGE — an open position is never left unmanaged, paused or not.
	if e.book.Open() {
		if err := e.book.Manage(now, price, snapPrimary.ATR); err != nil {
			e.log.Error("position management failed", slog.Any("err", err))
		}
	}

	// ENTER — only while flat and not paused.
	if paused, reason := e.ledger.Paused(); paused {
		e.log.Warn("trading paused", slog.String("reason", reason))
	} else if !e.book.Open() {
		e.tryEnter(now, price, snapPrimary, snapConfirm)
	}

	// REPORT
	e.report(ctx, now, price)
}

func (e *Engine) tryEnter(now time.Time, price float64, primary, confirm model.Snapshot) {
	admit, reason := strategy.EvaluateEntry(primary, confirm, e.entry)
	if !admit {
		e.log.Debug("no entry signal", slog.String("reason", reason))
		return
	}
	err := e.book.Enter(now, price, primary.ATR, reason)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrInsufficientFunds):
		e.log.Warn("entry rejected", slog.Any("err", err))
	default:
		e.log.Error("entry failed", slog.Any("err", err))
	}
}

// currentPrice prefers the live ticker and falls back to the latest
// primary close; a failed ticker must never inject a zero price.
func (e *Engine) currentPrice(ctx context.Context, lastClose float64) float64 {
	price, err := e.client.Price(ctx)
	if err != nil || price <= 0 {
		return lastClose
	}
	return price
}

// rollover resets daily state exactly once per UTC calendar-day change
// detected between ticks.
func (e *Engine) rollover(now time.Time) {
	if e.lastTick.IsZero() {
		return
	}
	ly, lm, ld := e.lastTick.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	if ly == ny && lm == nm && ld == nd {
		return
	}
	e.logSummary("new trading day")
	e.ledger.ResetDaily()
	e.metrics.Paused.Set(0)
}

func (e *Engine) logSummary(msg string) {
	s := ledger.Summarize(e.ledger.TradesToday())
	e.log.Info(msg,
		slog.Int("buys", s.Buys),
		slog.Int("sells", s.Sells),
		slog.Float64("win_rate", s.WinRate),
		slog.Float64("avg_pnl", s.AvgPnL),
		slog.Float64("daily_pnl", e.ledger.DailyPnL()),
		slog.Float64("total_pnl", e.ledger.TotalPnL()))
}

func (e *Engine) skipTick(msg string, err error) {
	e.metrics.TicksSkipped.Inc()
	e.log.Warn("tick skipped: "+msg, slog.Any("err", err))
}

func (e *Engine) report(ctx context.Context, now time.Time, price float64) {
	total := e.ledger.TotalValue(price)
	paused, pauseReason := e.ledger.Paused()

	e.log.Info("status",
		slog.Float64("price", price),
		slog.Float64("balance_quote", e.ledger.Quote()),
		slog.Float64("balance_base", e.ledger.Base()),
		slog.Float64("total_value", total),
		slog.Float64("daily_pnl", e.ledger.DailyPnL()),
		slog.Bool("position_open", e.book.Open()),
		slog.Bool("paused", paused))

	e.metrics.TotalValue.Set(total)
	e.metrics.DailyPnL.Set(e.ledger.DailyPnL())
	e.metrics.Paused.Set(boolGauge(paused))
	e.metrics.PositionUp.Set(boolGauge(e.book.Open()))

	if e.publisher != nil {
		e.publisher.PublishStatus(ctx, redisstore.Status{
			TS:           now,
			Price:        price,
			BalanceQuote: e.ledger.Quote(),
			BalanceBase:  e.ledger.Base(),
			TotalValue:   total,
			DailyPnL:     e.ledger.DailyPnL(),
			TotalPnL:     e.ledger.TotalPnL(),
			PositionOpen: e.book.Open(),
			Paused:       paused,
			PauseReason:  pauseReason,
		})
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
