// Package risk implements the portfolio-level circuit breakers: a set of
// independent checks run at the top of every tick, before position
// management and before new entries are considered. Breakers read ledger
// state and may pause trading and/or force-close the open position; they
// never open positions.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crypto-agentv1/config"
	"crypto-agentv1/internal/ledger"
	"crypto-agentv1/internal/model"
	"crypto-agentv1/internal/notification"
)

// Closer force-closes the open position; satisfied by strategy.Book.
type Closer interface {
	Open() bool
	ForceClose(now time.Time, price float64, reason string) error
}

// Breakers evaluates the circuit-breaker checks against ledger state.
type Breakers struct {
	cfg      *config.Config
	ledger   *ledger.Ledger
	notifier notification.Notifier
	log      *slog.Logger
}

// New creates the breaker set.
func New(cfg *config.Config, led *ledger.Ledger, notifier notification.Notifier, log *slog.Logger) *Breakers {
	return &Breakers{cfg: cfg, ledger: led, notifier: notifier, log: log}
}

// RunAll executes every check for this tick, in order: volatility pause,
// sharp-drop alert, drawdown pause, daily loss pause. candles is the
// primary-timeframe window; price is the current price used to value the
// portfolio and to fill forced closes.
func (b *Breakers) RunAll(ctx context.Context, now time.Time, price float64, candles []model.Candle, closer Closer) {
	b.CheckVolatility(ctx, candles)
	b.CheckSharpDrop(ctx, candles)
	b.CheckDrawdown(ctx, now, price, closer)
	b.CheckDailyLoss(ctx, now, price, closer)
}

// CheckVolatility pauses trading when the last four primary-timeframe
// candles (one hour at 15-minute granularity) span a range above the
// configured threshold. It does not force-close.
func (b *Breakers) CheckVolatility(ctx context.Context, candles []model.Candle) {
	if len(candles) < 4 {
		return
	}
	recent := candles[len(candles)-4:]
	high := recent[0].High
	low := recent[0].Low
	for _, c := range recent[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	if low <= 0 {
		return
	}
	move := (high - low) / low
	if move > b.cfg.VolatilityPausePct {
		reason := fmt.Sprintf("volatility circuit breaker: %.2f%% move in 1 hour", move*100)
		b.pause(ctx, reason)
	}
}

// CheckSharpDrop alerts when the latest close fell more than the
// configured fraction below the previous close. Purely observational:
// no pause, no close.
func (b *Breakers) CheckSharpDrop(ctx context.Context, candles []model.Candle) {
	if len(candles) < 2 {
		return
	}
	prev := candles[len(candles)-2].Close
	last := candles[len(candles)-1].Close
	if prev <= 0 {
		return
	}
	drop := (prev - last) / prev
	if drop > b.cfg.SharpDropPct {
		msg := fmt.Sprintf("sharp drop alert: %.2f%% drop in one candle (%.2f → %.2f)", drop*100, prev, last)
		b.log.Warn(msg)
		b.alert(ctx, notification.LevelWarning, "Sharp drop", msg)
	}
}

// CheckDrawdown pauses trading and force-closes the open position when
// the drawdown from peak total value reaches the configured limit.
func (b *Breakers) CheckDrawdown(ctx context.Context, now time.Time, price float64, closer Closer) {
	dd := b.ledger.Drawdown(price)
	if dd < b.cfg.MaxDrawdownPct {
		return
	}
	reason := fmt.Sprintf("max drawdown reached: %.2f%% (limit %.2f%%)", dd*100, b.cfg.MaxDrawdownPct*100)
	b.pause(ctx, reason)
	b.forceClose(now, price, "drawdown limit triggered", closer)
}

// CheckDailyLoss pauses trading and force-closes the open position when
// the realized daily loss exceeds the limit implied by current sizing:
// the configured per-position risk fraction of one tiered position's
// notional, times the daily loss multiplier. The per-position risk is a
// heuristic approximation, not a measurement of historical stops.
func (b *Breakers) CheckDailyLoss(ctx context.Context, now time.Time, price float64, closer Closer) {
	if price <= 0 {
		return
	}
	positionRisk := b.ledger.PositionSize(price) * price * b.cfg.AvgPositionRiskPct
	limit := positionRisk * b.cfg.DailyLossMult
	if limit <= 0 {
		return
	}
	daily := b.ledger.DailyPnL()
	if daily >= -limit {
		return
	}
	reason := fmt.Sprintf("daily loss limit: %.2f (limit -%.2f)", daily, limit)
	b.pause(ctx, reason)
	b.forceClose(now, price, "daily loss limit triggered", closer)
}

func (b *Breakers) pause(ctx context.Context, reason string) {
	if paused, _ := b.ledger.Paused(); paused {
		return // keep the first trip's reason
	}
	b.ledger.Pause(reason)
	b.log.Error("trading paused", slog.String("reason", reason))
	b.alert(ctx, notification.LevelCritical, "Trading paused", reason)
}

func (b *Breakers) forceClose(now time.Time, price float64, reason string, closer Closer) {
	if closer == nil || !closer.Open() {
		return
	}
	if err := closer.ForceClose(now, price, reason); err != nil {
		b.log.Error("forced close failed", slog.Any("err", err), slog.String("reason", reason))
		return
	}
	b.log.Error("position force-closed", slog.String("reason", reason))
}

func (b *Breakers) alert(ctx context.Context, level notification.Level, title, msg string) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.Send(ctx, notification.Alert{Level: level, Title: title, Message: msg}); err != nil {
		b.log.Warn("alert delivery failed", slog.Any("err", err))
	}
}
