// Package ledger implements the paper-trading accounting core: tiered
// position sizing, fee and slippage application, balance mutation, peak
// value tracking, and the append-only trade journal.
//
// The ledger is the only component allowed to mutate balances. It is
// written for the engine's single-writer tick model: one tick runs to
// completion before the next begins, so no locking is needed.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"crypto-agentv1/config"
	"crypto-agentv1/internal/model"
)

var (
	// ErrInsufficientFunds rejects a buy whose total cost exceeds the
	// quote balance. Nothing is mutated and nothing is journaled.
	ErrInsufficientFunds = errors.New("insufficient quote balance")

	// ErrInvalidSize rejects a trade with a non-positive size or a sell
	// larger than the base balance.
	ErrInvalidSize = errors.New("invalid trade size")

	// ErrInvalidPrice rejects a trade at a non-positive price.
	ErrInvalidPrice = errors.New("invalid price")
)

// Recorder receives every executed trade. Implementations must be
// append-only; records are never mutated after being written.
type Recorder interface {
	Record(model.TradeRecord) error
}

// MultiRecorder fans a record out to several recorders (JSONL file,
// SQLite mirror, metrics). A failing recorder is logged, never fatal —
// the journal write attempt itself is what must not be skipped.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(tr model.TradeRecord) error {
	var firstErr error
	for _, r := range m {
		if err := r.Record(tr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Ledger holds the paper balances and P&L state for one strategy instance.
type Ledger struct {
	cfg     *config.Config
	log     *slog.Logger
	journal Recorder

	balanceQuote float64
	balanceBase  float64
	peakValue    float64
	dailyPnL     float64
	totalPnL     float64

	paused      bool
	pauseReason string

	tradesToday []model.TradeRecord
}

// New creates a ledger seeded with the configured paper balances.
func New(cfg *config.Config, journal Recorder, log *slog.Logger) *Ledger {
	return &Ledger{
		cfg:          cfg,
		log:          log,
		journal:      journal,
		balanceQuote: cfg.PaperBalanceQuote,
		balanceBase:  cfg.PaperBalanceBase,
		peakValue:    cfg.PaperBalanceQuote,
	}
}

// Quote returns the quote-currency balance.
func (l *Ledger) Quote() float64 { return l.balanceQuote }

// Base returns the base-asset balance.
func (l *Ledger) Base() float64 { return l.balanceBase }

// DailyPnL returns realized P&L since the last UTC rollover.
func (l *Ledger) DailyPnL() float64 { return l.dailyPnL }

// TotalPnL returns realized P&L since process start.
func (l *Ledger) TotalPnL() float64 { return l.totalPnL }

// PeakValue returns the highest total value seen so far.
func (l *Ledger) PeakValue() float64 { return l.peakValue }

// TotalValue returns quote balance plus base balance at the given price.
func (l *Ledger) TotalValue(price float64) float64 {
	return l.balanceQuote + l.balanceBase*price
}

// UpdatePeak recomputes the peak total value. The peak only ever rises.
func (l *Ledger) UpdatePeak(price float64) {
	if v := l.TotalValue(price); v > l.peakValue {
		l.peakValue = v
	}
}

// Drawdown returns the fractional drawdown from peak at the given price.
func (l *Ledger) Drawdown(price float64) float64 {
	if l.peakValue <= 0 {
		return 0
	}
	return (l.peakValue - l.TotalValue(price)) / l.peakValue
}

// Paused reports whether trading is paused, and why.
func (l *Ledger) Paused() (bool, string) { return l.paused, l.pauseReason }

// Pause halts new entries until the next daily rollover.
func (l *Ledger) Pause(reason string) {
	l.paused = true
	l.pauseReason = reason
}

// ResetDaily clears the daily P&L, the pause flag, and the trade-of-the-day
// list. Called exactly once per UTC calendar-day rollover.
func (l *Ledger) ResetDaily() {
	l.dailyPnL = 0
	l.paused = false
	l.pauseReason = ""
	l.tradesToday = nil
}

// TradesToday returns the trades executed since the last rollover.
func (l *Ledger) TradesToday() []model.TradeRecord { return l.tradesToday }

// PositionSize returns the base-asset quantity to buy at the given price
// under the tiered sizing rules, evaluated against the current quote
// balance. A non-positive price yields zero (fail-safe).
func (l *Ledger) PositionSize(price float64) float64 {
	if price <= 0 {
		return 0
	}
	var pct float64
	switch {
	case l.balanceQuote <= l.cfg.Tier1Max:
		pct = l.cfg.Tier1Pct
	case l.balanceQuote <= l.cfg.Tier2Max:
		pct = l.cfg.Tier2Pct
	default:
		pct = l.cfg.Tier3Pct
	}
	return l.balanceQuote * pct / price
}

// Buy executes a paper buy: debits quote, credits base, journals the
// trade. The order is rejected whole — never partially filled — when the
// total cost including fee and slippage exceeds the quote balance.
func (l *Ledger) Buy(now time.Time, price, size, stopLoss, takeProfit float64, reason string) (model.TradeRecord, error) {
	if price <= 0 {
		return model.TradeRecord{}, ErrInvalidPrice
	}
	if size <= 0 {
		return model.TradeRecord{}, ErrInvalidSize
	}

	cost := size * price
	fee := cost * l.cfg.TakerFee
	slippage := cost * l.cfg.SlippageRate
	totalCost := cost + fee + slippage

	if totalCost > l.balanceQuote {
		return model.TradeRecord{}, fmt.Errorf("%w: need %.2f, have %.2f",
			ErrInsufficientFunds, totalCost, l.balanceQuote)
	}

	l.balanceQuote -= totalCost
	l.balanceBase += size

	tr := model.TradeRecord{
		Timestamp:    now,
		Action:       model.ActionBuy,
		Price:        price,
		Size:         size,
		Fee:          fee,
		Slippage:     slippage,
		Cost:         totalCost,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		Reason:       reason,
		BalanceQuote: l.balanceQuote,
		BalanceBase:  l.balanceBase,
	}
	l.append(tr)

	l.log.Info("buy executed",
		slog.Float64("size", size),
		slog.Float64("price", price),
		slog.Float64("stop_loss", stopLoss),
		slog.Float64("take_profit", takeProfit),
		slog.String("reason", reason))
	return tr, nil
}

// Sell executes a paper sell (full or partial): credits quote net of fee
// and slippage, debits base, realizes P&L against the entry price, and
// journals the trade.
func (l *Ledger) Sell(now time.Time, price, size, entryPrice float64, entryTime time.Time, reason string) (model.TradeRecord, error) {
	if price <= 0 {
		return model.TradeRecord{}, ErrInvalidPrice
	}
	if size <= 0 || size > l.balanceBase+1e-12 {
		return model.TradeRecord{}, fmt.Errorf("%w: size %.8f, base balance %.8f",
			ErrInvalidSize, size, l.balanceBase)
	}
	if size > l.balanceBase {
		size = l.balanceBase // absorb float drift on full closes
	}

	revenue := size * price
	fee := revenue * l.cfg.TakerFee
	slippage := revenue * l.cfg.SlippageRate
	netRevenue := revenue - fee - slippage

	entryCost := size * entryPrice
	pnl := netRevenue - entryCost
	pnlPct := 0.0
	if entryCost > 0 {
		pnlPct = pnl / entryCost * 100
	}

	l.balanceQuote += netRevenue
	l.balanceBase -= size
	if l.balanceBase < 0 {
		l.balanceBase = 0
	}
	l.dailyPnL += pnl
	l.totalPnL += pnl
	l.UpdatePeak(price)

	tr := model.TradeRecord{
		Timestamp:    now,
		Action:       model.ActionSell,
		Price:        price,
		Size:         size,
		Fee:          fee,
		Slippage:     slippage,
		Revenue:      netRevenue,
		PnL:          pnl,
		PnLPct:       pnlPct,
		HoldHours:    now.Sub(entryTime).Hours(),
		Reason:       reason,
		BalanceQuote: l.balanceQuote,
		BalanceBase:  l.balanceBase,
	}
	l.append(tr)

	l.log.Info("sell executed",
		slog.Float64("size", size),
		slog.Float64("price", price),
		slog.Float64("pnl", pnl),
		slog.Float64("pnl_pct", pnlPct),
		slog.String("reason", reason))
	return tr, nil
}

// append journals the record. Journal writes are never skipped for an
// executed trade; a recorder failure is logged, not propagated, so the
// accounting state stays consistent with the executed fill.
func (l *Ledger) append(tr model.TradeRecord) {
	l.tradesToday = append(l.tradesToday, tr)
	if l.journal == nil {
		return
	}
	if err := l.journal.Record(tr); err != nil {
		l.log.Error("journal write failed", slog.Any("err", err), slog.String("action", tr.Action))
	}
}
