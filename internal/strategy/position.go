package strategy

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"crypto-agentv1/config"
	"crypto-agentv1/internal/ledger"
	"crypto-agentv1/internal/model"
)

// Book owns the single open position and drives its lifecycle:
// entry, partial take-profit, breakeven move, trailing stop, and the
// close paths. Balances are only ever touched through the ledger.
type Book struct {
	cfg    *config.Config
	ledger *ledger.Ledger
	log    *slog.Logger

	position *model.Position
}

// NewBook creates an empty (flat) position book.
func NewBook(cfg *config.Config, led *ledger.Ledger, log *slog.Logger) *Book {
	return &Book{cfg: cfg, ledger: led, log: log}
}

// Position returns the open position, or nil when flat.
func (b *Book) Position() *model.Position { return b.position }

// Open reports whether a position is currently open.
func (b *Book) Open() bool { return b.position != nil }

// Enter opens a new position at price: tiered sizing via the ledger, an
// ATR-multiple stop below entry, and a target at the configured multiple
// of the stop distance. A no-op if a position is already open. Returns
// ledger.ErrInsufficientFunds (reject, log only) when the total cost
// exceeds the quote balance.
func (b *Book) Enter(now time.Time, price, atr float64, reason string) error {
	if b.position != nil {
		return nil // at most one position, never pyramid
	}
	if price <= 0 {
		return ledger.ErrInvalidPrice
	}
	if math.IsNaN(atr) || atr <= 0 {
		return fmt.Errorf("entry without usable ATR (%.4f)", atr)
	}

	size := b.ledger.PositionSize(price)
	stopLoss := price - atr*b.cfg.ATRStopMult
	riskDistance := price - stopLoss
	takeProfit := price + riskDistance*b.cfg.ProfitTargetRatio

	if _, err := b.ledger.Buy(now, price, size, stopLoss, takeProfit, reason); err != nil {
		return err
	}

	b.position = &model.Position{
		EntryPrice: price,
		Size:       size,
		EntryTime:  now,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
	return nil
}

// Manage runs the open position through the tick transitions in fixed
// priority order: max hold time, stop loss, partial take-profit,
// breakeven move, trailing stop. A no-op when flat.
func (b *Book) Manage(now time.Time, price, atr float64) error {
	p := b.position
	if p == nil {
		return nil
	}

	// 1. Max hold time — close everything.
	if hold := p.HoldHours(now); hold >= b.cfg.MaxPositionHours {
		return b.close(now, price, fmt.Sprintf("max hold time reached (%.1f hours)", hold))
	}

	// 2. Stop loss — close everything.
	if price <= p.StopLoss {
		return b.close(now, price, fmt.Sprintf("stop loss hit (%.2f)", p.StopLoss))
	}

	// 3. Partial take-profit: sell half, keep the rest running.
	if !p.PartialTaken && price >= p.TakeProfit {
		half := p.Size * 0.5
		if _, err := b.ledger.Sell(now, price, half, p.EntryPrice, p.EntryTime, "partial profit target"); err != nil {
			return fmt.Errorf("partial take-profit: %w", err)
		}
		p.Size -= half
		p.PartialTaken = true
		b.log.Info("partial profit taken", slog.Float64("price", price), slog.Float64("remaining", p.Size))
	}

	// 4. Breakeven: after the partial, the rest rides risk-free.
	if p.PartialTaken && !p.BreakevenMoved {
		p.StopLoss = p.EntryPrice
		p.BreakevenMoved = true
		b.log.Info("stop moved to breakeven", slog.Float64("stop_loss", p.StopLoss))
	}

	// 5. Trailing stop — only ever ratchets upward.
	if p.BreakevenMoved && !math.IsNaN(atr) {
		if candidate := price - atr*b.cfg.TrailingStopMult; candidate > p.StopLoss {
			p.StopLoss = candidate
			b.log.Info("trailing stop raised", slog.Float64("stop_loss", p.StopLoss))
		}
	}

	return nil
}

// ForceClose closes any open position immediately (circuit breakers).
// A no-op when flat.
func (b *Book) ForceClose(now time.Time, price float64, reason string) error {
	if b.position == nil {
		return nil
	}
	return b.close(now, price, reason)
}

func (b *Book) close(now time.Time, price float64, reason string) error {
	p := b.position
	if _, err := b.ledger.Sell(now, price, p.Size, p.EntryPrice, p.EntryTime, reason); err != nil {
		return fmt.Errorf("close position: %w", err)
	}
	b.position = nil
	return nil
}
