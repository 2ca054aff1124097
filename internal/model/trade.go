package model

import "time"

// Trade actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// TradeRecord is one immutable journal entry, appended on every executed
// buy or sell (partial sells included) and never mutated afterwards.
// Buy-only and sell-only fields are omitted when zero.
type TradeRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"` // BUY or SELL
	Price     float64   `json:"price"`
	Size      float64   `json:"size"` // base-asset units
	Fee       float64   `json:"fee"`
	Slippage  float64   `json:"slippage"`
	Reason    string    `json:"reason"`

	// Buy fields
	Cost       float64 `json:"cost,omitempty"` // total debit incl. fee+slippage
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`

	// Sell fields
	Revenue   float64 `json:"revenue,omitempty"` // net credit after fee+slippage
	PnL       float64 `json:"pnl,omitempty"`
	PnLPct    float64 `json:"pnl_pct,omitempty"`
	HoldHours float64 `json:"hold_hours,omitempty"`

	// Resulting balances, for journal replay
	BalanceQuote float64 `json:"balance_quote"`
	BalanceBase  float64 `json:"balance_base"`
}
