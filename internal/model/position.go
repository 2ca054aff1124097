package model

import "time"

// Position is the single open long position. At most one exists at any
// time; a nil *Position means flat. Size shrinks on the partial
// take-profit but stays > 0 until the position is closed.
type Position struct {
	EntryPrice     float64   `json:"entry_price"`
	Size           float64   `json:"size"` // base-asset units
	EntryTime      time.Time `json:"entry_time"`
	StopLoss       float64   `json:"stop_loss"`
	TakeProfit     float64   `json:"take_profit"`
	PartialTaken   bool      `json:"partial_taken"`
	BreakevenMoved bool      `json:"breakeven_moved"`
}

// HoldHours returns how long the position has been open, in hours.
func (p *Position) HoldHours(now time.Time) float64 {
	return now.Sub(p.EntryTime).Hours()
}
