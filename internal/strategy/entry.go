// Package strategy holds the entry decision logic and the lifecycle of
// the single open position.
//
// The entry evaluator is a pure function over two indicator snapshots;
// the position book owns all position state and mutates balances only
// through the paper ledger.
package strategy

import (
	"fmt"

	"crypto-agentv1/internal/model"
)

// EntryParams holds the thresholds for the entry gate.
type EntryParams struct {
	ADXThreshold  float64
	BBEntryMargin float64 // tolerance above the lower band, e.g. 0.01
	RSIOverbought float64
}

// EvaluateEntry decides whether to open a position: a strict, ordered
// conjunction over the primary and confirmation snapshots, short-circuiting
// on the first failing gate. Undefined (NaN) indicator values fail their
// gate rather than passing through. The returned reason names the failing
// gate, or concatenates the measured values on admission.
//
// The caller is responsible for not calling this while a position is open.
func EvaluateEntry(primary, confirm model.Snapshot, p EntryParams) (bool, string) {
	// 1. Trending market on the primary timeframe
	if !(primary.ADX >= p.ADXThreshold) {
		return false, fmt.Sprintf("primary ADX too low (%.1f < %.1f)", primary.ADX, p.ADXThreshold)
	}

	// 2. Trend confirmed on the higher timeframe
	if !(confirm.ADX >= p.ADXThreshold) {
		return false, fmt.Sprintf("confirmation ADX too low (%.1f < %.1f)", confirm.ADX, p.ADXThreshold)
	}

	// 3. Price at the lower Bollinger Band — buy the dip in a confirmed trend
	limit := primary.BBLower * (1 + p.BBEntryMargin)
	if !(primary.Price <= limit) {
		return false, fmt.Sprintf("price not at lower band (%.2f > %.2f)", primary.Price, primary.BBLower)
	}

	// 4. Volume confirmation
	if !primary.VolumeSpike {
		return false, "no volume spike detected"
	}

	// 5. Momentum filter
	if !(primary.RSI <= p.RSIOverbought) {
		return false, fmt.Sprintf("RSI overbought (%.1f > %.1f)", primary.RSI, p.RSIOverbought)
	}

	reason := fmt.Sprintf("ADX primary:%.1f confirm:%.1f | price at lower band | volume spike | RSI:%.1f",
		primary.ADX, confirm.ADX, primary.RSI)
	return true, reason
}
