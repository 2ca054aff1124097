// Package indicator provides technical indicator calculations over candle
// windows.
//
// All indicators are pure functions of the input window: they are
// recomputed in full on every tick over the trailing candle slice and hold
// no state between calls. Where the lookback window is not yet filled the
// result is NaN ("no value"), never an error — callers gate on
// math.IsNaN. Rolling semantics follow the usual convention that a window
// containing an undefined value is itself undefined.
package indicator

import (
	"math"

	"crypto-agentv1/internal/model"
)

// Params bundles the periods and thresholds for one Compute pass.
type Params struct {
	ATRPeriod       int
	ADXPeriod       int
	BBPeriod        int
	BBStd           float64
	RSIPeriod       int
	VolumeAvgPeriod int
	VolumeSpikeMult float64
}

// Compute fills a Snapshot from the candle window. Individual fields are
// NaN (or false for the volume flag) when their lookback is insufficient.
func Compute(candles []model.Candle, p Params) model.Snapshot {
	snap := model.Snapshot{
		ATR: math.NaN(), ADX: math.NaN(),
		BBUpper: math.NaN(), BBMiddle: math.NaN(), BBLower: math.NaN(),
		RSI: math.NaN(),
	}
	if len(candles) == 0 {
		return snap
	}

	snap.ATR = ATR(candles, p.ATRPeriod)
	snap.ADX = ADX(candles, p.ADXPeriod)
	snap.BBUpper, snap.BBMiddle, snap.BBLower = Bollinger(candles, p.BBPeriod, p.BBStd)
	snap.RSI = RSI(candles, p.RSIPeriod)
	snap.VolumeSpike = VolumeSpike(candles, p.VolumeAvgPeriod, p.VolumeSpikeMult)
	snap.Price = candles[len(candles)-1].Close
	return snap
}

// rollingMean returns the rolling mean of xs with the given window.
// Positions before the window fills, and windows containing NaN, are NaN.
func rollingMean(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rollingStd returns the rolling sample standard deviation (n-1 divisor).
func rollingStd(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	if period <= 1 {
		return out
	}
	means := rollingMean(xs, period)
	for i := period - 1; i < len(xs); i++ {
		if math.IsNaN(means[i]) {
			continue
		}
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := xs[j] - means[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

func closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
