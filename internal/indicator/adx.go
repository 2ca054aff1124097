package indicator

import (
	"math"

	"crypto-agentv1/internal/model"
)

// ADX returns the latest Average Directional Index, or NaN when the
// window is too short (it needs 2*period candles: one rolling pass for
// the directional indexes, another for DX).
//
// +DM and -DM are the positive parts of the high/low deltas; both are
// undefined for the first candle. The directional indexes divide the
// rolling DM means by the rolling true-range mean, and
// DX = 100*|+DI - -DI|/(+DI + -DI). A zero DI sum leaves DX undefined
// for that candle, which propagates to an undefined ADX rather than a
// division error.
func ADX(candles []model.Candle, period int) float64 {
	n := len(candles)
	if n == 0 || period <= 0 {
		return math.NaN()
	}

	plusDM := nanSlice(n)
	minusDM := nanSlice(n)
	for i := 1; i < n; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		plusDM[i] = math.Max(up, 0)
		minusDM[i] = math.Max(down, 0)
	}

	tr := TrueRange(candles)
	trMean := rollingMean(tr, period)
	plusMean := rollingMean(plusDM, period)
	minusMean := rollingMean(minusDM, period)

	dx := nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(plusMean[i]) || math.IsNaN(minusMean[i]) || math.IsNaN(trMean[i]) || trMean[i] == 0 {
			continue
		}
		plusDI := 100 * plusMean[i] / trMean[i]
		minusDI := 100 * minusMean[i] / trMean[i]
		if sum := plusDI + minusDI; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	return last(rollingMean(dx, period))
}
