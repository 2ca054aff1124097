package indicator

import (
	"math"

	"crypto-agentv1/internal/model"
)

// TrueRange returns the true range series:
//
//	TR = max(high-low, |high-prevClose|, |low-prevClose|)
//
// The first element has no previous close and degrades to high-low.
func TrueRange(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			prev := candles[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(c.High-prev), math.Abs(c.Low-prev)))
		}
		out[i] = tr
	}
	return out
}

// ATRSeries returns the rolling mean of the true range.
func ATRSeries(candles []model.Candle, period int) []float64 {
	return rollingMean(TrueRange(candles), period)
}

// ATR returns the latest Average True Range, or NaN when fewer than
// period candles exist.
func ATR(candles []model.Candle, period int) float64 {
	return last(ATRSeries(candles, period))
}
