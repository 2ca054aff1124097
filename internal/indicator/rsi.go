package indicator

import (
	"math"

	"crypto-agentv1/internal/model"
)

// RSI returns the latest Relative Strength Index over the window:
// rolling mean of positive close deltas against the rolling mean of
// negative-delta magnitudes, RSI = 100 - 100/(1+RS). The first candle
// has no delta and contributes zero to both sides. When the loss mean
// is zero the series is fully bullish and RSI is defined as 100.
// NaN until period candles exist. Always within [0, 100].
func RSI(candles []model.Candle, period int) float64 {
	n := len(candles)
	if n == 0 || period <= 0 {
		return math.NaN()
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := last(rollingMean(gains, period))
	avgLoss := last(rollingMean(losses, period))
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return math.NaN()
	}
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
