package indicator

import (
	"math"

	"crypto-agentv1/internal/model"
)

// Bollinger returns the latest Bollinger Bands (upper, middle, lower):
// middle is the rolling mean of closes, the outer bands sit k standard
// deviations away. All three are NaN until period candles exist.
func Bollinger(candles []model.Candle, period int, k float64) (upper, middle, lower float64) {
	cs := closes(candles)
	mid := last(rollingMean(cs, period))
	sd := last(rollingStd(cs, period))
	if math.IsNaN(mid) || math.IsNaN(sd) {
		return math.NaN(), math.NaN(), math.NaN()
	}
	return mid + k*sd, mid, mid - k*sd
}
