package indicator

import (
	"math"

	"crypto-agentv1/internal/model"
)

// VolumeSpike reports whether the latest candle's volume exceeds the
// rolling average volume times mult. False while the baseline window is
// not yet filled.
func VolumeSpike(candles []model.Candle, avgPeriod int, mult float64) bool {
	if len(candles) == 0 {
		return false
	}
	avg := last(rollingMean(volumes(candles), avgPeriod))
	if math.IsNaN(avg) {
		return false
	}
	return candles[len(candles)-1].Volume > avg*mult
}

func volumes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
