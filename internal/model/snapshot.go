package model

import "encoding/json"

// Snapshot holds the indicator values computed for one timeframe on one
// tick. It is derived, read-only, and discarded after the tick; NaN marks
// indicators whose lookback window is not yet filled.
type Snapshot struct {
	ATR         float64 `json:"atr"`
	ADX         float64 `json:"adx"`
	BBUpper     float64 `json:"bb_upper"`
	BBMiddle    float64 `json:"bb_middle"`
	BBLower     float64 `json:"bb_lower"`
	RSI         float64 `json:"rsi"`
	VolumeSpike bool    `json:"volume_spike"`
	Price       float64 `json:"price"` // latest close
}

// JSON returns the JSON-encoded snapshot. NaN values are rendered as null.
func (s *Snapshot) JSON() []byte {
	b, _ := json.Marshal(sanitize(*s))
	return b
}

// sanitize replaces NaN with nil-able pointers so encoding/json does not
// fail on non-finite floats.
func sanitize(s Snapshot) map[string]interface{} {
	m := map[string]interface{}{
		"volume_spike": s.VolumeSpike,
		"price":        s.Price,
	}
	put := func(key string, v float64) {
		if v == v { // not NaN
			m[key] = v
		} else {
			m[key] = nil
		}
	}
	put("atr", s.ATR)
	put("adx", s.ADX)
	put("bb_upper", s.BBUpper)
	put("bb_middle", s.BBMiddle)
	put("bb_lower", s.BBLower)
	put("rsi", s.RSI)
	return m
}
