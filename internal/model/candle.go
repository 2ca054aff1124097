package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLCV candle for the traded pair.
// Prices are quote-currency floats (USD for BTC-USD), matching the
// exchange wire format. Candle sequences are ordered ascending by TS
// with no duplicate timestamps.
type Candle struct {
	TS     time.Time `json:"ts"` // bucket start time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
