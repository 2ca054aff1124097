// Package sim provides a deterministic simulated market data source for
// offline runs and tests: a seeded random-walk price path aggregated
// into candles, implementing the same client interface as the exchange.
package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"crypto-agentv1/internal/marketdata"
	"crypto-agentv1/internal/model"
	"crypto-agentv1/internal/ringbuf"
)

// Feed generates random-walk candles around a base price. The same seed
// always produces the same path. Generated candles are retained per
// granularity, so successive fetches see the same history with new
// candles appended, the way a real exchange window behaves.
type Feed struct {
	rng        *rand.Rand
	price      float64
	volatility float64 // per-candle stddev as a fraction of price
	baseVolume float64

	history map[time.Duration]*series
	now     func() time.Time
}

// series is the retained candle history for one granularity.
type series struct {
	ring *ringbuf.Ring
	end  time.Time // open time of the next candle to generate
}

// New creates a feed starting at basePrice with the given seed.
func New(basePrice float64, seed int64) *Feed {
	return &Feed{
		rng:        rand.New(rand.NewSource(seed)),
		price:      basePrice,
		volatility: 0.004,
		baseVolume: 25,
		history:    make(map[time.Duration]*series),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Candles returns the n trailing candles at the given granularity,
// extending the retained history up to the current period boundary.
func (f *Feed) Candles(_ context.Context, granularity time.Duration, n int) ([]model.Candle, error) {
	if n <= 0 || granularity <= 0 {
		return nil, marketdata.ErrNoData
	}

	s := f.history[granularity]
	if s == nil {
		s = &series{ring: ringbuf.New(512)}
		f.history[granularity] = s
	}

	end := f.now().Truncate(granularity)
	if s.end.IsZero() {
		s.end = end.Add(-granularity * time.Duration(n))
	}
	for ts := s.end; ts.Before(end); ts = ts.Add(granularity) {
		s.ring.Push(f.generate(ts))
	}
	if end.After(s.end) {
		s.end = end
	}

	candles := s.ring.Last(n)
	if len(candles) == 0 {
		return nil, marketdata.ErrNoData
	}
	return candles, nil
}

// Price returns the current simulated price.
func (f *Feed) Price(context.Context) (float64, error) {
	if f.price <= 0 {
		return 0, marketdata.ErrNoData
	}
	return f.price, nil
}

// generate advances the walk by one candle opening at ts.
func (f *Feed) generate(ts time.Time) model.Candle {
	open := f.price
	step := f.rng.NormFloat64() * f.volatility * open
	cl := open + step
	high := math.Max(open, cl) + f.rng.Float64()*f.volatility*open*0.5
	low := math.Min(open, cl) - f.rng.Float64()*f.volatility*open*0.5
	vol := f.baseVolume * (0.5 + f.rng.Float64())
	// Occasional volume burst so the spike filter has something to see.
	if f.rng.Intn(12) == 0 {
		vol *= 3
	}
	f.price = cl

	return model.Candle{
		TS:     ts,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  cl,
		Volume: vol,
	}
}
