package indicator

import (
	"math"
	"testing"
	"time"

	"crypto-agentv1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func candle(high, low, close float64) model.Candle {
	return model.Candle{
		TS:   time.Unix(0, 0).UTC(),
		Open: close, High: high, Low: low, Close: close,
		Volume: 10,
	}
}

func closeCandles(closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = candle(c+1, c-1, c)
	}
	return out
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func assertNaN(t *testing.T, label string, got float64) {
	t.Helper()
	if !math.IsNaN(got) {
		t.Errorf("%s: got %.6f, want NaN", label, got)
	}
}

// ────────────────────────────────────────────────────────────
// ATR
// ────────────────────────────────────────────────────────────

func TestATR_Correctness_Period3(t *testing.T) {
	// Hand-calculated true ranges:
	// c0: H=105 L=95  C=100 → TR = 105-95 = 10 (no prev close)
	// c1: H=108 L=99  C=104 → max(9, |108-100|=8, |99-100|=1) = 9
	// c2: H=110 L=103 C=109 → max(7, |110-104|=6, |103-104|=1) = 7
	// ATR(3) = (10+9+7)/3 = 8.6667
	candles := []model.Candle{
		candle(105, 95, 100),
		candle(108, 99, 104),
		candle(110, 103, 109),
	}
	assertClose(t, "ATR(3)", ATR(candles, 3), 8.666667, 0.0001)
}

func TestATR_GapDominatesTrueRange(t *testing.T) {
	// A gap down makes |low-prevClose| the largest component.
	// c0: H=101 L=99 C=100 → TR = 2
	// c1: H=92  L=90 C=91  → max(2, |92-100|=8, |90-100|=10) = 10
	candles := []model.Candle{
		candle(101, 99, 100),
		candle(92, 90, 91),
	}
	assertClose(t, "ATR(2) with gap", ATR(candles, 2), 6.0, 0.0001)
}

func TestATR_InsufficientWindow(t *testing.T) {
	candles := []model.Candle{candle(105, 95, 100), candle(108, 99, 104)}
	assertNaN(t, "ATR(3) with 2 candles", ATR(candles, 3))
	assertNaN(t, "ATR(3) with 0 candles", ATR(nil, 3))
}

// ────────────────────────────────────────────────────────────
// ADX
// ────────────────────────────────────────────────────────────

func TestADX_StrongUptrendIs100(t *testing.T) {
	// Perfect uptrend: every candle shifts up by 2, so -DM is always 0
	// and DX is pinned at 100; the rolling mean of DX stays 100.
	var candles []model.Candle
	for i := 0; i < 10; i++ {
		base := 100.0 + 2.0*float64(i)
		candles = append(candles, candle(base+2, base-2, base))
	}
	assertClose(t, "ADX(2) uptrend", ADX(candles, 2), 100.0, 0.0001)
}

func TestADX_FlatMarketUndefined(t *testing.T) {
	// Identical candles: +DM = -DM = 0, DI sum is 0 → DX undefined →
	// ADX undefined, not a division error.
	var candles []model.Candle
	for i := 0; i < 20; i++ {
		candles = append(candles, candle(101, 99, 100))
	}
	assertNaN(t, "ADX(5) flat market", ADX(candles, 5))
}

func TestADX_InsufficientWindow(t *testing.T) {
	// ADX needs two rolling passes: 2*period candles.
	var candles []model.Candle
	for i := 0; i < 9; i++ {
		base := 100.0 + 2.0*float64(i)
		candles = append(candles, candle(base+2, base-2, base))
	}
	assertNaN(t, "ADX(5) with 9 candles", ADX(candles, 5))
}

func TestADX_Range(t *testing.T) {
	// Pseudo-random walk: ADX must land in [0,100] or be NaN.
	closes := []float64{100, 103, 101, 104, 102, 106, 105, 108, 104, 107,
		109, 106, 110, 108, 112, 111, 109, 113, 115, 112}
	var candles []model.Candle
	for _, c := range closes {
		candles = append(candles, candle(c+2, c-2, c))
	}
	for period := 2; period <= 6; period++ {
		got := ADX(candles, period)
		if math.IsNaN(got) {
			continue
		}
		if got < 0 || got > 100 {
			t.Errorf("ADX(%d) = %.4f out of [0,100]", period, got)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger Bands
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness(t *testing.T) {
	// Closes 100, 102, 104: middle = 102, sample stddev = 2.
	// k=2 → upper 106, lower 98.
	candles := closeCandles(100, 102, 104)
	upper, middle, lower := Bollinger(candles, 3, 2.0)
	assertClose(t, "BB middle", middle, 102.0, 0.0001)
	assertClose(t, "BB upper", upper, 106.0, 0.0001)
	assertClose(t, "BB lower", lower, 98.0, 0.0001)
}

func TestBollinger_InsufficientWindow(t *testing.T) {
	upper, middle, lower := Bollinger(closeCandles(100, 102), 3, 2.0)
	assertNaN(t, "BB upper", upper)
	assertNaN(t, "BB middle", middle)
	assertNaN(t, "BB lower", lower)
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period3(t *testing.T) {
	// Closes: 100, 101, 103, 102, 105
	// Deltas:       +1   +2   -1   +3
	// Last window (3 deltas over candles 2..4): gains (2,0,3) → mean 5/3,
	// losses (0,1,0) → mean 1/3. RS = 5 → RSI = 100 - 100/6 = 83.3333
	candles := closeCandles(100, 101, 103, 102, 105)
	assertClose(t, "RSI(3)", RSI(candles, 3), 83.333333, 0.0001)
}

func TestRSI_AllGainsIs100(t *testing.T) {
	candles := closeCandles(100, 101, 102, 103, 104, 105)
	assertClose(t, "RSI(3) all gains", RSI(candles, 3), 100.0, 0.0001)
}

func TestRSI_AllLossesIs0(t *testing.T) {
	candles := closeCandles(105, 104, 103, 102, 101, 100)
	assertClose(t, "RSI(3) all losses", RSI(candles, 3), 0.0, 0.0001)
}

func TestRSI_Range(t *testing.T) {
	closes := []float64{100, 98, 103, 101, 99, 104, 102, 107, 103, 106}
	candles := closeCandles(closes...)
	for period := 2; period <= 5; period++ {
		got := RSI(candles, period)
		if math.IsNaN(got) {
			t.Errorf("RSI(%d) unexpectedly NaN with %d candles", period, len(candles))
			continue
		}
		if got < 0 || got > 100 {
			t.Errorf("RSI(%d) = %.4f out of [0,100]", period, got)
		}
	}
}

func TestRSI_InsufficientWindow(t *testing.T) {
	assertNaN(t, "RSI(14) with 5 candles", RSI(closeCandles(1, 2, 3, 4, 5), 14))
	assertNaN(t, "RSI(3) with 0 candles", RSI(nil, 3))
}

// ────────────────────────────────────────────────────────────
// Volume spike
// ────────────────────────────────────────────────────────────

func TestVolumeSpike(t *testing.T) {
	mk := func(volumes ...float64) []model.Candle {
		out := make([]model.Candle, len(volumes))
		for i, v := range volumes {
			out[i] = model.Candle{High: 101, Low: 99, Close: 100, Volume: v}
		}
		return out
	}

	// avg of last 3 = (10+10+19)/3 = 13; 19 > 13*1.4 = 18.2 → spike
	if !VolumeSpike(mk(10, 10, 10, 19), 3, 1.4) {
		t.Error("expected volume spike")
	}
	// 16 > (10+10+16)/3 * 1.5 = 18 → no spike
	if VolumeSpike(mk(10, 10, 10, 16), 3, 1.5) {
		t.Error("unexpected volume spike")
	}
	// Baseline window not filled → false, not a crash
	if VolumeSpike(mk(10, 19), 3, 1.5) {
		t.Error("spike reported before baseline window filled")
	}
}

// ────────────────────────────────────────────────────────────
// Compute
// ────────────────────────────────────────────────────────────

func testParams() Params {
	return Params{
		ATRPeriod: 14, ADXPeriod: 14,
		BBPeriod: 20, BBStd: 2.0,
		RSIPeriod: 14, VolumeAvgPeriod: 20, VolumeSpikeMult: 1.5,
	}
}

func TestCompute_ShortWindowAllUndefined(t *testing.T) {
	candles := closeCandles(100, 101, 102)
	snap := Compute(candles, testParams())

	assertNaN(t, "snapshot ATR", snap.ATR)
	assertNaN(t, "snapshot ADX", snap.ADX)
	assertNaN(t, "snapshot RSI", snap.RSI)
	assertNaN(t, "snapshot BBLower", snap.BBLower)
	if snap.VolumeSpike {
		t.Error("volume spike on short window")
	}
	assertClose(t, "snapshot price", snap.Price, 102.0, 0.0001)
}

func TestCompute_FullWindow(t *testing.T) {
	var candles []model.Candle
	for i := 0; i < 60; i++ {
		base := 100.0 + 0.5*float64(i%7) + 0.1*float64(i)
		c := candle(base+1.5, base-1.5, base)
		c.Volume = 10 + float64(i%5)
		candles = append(candles, c)
	}
	snap := Compute(candles, testParams())

	if math.IsNaN(snap.ATR) || snap.ATR <= 0 {
		t.Errorf("ATR = %.4f, want positive", snap.ATR)
	}
	if !math.IsNaN(snap.ADX) && (snap.ADX < 0 || snap.ADX > 100) {
		t.Errorf("ADX = %.4f out of [0,100]", snap.ADX)
	}
	if math.IsNaN(snap.RSI) || snap.RSI < 0 || snap.RSI > 100 {
		t.Errorf("RSI = %.4f out of [0,100]", snap.RSI)
	}
	if !(snap.BBLower < snap.BBMiddle && snap.BBMiddle < snap.BBUpper) {
		t.Errorf("bands not ordered: %.4f %.4f %.4f", snap.BBLower, snap.BBMiddle, snap.BBUpper)
	}
	assertClose(t, "price", snap.Price, candles[len(candles)-1].Close, 0.0001)
}

func TestCompute_EmptyWindow(t *testing.T) {
	snap := Compute(nil, testParams())
	assertNaN(t, "empty ATR", snap.ATR)
	assertNaN(t, "empty ADX", snap.ADX)
	if snap.Price != 0 || snap.VolumeSpike {
		t.Error("empty window should produce zero price and no spike")
	}
}
