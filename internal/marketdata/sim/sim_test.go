package sim

import (
	"context"
	"testing"
	"time"
)

func TestSameSeedSamePath(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := New(50000, 7)
	a.now = func() time.Time { return now }
	b := New(50000, 7)
	b.now = func() time.Time { return now }

	ca, err := a.Candles(ctx, 15*time.Minute, 20)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	cb, _ := b.Candles(ctx, 15*time.Minute, 20)
	if len(ca) != 20 || len(cb) != 20 {
		t.Fatalf("window sizes %d/%d, want 20", len(ca), len(cb))
	}
	for i := range ca {
		if ca[i].Close != cb[i].Close {
			t.Fatalf("seeded paths diverged at %d: %v vs %v", i, ca[i].Close, cb[i].Close)
		}
	}
}

func TestHistoryIsCoherentAcrossFetches(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	f := New(50000, 7)
	f.now = func() time.Time { return now }

	first, err := f.Candles(ctx, 15*time.Minute, 20)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}

	// One period later: the window slides by one, the overlap is identical.
	now = now.Add(15 * time.Minute)
	second, err := f.Candles(ctx, 15*time.Minute, 20)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	for i := 0; i < 19; i++ {
		if first[i+1].Close != second[i].Close {
			t.Fatalf("history rewritten at %d: %v vs %v", i, first[i+1].Close, second[i].Close)
		}
	}
	if !second[19].TS.After(second[18].TS) {
		t.Error("appended candle is not newest")
	}
}

func TestCandlesAscendingWithoutDuplicates(t *testing.T) {
	f := New(50000, 7)
	f.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	candles, err := f.Candles(context.Background(), time.Hour, 30)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].TS.After(candles[i-1].TS) {
			t.Fatalf("timestamps not strictly ascending at %d", i)
		}
	}
}

func TestPrice(t *testing.T) {
	f := New(50000, 7)
	p, err := f.Price(context.Background())
	if err != nil || p != 50000 {
		t.Fatalf("Price = %v, %v", p, err)
	}
}
