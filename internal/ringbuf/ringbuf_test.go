package ringbuf

import (
	"testing"

	"crypto-agentv1/internal/model"
)

func candle(close float64) model.Candle {
	return model.Candle{Close: close}
}

func TestCapacityRounding(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 2}, {1, 2}, {2, 2}, {3, 4}, {5, 8}, {8, 8}, {100, 128},
	}
	for _, tc := range cases {
		if got := New(tc.in).Cap(); got != tc.want {
			t.Errorf("New(%d).Cap() = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLastReturnsAscending(t *testing.T) {
	r := New(8)
	for i := 1; i <= 5; i++ {
		r.Push(candle(float64(i)))
	}
	if r.Len() != 5 {
		t.Fatalf("Len = %d, want 5", r.Len())
	}

	got := r.Last(3)
	want := []float64{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Last(3) returned %d candles", len(got))
	}
	for i := range want {
		if got[i].Close != want[i] {
			t.Errorf("Last(3)[%d].Close = %v, want %v", i, got[i].Close, want[i])
		}
	}
}

func TestOverwriteOldestOnWrap(t *testing.T) {
	r := New(4)
	for i := 1; i <= 10; i++ {
		r.Push(candle(float64(i)))
	}
	if r.Len() != 4 {
		t.Fatalf("Len = %d, want 4", r.Len())
	}

	got := r.Last(4)
	want := []float64{7, 8, 9, 10}
	for i := range want {
		if got[i].Close != want[i] {
			t.Errorf("after wrap, Last(4)[%d].Close = %v, want %v", i, got[i].Close, want[i])
		}
	}
}

func TestLastClampsToLen(t *testing.T) {
	r := New(8)
	r.Push(candle(1))
	r.Push(candle(2))
	if got := r.Last(100); len(got) != 2 {
		t.Errorf("Last(100) returned %d candles, want 2", len(got))
	}
	if got := r.Last(0); got != nil {
		t.Errorf("Last(0) = %v, want nil", got)
	}
}

func TestLatest(t *testing.T) {
	r := New(4)
	if _, ok := r.Latest(); ok {
		t.Error("Latest on empty ring reported ok")
	}
	r.Push(candle(1))
	r.Push(candle(2))
	if c, ok := r.Latest(); !ok || c.Close != 2 {
		t.Errorf("Latest = %v ok=%v, want close 2", c.Close, ok)
	}
}
