// Package ringbuf provides a fixed-capacity rolling window of candles:
// pushes overwrite the oldest entry once the buffer is full, and reads
// return the most recent candles in ascending order. Written for the
// single-writer tick model, so no synchronization.
package ringbuf

import "crypto-agentv1/internal/model"

// Ring is a rolling candle window. Capacity is rounded up to a power of
// two for bitwise index masking.
type Ring struct {
	buf  []model.Candle
	mask uint64
	head uint64 // total pushes ever
}

// New creates a ring with at least the given capacity (minimum 2).
func New(capacity int) *Ring {
	c := nextPow2(capacity)
	if c < 2 {
		c = 2
	}
	return &Ring{
		buf:  make([]model.Candle, c),
		mask: uint64(c - 1),
	}
}

// Push appends a candle, overwriting the oldest when full.
func (r *Ring) Push(c model.Candle) {
	r.buf[r.head&r.mask] = c
	r.head++
}

// Len returns the number of candles currently held.
func (r *Ring) Len() int {
	if r.head > uint64(len(r.buf)) {
		return len(r.buf)
	}
	return int(r.head)
}

// Cap returns the ring capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Last returns up to n of the most recent candles, oldest first. The
// returned slice is freshly allocated.
func (r *Ring) Last(n int) []model.Candle {
	if n > r.Len() {
		n = r.Len()
	}
	if n <= 0 {
		return nil
	}
	out := make([]model.Candle, 0, n)
	for i := r.head - uint64(n); i < r.head; i++ {
		out = append(out, r.buf[i&r.mask])
	}
	return out
}

// Latest returns the most recently pushed candle.
func (r *Ring) Latest() (model.Candle, bool) {
	if r.head == 0 {
		return model.Candle{}, false
	}
	return r.buf[(r.head-1)&r.mask], true
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
