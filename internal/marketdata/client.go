// Package marketdata defines the engine-facing market data interface.
// Implementations live in subpackages (coinbase, sim); the engine treats
// an empty candle window or a non-positive price as "skip this tick".
package marketdata

import (
	"context"
	"errors"
	"time"

	"crypto-agentv1/internal/model"
)

// ErrNoData signals an empty or failed fetch; the caller degrades the
// tick to a no-op rather than propagating the failure.
var ErrNoData = errors.New("no market data")

// Client retrieves candles and the current price for the configured pair.
// All calls are synchronous and block the tick until they return or time
// out.
type Client interface {
	// Candles returns up to n trailing candles at the given granularity,
	// ordered ascending by timestamp with no duplicates.
	Candles(ctx context.Context, granularity time.Duration, n int) ([]model.Candle, error)

	// Price returns the latest traded price. Implementations return an
	// error rather than 0 on failure; a 0 price must never reach sizing.
	Price(ctx context.Context) (float64, error)
}
