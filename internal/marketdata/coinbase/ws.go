package coinbase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsFeedURL = "wss://ws-feed.exchange.coinbase.com"

	// A streamed price older than this is considered cold and Price
	// falls back to the REST ticker.
	priceStaleness = 30 * time.Second

	reconnectDelay = 5 * time.Second
)

// tickerStream maintains a WebSocket subscription to the ticker channel
// and caches the most recent trade price.
type tickerStream struct {
	pair string

	mu    sync.RWMutex
	price float64
	at    time.Time
}

func newTickerStream(pair string) *tickerStream {
	return &tickerStream{pair: pair}
}

// lastPrice returns the cached price if it is fresh.
func (s *tickerStream) lastPrice() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.price <= 0 || time.Since(s.at) > priceStaleness {
		return 0, false
	}
	return s.price, true
}

// run connects, subscribes, and consumes ticker messages until ctx is
// cancelled, reconnecting with a fixed delay on any failure.
func (s *tickerStream) run(ctx context.Context) {
	for {
		if err := s.consume(ctx); err != nil {
			slog.Warn("ticker stream disconnected", slog.Any("err", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *tickerStream) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsFeedURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"type":        "subscribe",
		"product_ids": []string{s.pair},
		"channels":    []string{"ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg struct {
			Type  string `json:"type"`
			Price string `json:"price"`
		}
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "ticker" {
			continue
		}
		p, err := strconv.ParseFloat(msg.Price, 64)
		if err != nil || p <= 0 {
			continue
		}

		s.mu.Lock()
		s.price = p
		s.at = time.Now()
		s.mu.Unlock()
	}
}
