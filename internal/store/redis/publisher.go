// Package redis publishes per-tick status and executed trades to Redis
// for external dashboards and collaborators. The engine runs fine
// without it; every publish is fire-and-forget.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"crypto-agentv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	statusChannel = "agent:status"
	tradeStream   = "agent:trades"

	// keep roughly a month of trades at a few per day
	tradeStreamMaxLen = 1000
)

// Publisher writes agent state to Redis.
type Publisher struct {
	client *goredis.Client
}

// New creates a Publisher and pings the server.
func New(addr, password string) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis publisher connected", slog.String("addr", addr))
	return &Publisher{client: client}, nil
}

// Status is the per-tick summary pushed to the status channel.
type Status struct {
	TS           time.Time `json:"ts"`
	Price        float64   `json:"price"`
	BalanceQuote float64   `json:"balance_quote"`
	BalanceBase  float64   `json:"balance_base"`
	TotalValue   float64   `json:"total_value"`
	DailyPnL     float64   `json:"daily_pnl"`
	TotalPnL     float64   `json:"total_pnl"`
	PositionOpen bool      `json:"position_open"`
	Paused       bool      `json:"paused"`
	PauseReason  string    `json:"pause_reason,omitempty"`
}

// PublishStatus pushes the tick status over pub/sub.
func (p *Publisher) PublishStatus(ctx context.Context, s Status) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := p.client.Publish(ctx, statusChannel, b).Err(); err != nil {
		slog.Debug("status publish failed", slog.Any("err", err))
	}
}

// Record appends an executed trade to the trade stream. Implements
// ledger.Recorder; failures are reported but never block the ledger.
func (p *Publisher) Record(tr model.TradeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: tradeStream,
		MaxLen: tradeStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"ts":     tr.Timestamp.UTC().Format(time.RFC3339Nano),
			"action": tr.Action,
			"price":  tr.Price,
			"size":   tr.Size,
			"pnl":    tr.PnL,
			"reason": tr.Reason,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
