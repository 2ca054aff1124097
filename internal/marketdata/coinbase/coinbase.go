// Package coinbase implements the market data client against the
// Coinbase Exchange REST and WebSocket APIs. Requests are signed with
// the CB-ACCESS HMAC-SHA256 scheme; public market data endpoints also
// work with empty credentials.
package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"crypto-agentv1/internal/marketdata"
	"crypto-agentv1/internal/model"
)

const defaultBaseURL = "https://api.exchange.coinbase.com"

// Config configures the Coinbase client.
type Config struct {
	APIKey        string
	APISecret     string // base64-encoded
	APIPassphrase string
	Pair          string // product id, e.g. "BTC-USD"
	BaseURL       string // default: https://api.exchange.coinbase.com
	Timeout       time.Duration
}

// Client is a Coinbase Exchange market data client. It optionally keeps
// a WebSocket ticker stream open; Price prefers the streamed price and
// falls back to the REST ticker when the stream is cold.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	stream     *tickerStream
}

// New creates a client. Call StartStream to attach the WebSocket ticker.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Candles fetches up to n trailing candles at the given granularity.
// The exchange returns newest-first rows [time, low, high, open, close,
// volume]; they are re-sorted ascending before returning.
func (c *Client) Candles(ctx context.Context, granularity time.Duration, n int) ([]model.Candle, error) {
	secs := int(granularity.Seconds())
	end := time.Now().UTC()
	start := end.Add(-granularity * time.Duration(n))

	path := "/products/" + c.cfg.Pair + "/candles"
	q := url.Values{}
	q.Set("granularity", strconv.Itoa(secs))
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))

	var rows [][]float64
	if err := c.get(ctx, path, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, marketdata.ErrNoData
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		candles = append(candles, model.Candle{
			TS:     time.Unix(int64(r[0]), 0).UTC(),
			Low:    r[1],
			High:   r[2],
			Open:   r[3],
			Close:  r[4],
			Volume: r[5],
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].TS.Before(candles[j].TS) })
	return candles, nil
}

// Price returns the latest traded price: the WebSocket ticker price when
// the stream is live, otherwise the REST ticker.
func (c *Client) Price(ctx context.Context) (float64, error) {
	if c.stream != nil {
		if p, ok := c.stream.lastPrice(); ok {
			return p, nil
		}
	}

	var ticker struct {
		Price string `json:"price"`
	}
	if err := c.get(ctx, "/products/"+c.cfg.Pair+"/ticker", nil, &ticker); err != nil {
		return 0, err
	}
	p, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil || p <= 0 {
		return 0, fmt.Errorf("ticker price %q: %w", ticker.Price, marketdata.ErrNoData)
	}
	return p, nil
}

// StartStream connects the WebSocket ticker feed and keeps the latest
// price cached until ctx is cancelled. Safe to skip entirely: Price
// falls back to REST.
func (c *Client) StartStream(ctx context.Context) {
	c.stream = newTickerStream(c.cfg.Pair)
	go c.stream.run(ctx)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("coinbase: build request: %w", err)
	}
	c.sign(req, http.MethodGet, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coinbase: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coinbase: %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("coinbase: %s: decode: %w", path, err)
	}
	return nil
}

// sign adds the CB-ACCESS authentication headers. Skipped when no key is
// configured (public endpoints).
func (c *Client) sign(req *http.Request, method, path string) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	message := ts + method + path

	key, err := base64.StdEncoding.DecodeString(c.cfg.APISecret)
	if err != nil {
		return // unsigned request; the server rejects it with a clear error
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))

	req.Header.Set("CB-ACCESS-KEY", c.cfg.APIKey)
	req.Header.Set("CB-ACCESS-SIGN", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	req.Header.Set("CB-ACCESS-TIMESTAMP", ts)
	req.Header.Set("CB-ACCESS-PASSPHRASE", c.cfg.APIPassphrase)
	req.Header.Set("Content-Type", "application/json")
}
