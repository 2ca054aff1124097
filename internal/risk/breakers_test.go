package risk

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"crypto-agentv1/config"
	"crypto-agentv1/internal/ledger"
	"crypto-agentv1/internal/model"
	"crypto-agentv1/internal/notification"
)

type fakeCloser struct {
	open    bool
	reasons []string
}

func (f *fakeCloser) Open() bool { return f.open }

func (f *fakeCloser) ForceClose(now time.Time, price float64, reason string) error {
	f.reasons = append(f.reasons, reason)
	f.open = false
	return nil
}

type fakeNotifier struct {
	alerts []notification.Alert
}

func (f *fakeNotifier) Send(ctx context.Context, a notification.Alert) error {
	f.alerts = append(f.alerts, a)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Tier1Max: 100, Tier1Pct: 0.99,
		Tier2Max: 1000, Tier2Pct: 0.20,
		Tier3Pct: 0.10,

		DailyLossMult:      3.0,
		AvgPositionRiskPct: 0.03,
		MaxDrawdownPct:     0.20,
		VolatilityPausePct: 0.10,
		SharpDropPct:       0.05,

		PaperBalanceQuote: 10000,
		TakerFee:          0.006,
		SlippageRate:      0.001,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBreakers(cfg *config.Config) (*Breakers, *ledger.Ledger, *fakeNotifier) {
	led := ledger.New(cfg, nil, testLogger())
	notifier := &fakeNotifier{}
	return New(cfg, led, notifier, testLogger()), led, notifier
}

// rangeCandles builds a flat window with one hour of the given span at
// the end.
func rangeCandles(low, high float64) []model.Candle {
	candles := make([]model.Candle, 8)
	for i := range candles {
		candles[i] = model.Candle{Open: low, High: low, Low: low, Close: low}
	}
	candles[len(candles)-1].High = high
	return candles
}

func TestVolatilityPausesWithoutClosing(t *testing.T) {
	b, led, notifier := newBreakers(testConfig())
	ctx := context.Background()
	closer := &fakeCloser{open: true}

	b.CheckVolatility(ctx, rangeCandles(100, 112)) // 12% span
	paused, reason := led.Paused()
	if !paused {
		t.Fatal("expected a volatility pause")
	}
	if !strings.Contains(reason, "volatility circuit breaker") {
		t.Errorf("pause reason = %q", reason)
	}
	if !closer.open {
		t.Error("volatility breaker must not close the position")
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0].Level != notification.LevelCritical {
		t.Errorf("expected one critical alert, got %+v", notifier.alerts)
	}
}

func TestVolatilityWithinThreshold(t *testing.T) {
	b, led, _ := newBreakers(testConfig())

	b.CheckVolatility(context.Background(), rangeCandles(100, 108)) // 8% span
	if paused, _ := led.Paused(); paused {
		t.Error("paused below the volatility threshold")
	}
}

func TestSharpDropAlertsOnly(t *testing.T) {
	b, led, notifier := newBreakers(testConfig())
	candles := []model.Candle{{Close: 100}, {Close: 90}} // 10% drop

	b.CheckSharpDrop(context.Background(), candles)
	if paused, _ := led.Paused(); paused {
		t.Error("sharp drop must not pause trading")
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(notifier.alerts))
	}
	if notifier.alerts[0].Level != notification.LevelWarning {
		t.Errorf("alert level = %q, want WARNING", notifier.alerts[0].Level)
	}
}

func TestDrawdownPausesAndForceCloses(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDrawdownPct = 0.05
	b, led, _ := newBreakers(cfg)
	now := time.Now().UTC()

	// One losing round trip: peak stays at the starting 10000 while the
	// realized value drops about 9%.
	if _, err := led.Buy(now, 1000, 1, 0, 0, ""); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if _, err := led.Sell(now, 100, 1, 1000, now, "stop"); err != nil {
		t.Fatalf("Sell: %v", err)
	}

	closer := &fakeCloser{open: true}
	b.CheckDrawdown(context.Background(), now, 100, closer)

	if paused, reason := led.Paused(); !paused || !strings.Contains(reason, "max drawdown") {
		t.Fatalf("paused=%v reason=%q", paused, reason)
	}
	if len(closer.reasons) != 1 || closer.reasons[0] != "drawdown limit triggered" {
		t.Errorf("force-close reasons = %v", closer.reasons)
	}
}

func TestDailyLossPausesAndForceCloses(t *testing.T) {
	b, led, _ := newBreakers(testConfig())
	now := time.Now().UTC()

	// Realize a loss far beyond the sizing-implied limit.
	if _, err := led.Buy(now, 1000, 1, 0, 0, ""); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if _, err := led.Sell(now, 100, 1, 1000, now, "stop"); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if led.DailyPnL() >= 0 {
		t.Fatal("expected a realized daily loss")
	}

	closer := &fakeCloser{open: true}
	b.CheckDailyLoss(context.Background(), now, 100, closer)

	if paused, reason := led.Paused(); !paused || !strings.Contains(reason, "daily loss limit") {
		t.Fatalf("paused=%v reason=%q", paused, reason)
	}
	if len(closer.reasons) != 1 || closer.reasons[0] != "daily loss limit triggered" {
		t.Errorf("force-close reasons = %v", closer.reasons)
	}
}

func TestDailyLossWithinLimit(t *testing.T) {
	b, led, _ := newBreakers(testConfig())
	now := time.Now().UTC()

	// A tiny loss: buy and sell back at the same price only loses fees.
	if _, err := led.Buy(now, 1000, 0.01, 0, 0, ""); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if _, err := led.Sell(now, 1000, 0.01, 1000, now, "flat"); err != nil {
		t.Fatalf("Sell: %v", err)
	}

	b.CheckDailyLoss(context.Background(), now, 1000, &fakeCloser{})
	if paused, _ := led.Paused(); paused {
		t.Error("paused on a fee-sized loss")
	}
}

// A second breaker trip in the same day keeps the first trip's reason.
func TestPauseKeepsFirstReason(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDrawdownPct = 0.05
	b, led, notifier := newBreakers(cfg)
	now := time.Now().UTC()

	if _, err := led.Buy(now, 1000, 1, 0, 0, ""); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if _, err := led.Sell(now, 100, 1, 1000, now, "stop"); err != nil {
		t.Fatalf("Sell: %v", err)
	}

	ctx := context.Background()
	b.CheckDrawdown(ctx, now, 100, &fakeCloser{})
	b.CheckDailyLoss(ctx, now, 100, &fakeCloser{})

	_, reason := led.Paused()
	if !strings.Contains(reason, "max drawdown") {
		t.Errorf("first trip's reason was overwritten: %q", reason)
	}
	if len(notifier.alerts) != 1 {
		t.Errorf("expected a single pause alert, got %d", len(notifier.alerts))
	}
}

func TestRunAllOnShortWindow(t *testing.T) {
	b, led, _ := newBreakers(testConfig())

	// A one-candle window must not trip anything or panic.
	b.RunAll(context.Background(), time.Now().UTC(), 100, []model.Candle{{Close: 100}}, &fakeCloser{})
	if paused, _ := led.Paused(); paused {
		t.Error("paused on a short window")
	}
}
