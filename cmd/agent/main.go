// cmd/agent runs the paper-trading decision engine: a fixed-interval
// loop that fetches candles, computes indicators, runs the circuit
// breakers, and manages the single open position against the virtual
// ledger.
//
// Usage:
//
//	go run ./cmd/agent           # live market data (Coinbase)
//	go run ./cmd/agent -sim      # deterministic simulated feed
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-agentv1/config"
	"crypto-agentv1/internal/engine"
	"crypto-agentv1/internal/ledger"
	"crypto-agentv1/internal/logger"
	"crypto-agentv1/internal/marketdata"
	"crypto-agentv1/internal/marketdata/coinbase"
	"crypto-agentv1/internal/marketdata/sim"
	"crypto-agentv1/internal/metrics"
	"crypto-agentv1/internal/notification"
	"crypto-agentv1/internal/risk"
	redisstore "crypto-agentv1/internal/store/redis"
	sqlitestore "crypto-agentv1/internal/store/sqlite"
	"crypto-agentv1/internal/strategy"
)

func main() {
	simMode := flag.Bool("sim", false, "use the simulated market data feed")
	simSeed := flag.Int64("sim-seed", 42, "seed for the simulated feed")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init("agent", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	// ---- Metrics ----
	m := metrics.New()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Warn("metrics server stopped", slog.Any("err", err))
		}
	}()

	// ---- Market data ----
	var client marketdata.Client
	if *simMode {
		log.Info("using simulated market data", slog.Int64("seed", *simSeed))
		client = sim.New(50000, *simSeed)
	} else {
		cb := coinbase.New(coinbase.Config{
			APIKey:        cfg.APIKey,
			APISecret:     cfg.APISecret,
			APIPassphrase: cfg.APIPassphrase,
			Pair:          cfg.Pair,
		})
		cb.StartStream(ctx)
		client = cb
	}

	// ---- Trade journal: JSONL is the source of truth, SQLite mirrors
	// it for offline queries, metrics count every record. ----
	recorders := ledger.MultiRecorder{m}

	jsonl, err := ledger.NewJSONLJournal(cfg.JournalPath)
	if err != nil {
		log.Error("cannot open trade journal", slog.Any("err", err))
		os.Exit(1)
	}
	defer jsonl.Close()
	recorders = append(recorders, jsonl)

	if cfg.SQLitePath != "" {
		sj, err := sqlitestore.NewJournal(cfg.SQLitePath)
		if err != nil {
			log.Warn("sqlite journal mirror disabled", slog.Any("err", err))
		} else {
			defer sj.Close()
			recorders = append(recorders, sj)
		}
	}

	// ---- Optional Redis publisher ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = redisstore.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis publisher disabled", slog.Any("err", err))
			publisher = nil
		} else {
			defer publisher.Close()
			recorders = append(recorders, publisher)
		}
	}

	// ---- Notifications ----
	notifier := notification.Multi{&notification.LogNotifier{Log: log}}
	if cfg.WebhookURL != "" {
		notifier = append(notifier, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChat != "" {
		notifier = append(notifier, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChat))
	}

	// ---- Core components ----
	led := ledger.New(cfg, recorders, log)
	book := strategy.NewBook(cfg, led, log)
	breakers := risk.New(cfg, led, notifier, log)

	eng := engine.New(cfg, client, led, book, breakers, m, publisher, log)

	log.Info("paper trading agent starting",
		slog.String("pair", cfg.Pair),
		slog.Float64("balance", cfg.PaperBalanceQuote),
		slog.Duration("interval", cfg.CheckInterval),
		slog.String("journal", cfg.JournalPath))

	eng.Run(ctx)

	// Give deferred closers a beat on the way out.
	time.Sleep(100 * time.Millisecond)
}
