package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all agent configuration loaded from environment variables.
// It is immutable after Load and passed by reference into each component.
type Config struct {
	// Exchange credentials (Coinbase Exchange API)
	APIKey        string
	APISecret     string
	APIPassphrase string

	// Trading parameters
	Pair               string        // e.g. "BTC-USD"
	Granularity        time.Duration // primary timeframe (15m candles)
	ConfirmGranularity time.Duration // confirmation timeframe (1h candles)
	LookbackCandles    int           // trailing window per fetch

	// Position sizing (tiered, evaluated against quote balance)
	Tier1Max float64
	Tier1Pct float64
	Tier2Max float64
	Tier2Pct float64
	Tier3Pct float64

	// Technical indicators
	ADXPeriod        int
	ADXThreshold     float64
	BBPeriod         int
	BBStd            float64
	BBEntryMargin    float64 // tolerance above the lower band for entries
	RSIPeriod        int
	RSIOverbought    float64
	ATRPeriod        int
	VolumeAvgPeriod  int
	VolumeSpikeMult  float64

	// Risk management
	ATRStopMult        float64
	ProfitTargetRatio  float64
	TrailingStopMult   float64
	MaxPositionHours   float64
	DailyLossMult      float64
	AvgPositionRiskPct float64 // heuristic per-position risk used by the daily loss limit
	MaxDrawdownPct     float64
	VolatilityPausePct float64
	SharpDropPct       float64

	// Paper ledger
	PaperBalanceQuote float64
	PaperBalanceBase  float64
	TakerFee          float64
	SlippageRate      float64

	// Monitoring / infrastructure
	CheckInterval time.Duration
	LogLevel      string
	JournalPath   string
	SQLitePath    string
	RedisAddr     string // empty disables the Redis publisher
	RedisPassword string
	MetricsAddr   string
	WebhookURL    string
	TelegramToken string
	TelegramChat  string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file is honored when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using process environment")
	}

	return &Config{
		APIKey:        getEnv("COINBASE_API_KEY", ""),
		APISecret:     getEnv("COINBASE_API_SECRET", ""),
		APIPassphrase: getEnv("COINBASE_API_PASSPHRASE", ""),

		Pair:               getEnv("ASSET_PAIR", "BTC-USD"),
		Granularity:        getDuration("GRANULARITY", 15*time.Minute),
		ConfirmGranularity: getDuration("CONFIRM_GRANULARITY", time.Hour),
		LookbackCandles:    getInt("LOOKBACK_CANDLES", 100),

		Tier1Max: getFloat("SIZE_TIER_1_MAX", 100.0),
		Tier1Pct: getFloat("SIZE_TIER_1_PCT", 0.99),
		Tier2Max: getFloat("SIZE_TIER_2_MAX", 1000.0),
		Tier2Pct: getFloat("SIZE_TIER_2_PCT", 0.20),
		Tier3Pct: getFloat("SIZE_TIER_3_PCT", 0.10),

		ADXPeriod:       getInt("ADX_PERIOD", 14),
		ADXThreshold:    getFloat("ADX_THRESHOLD", 25.0),
		BBPeriod:        getInt("BB_PERIOD", 20),
		BBStd:           getFloat("BB_STD", 2.0),
		BBEntryMargin:   getFloat("BB_ENTRY_MARGIN", 0.01),
		RSIPeriod:       getInt("RSI_PERIOD", 14),
		RSIOverbought:   getFloat("RSI_OVERBOUGHT", 70.0),
		ATRPeriod:       getInt("ATR_PERIOD", 14),
		VolumeAvgPeriod: getInt("VOLUME_AVG_PERIOD", 20),
		VolumeSpikeMult: getFloat("VOLUME_SPIKE_MULTIPLIER", 1.5),

		ATRStopMult:        getFloat("ATR_STOP_MULTIPLIER", 2.0),
		ProfitTargetRatio:  getFloat("PROFIT_TARGET_RATIO", 1.5),
		TrailingStopMult:   getFloat("TRAILING_STOP_MULTIPLIER", 1.5),
		MaxPositionHours:   getFloat("MAX_POSITION_HOURS", 12),
		DailyLossMult:      getFloat("DAILY_LOSS_MULTIPLIER", 3.0),
		AvgPositionRiskPct: getFloat("AVG_POSITION_RISK_PCT", 0.03),
		MaxDrawdownPct:     getFloat("MAX_DRAWDOWN_PCT", 0.20),
		VolatilityPausePct: getFloat("VOLATILITY_PAUSE_THRESHOLD", 0.10),
		SharpDropPct:       getFloat("SHARP_DROP_ALERT_THRESHOLD", 0.05),

		PaperBalanceQuote: getFloat("PAPER_BALANCE_QUOTE", 10000.0),
		PaperBalanceBase:  getFloat("PAPER_BALANCE_BASE", 0.0),
		TakerFee:          getFloat("TAKER_FEE", 0.006),
		SlippageRate:      getFloat("SLIPPAGE", 0.001),

		CheckInterval: getDuration("CHECK_INTERVAL", 60*time.Second),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		JournalPath:   getEnv("JOURNAL_PATH", "trades.jsonl"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/trades.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		WebhookURL:    getEnv("ALERT_WEBHOOK_URL", ""),
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChat:  getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

// getDuration accepts either a Go duration string ("15m") or a bare
// number of seconds ("900"), matching the exchange granularity convention.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("[config] invalid duration for %s: %q, using %s", key, v, fallback)
	return fallback
}
