// Package metrics exposes Prometheus metrics for the trading agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crypto-agentv1/internal/model"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	TicksTotal    prometheus.Counter
	TicksSkipped  prometheus.Counter
	TickFailures  prometheus.Counter
	TradesTotal   *prometheus.CounterVec // labels: action
	BreakerTrips  prometheus.Counter
	FetchDuration prometheus.Histogram

	TotalValue prometheus.Gauge
	DailyPnL   prometheus.Gauge
	Paused     prometheus.Gauge // 0=trading, 1=paused
	PositionUp prometheus.Gauge // 0=flat, 1=open

	registry *prometheus.Registry
}

// New registers and returns all agent metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_ticks_total",
			Help: "Total evaluation ticks run",
		}),
		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_ticks_skipped_total",
			Help: "Ticks skipped due to missing market data",
		}),
		TickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_tick_failures_total",
			Help: "Ticks abandoned by the controller catch-all",
		}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_trades_total",
			Help: "Executed paper trades (by action)",
		}, []string{"action"}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_breaker_trips_total",
			Help: "Circuit breaker pause events",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "agent_fetch_duration_seconds",
			Help:    "Market data fetch latency per tick",
			Buckets: prometheus.DefBuckets,
		}),
		TotalValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agent_total_value",
			Help: "Total portfolio value in quote currency",
		}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agent_daily_pnl",
			Help: "Realized P&L since the last UTC rollover",
		}),
		Paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agent_trading_paused",
			Help: "1 while a circuit breaker pause is active",
		}),
		PositionUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "agent_position_open",
			Help: "1 while a position is open",
		}),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.TicksTotal, m.TicksSkipped, m.TickFailures, m.TradesTotal,
		m.BreakerTrips, m.FetchDuration,
		m.TotalValue, m.DailyPnL, m.Paused, m.PositionUp,
	)
	return m
}

// Record counts an executed trade. Implements ledger.Recorder so trade
// counting can never drift from the journal.
func (m *Metrics) Record(tr model.TradeRecord) error {
	m.TradesTotal.WithLabelValues(tr.Action).Inc()
	return nil
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
