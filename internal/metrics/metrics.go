// Package metrics exposes Prometheus collectors for orchestrator and
// simulator events. Unlike a single-process bot's package-level globals,
// Metrics is constructor-injected so multiple orchestrators (e.g. one per
// test case) can run without fighting over the default registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and gauges the orchestrator updates as it
// runs a pipeline.
type Metrics struct {
	SignalsEmitted   *prometheus.CounterVec // labels: signal_type, direction
	TradesClosed     *prometheus.CounterVec // labels: exit_reason, side
	PositionsOpen    prometheus.Gauge
	Equity           prometheus.Gauge
	OracleConfirmed  prometheus.Counter
	OracleRejected   prometheus.Counter
	BacktestRuns     prometheus.Counter
}

// New builds a fresh Metrics bundle and registers it with reg. Passing a
// nil registry is valid and yields working-but-unregistered collectors,
// useful in tests that don't care about exposition.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_signals_emitted_total",
			Help: "Signals emitted by detectors, by type and direction.",
		}, []string{"signal_type", "direction"}),
		TradesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_trades_closed_total",
			Help: "Trades closed by the position manager, by exit reason and side.",
		}, []string{"exit_reason", "side"}),
		PositionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradecore_positions_open",
			Help: "Number of currently open positions across all instruments.",
		}),
		Equity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradecore_equity_usd",
			Help: "Most recently recorded equity-curve value.",
		}),
		OracleConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradecore_oracle_confirmed_total",
			Help: "Confirmation Oracle calls that confirmed a direction.",
		}),
		OracleRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradecore_oracle_rejected_total",
			Help: "Confirmation Oracle calls that did not confirm (including cancellations).",
		}),
		BacktestRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradecore_backtest_runs_total",
			Help: "Number of backtest runs completed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.SignalsEmitted, m.TradesClosed, m.PositionsOpen, m.Equity,
			m.OracleConfirmed, m.OracleRejected, m.BacktestRuns,
		)
	}
	return m
}
