// Package backtest drives a finite, ordered event source through an
// orchestrator.Core and aggregates the resulting trade history and
// equity curve into a Result, per spec.md section 4.8.
package backtest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"tradecore/internal/core"
	"tradecore/internal/logging"
	"tradecore/internal/metrics"
	"tradecore/internal/orchestrator"
)

// defaultPeriodsPerYear annualises the Sharpe ratio assuming equity
// points are recorded on a roughly hourly cadence; a run with a coarser
// or finer equity-sampling interval should override it via Config.
const defaultPeriodsPerYear = 365 * 24

// EventKind discriminates Event's payload.
type EventKind int

const (
	PriceEvent EventKind = iota
	TickEvent
)

// Event is one item from a backtest's event source: exactly one of
// Price or Tick is meaningful, selected by Kind, mirroring spec.md
// section 6's "either/or" event shape (Go has no sum type).
type Event struct {
	Kind  EventKind
	Price core.PriceUpdate
	Tick  core.TradeTick
}

// Config parameterises one backtest run's metric computation.
type Config struct {
	// StartingBalance is the simulator's seed balance, used to compute ROI.
	StartingBalance float64
	// PeriodsPerYear annualises the Sharpe ratio; 0 selects
	// defaultPeriodsPerYear.
	PeriodsPerYear float64
}

// SignalPerformance breaks down closed-trade outcomes by one SignalType
// that contributed to the entry decision, per the per-signal breakdown
// supplemented into the backtest report.
type SignalPerformance struct {
	SignalType    core.SignalType
	TotalTrades   int
	Wins          int
	WinRate       float64
	NetPnL        float64
	AvgPnLPercent float64
}

// Result aggregates one backtest run's outcome, the "backtest result
// struct carrying the metrics" from spec.md section 4.8.
type Result struct {
	Trades      []core.Trade
	EquityCurve []core.EquityPoint

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64

	GrossProfit float64
	GrossLoss   float64
	NetPnL      float64
	ROI         float64

	MaxDrawdownPct      float64
	MaxDrawdownDuration time.Duration
	ProfitFactor        float64
	SharpeRatio         float64

	BySignalType map[core.SignalType]*SignalPerformance
}

// Run pumps events, in order, into tc, then shuts it down as of
// lastTime with lastPrices as the final observed mark (spec.md section
// 5's cancellation contract: close_all then a final equity point), and
// computes Result from the resulting trade history and equity curve.
func Run(ctx context.Context, tc *orchestrator.Core, events []Event, lastPrices map[string]float64, lastTime time.Time, cfg Config, m *metrics.Metrics) (*Result, error) {
	for _, ev := range events {
		var err error
		switch ev.Kind {
		case PriceEvent:
			err = tc.OnPriceUpdate(ctx, ev.Price)
		case TickEvent:
			err = tc.OnTradeTick(ctx, ev.Tick)
		}
		if err != nil {
			return nil, err
		}
	}

	if _, err := tc.Shutdown(lastPrices, lastTime); err != nil {
		return nil, err
	}

	result := summarize(tc.TradeHistory(), tc.EquityCurve(), cfg)
	if m != nil {
		m.BacktestRuns.Inc()
	}
	logging.FromContext(ctx).Info(fmt.Sprintf(
		"backtest run complete: trades=%d win_rate=%.1f%% net_pnl=%.2f",
		result.TotalTrades, result.WinRate, result.NetPnL))
	return result, nil
}

// summarize computes every metric in Result from a closed trade history
// and an equity curve, following the original_source's SimulatorState
// bookkeeping and spec.md section 4.8's metric definitions.
func summarize(trades []core.Trade, equity []core.EquityPoint, cfg Config) *Result {
	r := &Result{
		Trades:       trades,
		EquityCurve:  equity,
		TotalTrades:  len(trades),
		BySignalType: make(map[core.SignalType]*SignalPerformance),
	}

	for _, t := range trades {
		if t.PnL > 0 {
			r.WinningTrades++
			r.GrossProfit += t.PnL
		} else {
			r.LosingTrades++
			r.GrossLoss += -t.PnL
		}
		r.NetPnL += t.PnL
		accumulateSignalStats(r.BySignalType, t)
	}

	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	}
	if cfg.StartingBalance > 0 {
		r.ROI = r.NetPnL / cfg.StartingBalance * 100
	}
	r.ProfitFactor = profitFactor(r.GrossProfit, r.GrossLoss)
	r.MaxDrawdownPct, r.MaxDrawdownDuration = maxDrawdown(equity)
	r.SharpeRatio = sharpeRatio(equity, cfg.periodsPerYear())

	for _, perf := range r.BySignalType {
		if perf.TotalTrades > 0 {
			perf.WinRate = float64(perf.Wins) / float64(perf.TotalTrades) * 100
			perf.AvgPnLPercent /= float64(perf.TotalTrades)
		}
	}

	return r
}

func (c Config) periodsPerYear() float64 {
	if c.PeriodsPerYear > 0 {
		return c.PeriodsPerYear
	}
	return defaultPeriodsPerYear
}

func accumulateSignalStats(by map[core.SignalType]*SignalPerformance, t core.Trade) {
	for _, st := range t.SignalsConsidered {
		name, _, _ := strings.Cut(st, ":")
		signalType := core.SignalType(name)
		perf, ok := by[signalType]
		if !ok {
			perf = &SignalPerformance{SignalType: signalType}
			by[signalType] = perf
		}
		perf.TotalTrades++
		if t.PnL > 0 {
			perf.Wins++
		}
		perf.NetPnL += t.PnL
		perf.AvgPnLPercent += t.PnLPercent()
	}
}

// profitFactor is gross_profit / gross_loss, +Inf if there were winners
// and no losses, 0 if there were no trades at all.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// maxDrawdown returns the largest peak-to-trough percentage decline in
// the equity curve, and the duration of that decline measured from the
// point the curve first falls below its prior peak to the point it
// next reaches a new peak (an underwater/recovery duration, not the
// narrower peak-to-trough interval), per spec.md section 4.8 and
// original_source/bot/backtest/engine.py's _calculate_drawdown. A
// drawdown still open at the end of the curve (no recovery to a new
// high) contributes its percentage but not a duration.
func maxDrawdown(curve []core.EquityPoint) (float64, time.Duration) {
	if len(curve) == 0 {
		return 0, 0
	}

	peak := curve[0].Equity
	maxPct := 0.0
	maxDur := time.Duration(0)
	var ddStart time.Time
	inDrawdown := false

	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
			if inDrawdown {
				if d := pt.Timestamp.Sub(ddStart); d > maxDur {
					maxDur = d
				}
				inDrawdown = false
			}
			continue
		}
		if peak == 0 {
			continue
		}
		drawdownPct := (peak - pt.Equity) / peak * 100
		if drawdownPct > maxPct {
			maxPct = drawdownPct
		}
		if !inDrawdown && pt.Equity < peak {
			ddStart = pt.Timestamp
			inDrawdown = true
		}
	}
	return maxPct, maxDur
}

// sharpeRatio is the mean/stddev of inter-point equity returns,
// annualised by sqrt(periodsPerYear/N), per spec.md section 4.8.
func sharpeRatio(curve []core.EquityPoint, periodsPerYear float64) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, ret := range returns {
		mean += ret
	}
	mean /= float64(len(returns))

	var variance float64
	for _, ret := range returns {
		diff := ret - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(periodsPerYear/float64(len(returns)))
}
