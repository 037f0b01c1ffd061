// Package orchestrator implements TradingCore, the per-instrument event
// loop from spec.md section 4.8: it owns the candle buffer, the Volume
// Profile builder, every detector, the signal aggregator/validator, the
// decision brain, the position manager and the paper-fill simulator, and
// drives them in lockstep as market events arrive. One Core serves one
// instrument and is not safe for concurrent use, matching the
// single-writer-per-instrument scheduling model the rest of the pipeline
// assumes.
package orchestrator

import (
	"context"
	"time"

	"tradecore/internal/brain"
	"tradecore/internal/candle"
	"tradecore/internal/config"
	"tradecore/internal/core"
	"tradecore/internal/detectors"
	"tradecore/internal/indicators"
	"tradecore/internal/logging"
	"tradecore/internal/metrics"
	"tradecore/internal/oracle"
	"tradecore/internal/position"
	"tradecore/internal/signals"
	"tradecore/internal/simulator"
	"tradecore/internal/volume"
)

const valueAreaPct = 0.7

// atrPeriod is the ATR lookback used for each decision's market context.
const atrPeriod = 14

// Core is TradingCore for one instrument.
type Core struct {
	coin string
	cfg  config.Config

	candles    *candle.Aggregator
	vpBuilder  *volume.Builder
	vpDetector *detectors.VolumeProfile
	prevDayVP  *detectors.PrevDayVP

	aggregator *signals.Aggregator
	validator  *signals.Validator
	brain      *brain.Brain
	positions  *position.Manager
	sim        *simulator.Simulator
	metrics    *metrics.Metrics

	lastAppliedPrevSession time.Time
	candlesSinceEquity     int
	equityCurve            []core.EquityPoint
}

// New wires one instrument's full pipeline. tickSize buckets the Volume
// Profile builder (instrument-specific, e.g. 0.5 for BTC); m may be nil to
// disable metrics.
func New(coin string, strategy core.Strategy, cfg config.Config, tickSize float64, sim *simulator.Simulator, confirm oracle.ConfirmationOracle, m *metrics.Metrics) *Core {
	vpDetector := detectors.NewVolumeProfile(detectors.DefaultVolumeProfileConfig())
	prevDayVP := detectors.NewPrevDayVP(detectors.DefaultPrevDayVPConfig())
	macdCfg := detectors.DefaultMACDConfig()
	macdCfg.MinHistogram = strategy.MACDMinHistogram
	dets := []detectors.Detector{
		detectors.NewMomentum(detectors.DefaultMomentumConfig()),
		detectors.NewRSI(detectors.DefaultRSIConfig()),
		detectors.NewMACD(macdCfg),
		vpDetector,
		prevDayVP,
	}

	return &Core{
		coin:       coin,
		cfg:        cfg,
		candles:    candle.New(time.Duration(cfg.Pipeline.CandleIntervalSeconds)*time.Second, cfg.Pipeline.MaxCandles),
		vpBuilder:  volume.NewBuilder(tickSize, volume.SessionDaily, coin),
		vpDetector: vpDetector,
		prevDayVP:  prevDayVP,
		aggregator: signals.New(dets, signals.Config{
			MaxSignals:       cfg.Aggregator.MaxSignals,
			SignalTTLSeconds: cfg.Aggregator.SignalTTLSeconds,
		}),
		validator: signals.NewValidator(signals.ValidatorConfig{
			MinAccuracy:     cfg.Validator.MinAccuracy,
			MinSamples:      cfg.Validator.MinSamples,
			TrackByStrength: cfg.Validator.TrackByStrength,
		}),
		brain:     brain.New(strategy, confirm, m),
		positions: position.NewManager(sim),
		sim:       sim,
		metrics:   m,
	}
}

// OnTradeTick folds a trade tick into the Volume Profile builder and the
// candle aggregator, running the rest of the pipeline whenever the tick
// finalises a candle.
func (c *Core) OnTradeTick(ctx context.Context, t core.TradeTick) error {
	c.vpBuilder.AddTrade(t)

	finalised, ok, err := c.candles.AddTick(t.Price, t.Size, t.Timestamp)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return c.onCandleClosed(ctx, finalised)
}

// OnPriceUpdate ingests an already-formed OHLCV bar from an event source
// that aggregates ticks upstream.
func (c *Core) OnPriceUpdate(ctx context.Context, pu core.PriceUpdate) error {
	cd := core.Candle{
		Timestamp: pu.Timestamp,
		Open:      pu.Open,
		High:      pu.High,
		Low:       pu.Low,
		Close:     pu.Close,
		Volume:    pu.Volume,
	}
	if err := c.candles.AddCandle(cd); err != nil {
		return err
	}
	return c.onCandleClosed(ctx, cd)
}

func (c *Core) onCandleClosed(ctx context.Context, cd core.Candle) error {
	c.vpDetector.UpdateProfile(c.vpBuilder.Profile())
	c.applyPrevDaySessionLevels()

	candles := c.candles.Candles()
	if len(candles) >= c.cfg.Pipeline.MinCandlesForSignals {
		if err := c.evaluateSignals(ctx, candles, cd); err != nil {
			return err
		}
	}

	return c.checkExitsAndRecordEquity(cd)
}

// applyPrevDaySessionLevels pushes yesterday's POC/VAH/VAL into the
// PrevDayVP detector exactly once per completed session, as the detector
// itself expects ("computed once per session boundary by the
// orchestrator" — see detectors.PrevDayLevels).
func (c *Core) applyPrevDaySessionLevels() {
	prev, ok := c.vpBuilder.LastCompletedSession()
	if !ok || prev.SessionEnd.Equal(c.lastAppliedPrevSession) {
		return
	}
	poc, _ := volume.POC(prev)
	val, vah, _ := volume.ValueArea(prev, valueAreaPct)
	c.prevDayVP.SetPrevDayLevels(detectors.PrevDayLevels{POC: poc, VAH: vah, VAL: val})
	c.lastAppliedPrevSession = prev.SessionEnd
}

func (c *Core) evaluateSignals(ctx context.Context, candles []core.Candle, cd core.Candle) error {
	emitted := c.aggregator.ProcessCandle(c.coin, candles)

	var passed []core.Signal
	for _, s := range emitted {
		if !c.validator.ShouldPass(s) {
			continue
		}
		passed = append(passed, s)
		if c.metrics != nil {
			c.metrics.SignalsEmitted.WithLabelValues(string(s.SignalType), string(s.Direction)).Inc()
		}
	}

	if len(passed) == 0 {
		return nil
	}
	if _, open := c.positions.Get(c.coin); open {
		return nil
	}

	atr, _ := indicators.ATR(candles, atrPeriod)
	marketCtx := core.NewMarketContext(c.coin, cd.Close, atr)
	plan := c.brain.Evaluate(ctx, passed, openPositions(c.positions.All()), marketCtx)
	if !plan.IsActionable() {
		return nil
	}

	if _, err := c.positions.Open(plan, cd.Close, cd.Timestamp); err != nil {
		// InsufficientBalance/PositionTooLarge are skipped opportunities,
		// not fatal errors, per spec.md section 7.
		logging.FromContext(ctx).Warn("skipped trade plan: " + err.Error())
	}
	return nil
}

func (c *Core) checkExitsAndRecordEquity(cd core.Candle) error {
	prices := map[string]float64{c.coin: cd.Close}

	trades, err := c.positions.CheckExits(prices, cd.Timestamp)
	if err != nil {
		return err
	}
	if c.metrics != nil {
		for _, tr := range trades {
			c.metrics.TradesClosed.WithLabelValues(tr.ExitReason, string(tr.Side)).Inc()
		}
		c.metrics.PositionsOpen.Set(float64(len(c.positions.All())))
	}

	c.candlesSinceEquity++
	if c.candlesSinceEquity >= c.cfg.Pipeline.EquityRecordEveryN {
		c.recordEquityPoint(prices, cd.Timestamp)
		c.candlesSinceEquity = 0
	}
	return nil
}

func (c *Core) recordEquityPoint(prices map[string]float64, t time.Time) {
	equity := c.sim.Equity(prices)
	balance := c.sim.Balance()
	c.equityCurve = append(c.equityCurve, core.EquityPoint{
		Timestamp:      t,
		Equity:         equity,
		Balance:        balance,
		PositionsValue: equity - balance,
	})
	if c.metrics != nil {
		c.metrics.Equity.Set(equity)
	}
}

// Shutdown closes every open position at the given last-observed prices
// and records a final equity point, per spec.md section 5's cancellation
// contract.
func (c *Core) Shutdown(prices map[string]float64, t time.Time) ([]core.Trade, error) {
	trades, err := c.positions.CloseAll(prices, t)
	if err != nil {
		return trades, err
	}
	if c.metrics != nil {
		for _, tr := range trades {
			c.metrics.TradesClosed.WithLabelValues(tr.ExitReason, string(tr.Side)).Inc()
		}
		c.metrics.PositionsOpen.Set(0)
	}
	c.recordEquityPoint(prices, t)
	return trades, nil
}

// EquityCurve returns every equity point recorded so far, oldest first.
func (c *Core) EquityCurve() []core.EquityPoint {
	out := make([]core.EquityPoint, len(c.equityCurve))
	copy(out, c.equityCurve)
	return out
}

// TradeHistory returns every trade closed so far, oldest first.
func (c *Core) TradeHistory() []core.Trade {
	return c.sim.TradeHistory()
}

func openPositions(managed []*core.ManagedPosition) []core.Position {
	out := make([]core.Position, len(managed))
	for i, mp := range managed {
		out[i] = mp.Position
	}
	return out
}
