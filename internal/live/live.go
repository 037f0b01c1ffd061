// Package live is the channel-fed event pump driver for live execution:
// it wires an orchestrator.Core to an in-process channel of market
// events and pumps them one at a time until the channel closes or the
// context is cancelled, per spec.md section 2's "Backtest/Live drivers"
// glue. It carries no exchange or WebSocket client — wiring a real feed
// means sending core.PriceUpdate/core.TradeTick values onto the channel
// this package consumes.
package live

import (
	"context"
	"time"

	"tradecore/internal/core"
	"tradecore/internal/logging"
	"tradecore/internal/metrics"
	"tradecore/internal/orchestrator"
)

// Event is one item from a live feed: exactly one of Price or Tick is
// meaningful, selected by Kind, matching backtest.Event's shape so both
// drivers feed the same orchestrator.Core wiring.
type Event struct {
	Kind  EventKind
	Price core.PriceUpdate
	Tick  core.TradeTick
}

// EventKind discriminates Event's payload.
type EventKind int

const (
	PriceEvent EventKind = iota
	TickEvent
)

// Driver pumps Events from a channel into an orchestrator.Core until the
// channel closes or its context is cancelled.
type Driver struct {
	tc      *orchestrator.Core
	metrics *metrics.Metrics
}

// New wires a Driver around an already-constructed orchestrator.Core. m
// may be nil.
func New(tc *orchestrator.Core, m *metrics.Metrics) *Driver {
	return &Driver{tc: tc, metrics: m}
}

// Run consumes events until the channel closes or ctx is cancelled.
// On cancellation it performs the shutdown contract from spec.md
// section 5: stop pumping, close every open position at lastPrices
// (the most recently observed mark per coin), and return the resulting
// trades. A cancelled run is not an error; a pipeline error from an
// in-flight event is.
func (d *Driver) Run(ctx context.Context, events <-chan Event, lastPrices func() map[string]float64) ([]core.Trade, error) {
	log := logging.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("live driver cancelled, closing all positions")
			return d.shutdown(lastPrices(), time.Now())

		case ev, ok := <-events:
			if !ok {
				log.Info("live event source closed, closing all positions")
				return d.shutdown(lastPrices(), time.Now())
			}
			if err := d.dispatch(ctx, ev); err != nil {
				return nil, err
			}
		}
	}
}

func (d *Driver) dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case PriceEvent:
		return d.tc.OnPriceUpdate(ctx, ev.Price)
	case TickEvent:
		return d.tc.OnTradeTick(ctx, ev.Tick)
	default:
		return nil
	}
}

// shutdown delegates to orchestrator.Core.Shutdown, which already
// updates metrics.PositionsOpen/TradesClosed when the Core was built
// with a non-nil *metrics.Metrics; d.metrics is reserved for pump-level
// counters (e.g. a future reconnect/cancellation counter) and is not
// yet exercised.
func (d *Driver) shutdown(lastPrices map[string]float64, t time.Time) ([]core.Trade, error) {
	return d.tc.Shutdown(lastPrices, t)
}
