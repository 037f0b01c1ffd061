// Package position implements the ManagedPosition trailing-stop state
// machine, exit detection, and the position manager that mediates
// between the decision brain's TradePlans and the paper-fill simulator.
package position

import (
	"math"
	"time"

	"tradecore/internal/core"
	"tradecore/internal/logging"
)

// Simulator is the narrow surface the position manager needs from a
// fill engine: current balance for notional sizing, and open/close for
// the actual accounting.
type Simulator interface {
	Balance() float64
	Open(coin string, side core.Direction, size, price float64, t time.Time) (core.Position, error)
	Close(coin string, exitPrice float64, exitTime time.Time, reason string) (core.Trade, error)
}

// Manager tracks one ManagedPosition per coin and drives its
// trailing-stop state machine on each price tick.
type Manager struct {
	sim       Simulator
	positions map[string]*core.ManagedPosition
}

// NewManager creates a Manager delegating fills to sim.
func NewManager(sim Simulator) *Manager {
	return &Manager{sim: sim, positions: make(map[string]*core.ManagedPosition)}
}

// Open opens a new managed position from plan at the given price/time.
// Refuses with core.ErrInvalidPositionState if a position already
// exists for plan.Coin.
func (m *Manager) Open(plan core.TradePlan, price float64, t time.Time) (*core.ManagedPosition, error) {
	if _, exists := m.positions[plan.Coin]; exists {
		return nil, core.ErrInvalidPositionState
	}

	notional := m.sim.Balance() * plan.SizePct / 100
	size := notional / price

	pos, err := m.sim.Open(plan.Coin, plan.Action, size, price, t)
	if err != nil {
		return nil, err
	}

	mp := &core.ManagedPosition{
		Position:          pos,
		StopLoss:          plan.StopLoss,
		TakeProfit:        plan.TakeProfit,
		TrailActivation:   plan.TrailActivation,
		TrailDistancePct:  plan.TrailDistancePct,
		HighestPrice:      price,
		LowestPrice:       price,
		SignalsConsidered: plan.SignalsConsidered,
	}
	if plan.Action == core.Short {
		mp.TrailingStop = math.Inf(1)
	}
	m.positions[plan.Coin] = mp

	logging.PositionContext(plan.Coin, string(plan.Action), price, size).Info("position opened")
	return mp, nil
}

// Get returns the managed position for coin, if any.
func (m *Manager) Get(coin string) (*core.ManagedPosition, bool) {
	p, ok := m.positions[coin]
	return p, ok
}

// All returns every currently open managed position.
func (m *Manager) All() []*core.ManagedPosition {
	out := make([]*core.ManagedPosition, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	return out
}

// UpdatePrice advances one managed position's trailing-stop state
// machine for a new observed price, per spec.md section 4.6.
func UpdatePrice(p *core.ManagedPosition, price float64) {
	if p.Side == core.Long {
		updateLong(p, price)
	} else {
		updateShort(p, price)
	}
}

func updateLong(p *core.ManagedPosition, price float64) {
	if price > p.HighestPrice {
		p.HighestPrice = price
	}
	if !p.TrailingActive && price >= p.TrailActivation {
		p.TrailingActive = true
	}
	if p.TrailingActive {
		candidate := p.HighestPrice - price*p.TrailDistancePct/100
		if candidate > p.TrailingStop {
			p.TrailingStop = candidate
		}
	}
}

func updateShort(p *core.ManagedPosition, price float64) {
	if price < p.LowestPrice {
		p.LowestPrice = price
	}
	if !p.TrailingActive && price <= p.TrailActivation {
		p.TrailingActive = true
	}
	if p.TrailingActive {
		candidate := p.LowestPrice + price*p.TrailDistancePct/100
		if candidate < p.TrailingStop {
			p.TrailingStop = candidate
		}
	}
}

// ExitReason reports the exit trigger for p at price, or "" if none.
func ExitReason(p *core.ManagedPosition, price float64) string {
	if p.Side == core.Long {
		activeStop := p.StopLoss
		stopName := "stop_loss"
		if p.TrailingActive {
			activeStop = p.TrailingStop
			stopName = "trailing_stop"
		}
		switch {
		case price <= activeStop:
			return stopName
		case price >= p.TakeProfit:
			return "take_profit"
		default:
			return ""
		}
	}

	activeStop := p.StopLoss
	stopName := "stop_loss"
	if p.TrailingActive {
		activeStop = p.TrailingStop
		stopName = "trailing_stop"
	}
	switch {
	case price >= activeStop:
		return stopName
	case price <= p.TakeProfit:
		return "take_profit"
	default:
		return ""
	}
}

// CheckExits updates every managed position with its latest observed
// price (timestamped t, the event's own time — never wall-clock, so
// backtest and live runs replaying the same events stay deterministic)
// and closes any that have hit an exit condition, returning the
// resulting trades.
func (m *Manager) CheckExits(prices map[string]float64, t time.Time) ([]core.Trade, error) {
	var trades []core.Trade
	for coin, pos := range m.positions {
		price, ok := prices[coin]
		if !ok {
			continue
		}
		UpdatePrice(pos, price)
		reason := ExitReason(pos, price)
		if reason == "" {
			continue
		}
		trade, err := m.sim.Close(coin, price, t, reason)
		if err != nil {
			return trades, err
		}
		trade.SignalsConsidered = pos.SignalsConsidered
		delete(m.positions, coin)
		trades = append(trades, trade)
		logging.TradeContext(coin, string(pos.Side), trade.PnL, trade.FeesPaid).Info("position closed: " + reason)
	}
	return trades, nil
}

// CloseAll closes every open position at the given prices (end of
// backtest, or operator request). Coins with no price in prices are
// left open.
func (m *Manager) CloseAll(prices map[string]float64, t time.Time) ([]core.Trade, error) {
	var trades []core.Trade
	for coin, pos := range m.positions {
		price, ok := prices[coin]
		if !ok {
			continue
		}
		trade, err := m.sim.Close(coin, price, t, "close_all")
		if err != nil {
			return trades, err
		}
		trade.SignalsConsidered = pos.SignalsConsidered
		delete(m.positions, coin)
		trades = append(trades, trade)
	}
	return trades, nil
}
