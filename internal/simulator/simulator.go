// Package simulator implements the paper-fill engine: a balance-sheet
// of cash, open positions, and closed trade history, fed buy/sell fills
// by the position manager instead of a real exchange. It satisfies
// position.Simulator.
package simulator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tradecore/internal/core"
	"tradecore/internal/logging"
)

// FeeSchedule is the maker/taker rate pair charged on notional value.
// A negative rate is a rebate: it adds to balance instead of subtracting.
type FeeSchedule struct {
	MakerRate float64
	TakerRate float64
}

// Fee returns the signed fee for a fill of the given notional value.
// Negative means rebate.
func (f FeeSchedule) Fee(notional float64, isMaker bool) float64 {
	rate := f.TakerRate
	if isMaker {
		rate = f.MakerRate
	}
	return notional * rate
}

// HyperliquidFees is the default schedule: takers pay 5bps, makers earn
// a 2bps rebate.
var HyperliquidFees = FeeSchedule{MakerRate: -0.0002, TakerRate: 0.0005}

// Config governs the simulator's starting state and risk limits.
type Config struct {
	StartingBalance    float64
	Fees               FeeSchedule
	MaxPositionSizePct float64 // fraction of balance, e.g. 0.25
	Leverage           float64 // assumed available leverage, e.g. 10
}

// DefaultConfig mirrors the paper trader's defaults: $10,000 starting
// balance, Hyperliquid fees, 25% max position size at 10x leverage.
func DefaultConfig() Config {
	return Config{
		StartingBalance:    10000,
		Fees:               HyperliquidFees,
		MaxPositionSizePct: 0.25,
		Leverage:           10,
	}
}

// Simulator is a paper-fill engine. All fills are market orders
// (is_maker=false) unless OpenMaker/CloseMaker are used.
type Simulator struct {
	cfg Config

	mu        sync.RWMutex
	balance   float64
	positions map[string]core.Position
	trades    []core.Trade
	totalFees float64
}

// New creates a Simulator starting at cfg.StartingBalance.
func New(cfg Config) *Simulator {
	return &Simulator{
		cfg:       cfg,
		balance:   cfg.StartingBalance,
		positions: make(map[string]core.Position),
	}
}

// Balance returns the current cash balance (excludes unrealized P&L).
func (s *Simulator) Balance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// Open opens a market-order position for coin. Refuses with
// core.ErrInvalidPositionState if a position is already open for coin,
// core.ErrInsufficientBalance if margin plus fee exceeds balance, or
// core.ErrPositionTooLarge if notional exceeds the configured cap.
func (s *Simulator) Open(coin string, side core.Direction, size, price float64, t time.Time) (core.Position, error) {
	return s.open(coin, side, size, price, t, false)
}

// OpenMaker is Open for a simulated limit-order fill, earning the
// maker rate (a rebate under the default fee schedule) instead of
// paying the taker rate.
func (s *Simulator) OpenMaker(coin string, side core.Direction, size, price float64, t time.Time) (core.Position, error) {
	return s.open(coin, side, size, price, t, true)
}

func (s *Simulator) open(coin string, side core.Direction, size, price float64, t time.Time, isMaker bool) (core.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.positions[coin]; exists {
		return core.Position{}, core.ErrInvalidPositionState
	}

	notional := size * price
	fee := s.cfg.Fees.Fee(notional, isMaker)

	requiredMargin := notional * 0.1
	totalRequired := requiredMargin + maxFloat(fee, 0)
	if totalRequired > s.balance {
		return core.Position{}, core.ErrInsufficientBalance
	}

	maxNotional := s.balance * s.cfg.MaxPositionSizePct * s.cfg.Leverage
	if notional > maxNotional {
		return core.Position{}, core.ErrPositionTooLarge
	}

	pos := core.Position{
		ID:         uuid.New().String(),
		Coin:       coin,
		Side:       side,
		Size:       size,
		EntryPrice: price,
		EntryTime:  t,
	}
	s.positions[coin] = pos
	s.balance -= fee
	s.totalFees += fee

	return pos, nil
}

// Close closes the open position for coin at exitPrice with a market
// order, returning the resulting trade. Close on a coin with no open
// position is a no-op error, not a panic: callers (position.Manager)
// only call Close for coins they believe are open, but a defensive
// check keeps the ledger consistent if that invariant is ever violated.
func (s *Simulator) Close(coin string, exitPrice float64, exitTime time.Time, reason string) (core.Trade, error) {
	return s.close(coin, exitPrice, exitTime, reason, false)
}

// CloseMaker is Close for a simulated limit-order fill.
func (s *Simulator) CloseMaker(coin string, exitPrice float64, exitTime time.Time, reason string) (core.Trade, error) {
	return s.close(coin, exitPrice, exitTime, reason, true)
}

func (s *Simulator) close(coin string, exitPrice float64, exitTime time.Time, reason string, isMaker bool) (core.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.positions[coin]
	if !exists {
		return core.Trade{}, core.ErrInvalidPositionState
	}

	rawPnL := unrealizedPnL(pos, exitPrice)
	notional := pos.Size * exitPrice
	fee := s.cfg.Fees.Fee(notional, isMaker)
	netPnL := rawPnL - fee

	trade := core.Trade{
		ID:         uuid.New().String(),
		Coin:       coin,
		Side:       pos.Side,
		Size:       pos.Size,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		EntryTime:  pos.EntryTime,
		ExitTime:   exitTime,
		PnL:        netPnL,
		FeesPaid:   fee,
		ExitReason: reason,
	}

	delete(s.positions, coin)
	s.balance += netPnL
	s.totalFees += fee
	s.trades = append(s.trades, trade)

	logging.TradeContext(coin, string(pos.Side), netPnL, fee).Debug("trade settled: " + reason)
	return trade, nil
}

// Equity returns balance plus the sum of unrealized P&L across open
// positions, using prices for the coins present there. A position
// whose coin is missing from prices is valued at its entry price.
func (s *Simulator) Equity(prices map[string]float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	equity := s.balance
	for coin, pos := range s.positions {
		price, ok := prices[coin]
		if !ok {
			price = pos.EntryPrice
		}
		equity += unrealizedPnL(pos, price)
	}
	return equity
}

// TotalFees returns the cumulative signed fees paid (negative values
// reflect net rebates).
func (s *Simulator) TotalFees() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalFees
}

// TradeHistory returns every trade closed so far, oldest first.
func (s *Simulator) TradeHistory() []core.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// Reset restores the simulator to its starting balance with no open
// positions or trade history.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = s.cfg.StartingBalance
	s.positions = make(map[string]core.Position)
	s.trades = nil
	s.totalFees = 0
}

func unrealizedPnL(pos core.Position, price float64) float64 {
	diff := price - pos.EntryPrice
	if pos.Side == core.Short {
		diff = -diff
	}
	return diff * pos.Size
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
