// Package volume builds and analyses Volume Profiles: bucketed
// buy/sell volume aggregation over a trading session, plus the pure
// functions (POC, Value Area, HVN/LVN, delta) derived from one.
package volume

import (
	"sort"
	"time"

	"tradecore/internal/core"
)

// SessionType controls how Builder resets its accumulated levels.
type SessionType string

const (
	SessionDaily   SessionType = "daily"
	SessionRolling SessionType = "rolling"
	SessionCustom  SessionType = "custom"
)

// Profile is a completed or in-progress Volume Profile for one session.
// Invariant: SessionStart <= SessionEnd, TickSize > 0.
type Profile struct {
	Coin         string
	TickSize     float64
	SessionStart time.Time
	SessionEnd   time.Time
	Levels       map[float64]core.VolumeAtPrice
}

// TotalVolume sums total_volume across every bucket.
func (p Profile) TotalVolume() float64 {
	var sum float64
	for _, lvl := range p.Levels {
		sum += lvl.TotalVolume
	}
	return sum
}

// TotalDelta sums delta across every bucket.
func (p Profile) TotalDelta() float64 {
	var sum float64
	for _, lvl := range p.Levels {
		sum += lvl.Delta()
	}
	return sum
}

// VolumeAt returns the total volume at a price, rounding to the nearest
// tick_size bucket first. Returns 0 if the bucket is unpopulated.
func (p Profile) VolumeAt(price float64) float64 {
	return p.Levels[bucket(price, p.TickSize)].TotalVolume
}

// DeltaAt returns the delta at a price's bucket. Returns 0 if unpopulated.
func (p Profile) DeltaAt(price float64) float64 {
	return p.Levels[bucket(price, p.TickSize)].Delta()
}

// IsEmpty reports whether the profile has no populated buckets.
func (p Profile) IsEmpty() bool { return len(p.Levels) == 0 }

// SortedPrices returns the populated bucket prices in ascending order.
func (p Profile) SortedPrices() []float64 {
	prices := make([]float64, 0, len(p.Levels))
	for price := range p.Levels {
		prices = append(prices, price)
	}
	sort.Float64s(prices)
	return prices
}

func bucket(price, tickSize float64) float64 {
	return roundHalfAwayFromZero(price/tickSize) * tickSize
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return float64(int64(x - 0.5))
}

// Builder accumulates trade ticks into a Profile, bucketing by tick size
// and resetting at session boundaries.
type Builder struct {
	tickSize    float64
	sessionType SessionType
	coin        string

	levels       map[float64]core.VolumeAtPrice
	sessionStart time.Time
	sessionEnd   time.Time
	hasSession   bool

	lastCompleted    Profile
	hasLastCompleted bool
}

// NewBuilder creates a Builder for the given tick size, session policy and
// coin. tickSize must be > 0.
func NewBuilder(tickSize float64, sessionType SessionType, coin string) *Builder {
	return &Builder{
		tickSize:    tickSize,
		sessionType: sessionType,
		coin:        coin,
		levels:      make(map[float64]core.VolumeAtPrice),
	}
}

// AddTrade folds one trade tick into the accumulating profile. For
// SessionDaily builders, a tick that falls on a later UTC calendar day
// than the current session resets the session first.
func (b *Builder) AddTrade(t core.TradeTick) {
	if b.sessionType == SessionDaily {
		b.checkDailyBoundary(t.Timestamp)
	}
	if !b.hasSession {
		b.sessionStart = t.Timestamp
		b.hasSession = true
	}
	b.sessionEnd = t.Timestamp

	price := bucket(t.Price, b.tickSize)
	lvl := b.levels[price]
	lvl.Price = price
	lvl.TotalVolume += t.Size
	if t.Side == core.SideAggressorBuy {
		lvl.BuyVolume += t.Size
	} else {
		lvl.SellVolume += t.Size
	}
	b.levels[price] = lvl
}

func (b *Builder) checkDailyBoundary(ts time.Time) {
	if !b.hasSession {
		return
	}
	cy, cm, cd := ts.UTC().Date()
	sy, sm, sd := b.sessionStart.UTC().Date()
	if cy != sy || cm != sm || cd != sd {
		b.ResetSession(time.Date(cy, cm, cd, 0, 0, 0, 0, time.UTC))
	}
}

// Profile returns a snapshot of the current accumulating session.
func (b *Builder) Profile() Profile {
	start, end := b.sessionStart, b.sessionEnd
	if !b.hasSession {
		start, end = time.Time{}, time.Time{}
	}
	return Profile{
		Coin:         b.coin,
		TickSize:     b.tickSize,
		SessionStart: start,
		SessionEnd:   end,
		Levels:       copyLevels(b.levels),
	}
}

// ResetSession clears accumulated levels and starts a new session at
// sessionStart (zero value means "unset, takes the next trade's time").
// Returns a snapshot of the session that just ended.
func (b *Builder) ResetSession(sessionStart time.Time) Profile {
	previous := b.Profile()
	b.levels = make(map[float64]core.VolumeAtPrice)
	b.sessionStart = sessionStart
	b.sessionEnd = time.Time{}
	b.hasSession = !sessionStart.IsZero()
	b.lastCompleted = previous
	b.hasLastCompleted = true
	return previous
}

// LastCompletedSession returns the snapshot of the most recent session to
// end (via a daily boundary crossing or an explicit ResetSession call),
// for PrevDayVP-style detectors that need yesterday's levels. ok is false
// before any session has completed.
func (b *Builder) LastCompletedSession() (Profile, bool) {
	return b.lastCompleted, b.hasLastCompleted
}

func copyLevels(src map[float64]core.VolumeAtPrice) map[float64]core.VolumeAtPrice {
	dst := make(map[float64]core.VolumeAtPrice, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
