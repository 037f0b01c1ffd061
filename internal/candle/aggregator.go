// Package candle turns a stream of trade ticks into fixed-interval OHLCV
// candles and keeps a bounded ring buffer of the finalised ones.
package candle

import (
	"fmt"
	"time"

	"tradecore/internal/core"
)

// Aggregator truncates ticks into candles of a fixed interval and appends
// finalised candles to a bounded ring buffer. One Aggregator serves one
// instrument; it is not safe for concurrent use, matching the
// single-writer-per-instrument scheduling model the pipeline assumes.
type Aggregator struct {
	interval    time.Duration
	maxCandles  int
	current     *core.Candle
	currentStart time.Time
	buffer      []core.Candle
}

// New builds an Aggregator with the given candle interval and ring buffer
// capacity.
func New(interval time.Duration, maxCandles int) *Aggregator {
	return &Aggregator{
		interval:   interval,
		maxCandles: maxCandles,
		buffer:     make([]core.Candle, 0, maxCandles),
	}
}

func (a *Aggregator) intervalStart(t time.Time) time.Time {
	n := t.UnixNano()
	step := a.interval.Nanoseconds()
	floored := (n / step) * step
	return time.Unix(0, floored).UTC()
}

// AddTick folds one tick into the in-progress candle, finalising and
// returning the previous candle when the tick crosses into a new interval.
// A tick earlier than the current interval start is ErrTickOutOfOrder.
func (a *Aggregator) AddTick(price, volume float64, now time.Time) (core.Candle, bool, error) {
	start := a.intervalStart(now)

	if a.current == nil {
		a.openCandle(start, price)
		a.update(price, volume)
		return core.Candle{}, false, nil
	}

	if start.Before(a.currentStart) {
		return core.Candle{}, false, fmt.Errorf("tick at %s before interval start %s: %w", now, a.currentStart, core.ErrTickOutOfOrder)
	}

	if start.After(a.currentStart) {
		finalised := *a.current
		a.append(finalised)
		a.openCandle(start, price)
		a.update(price, volume)
		return finalised, true, nil
	}

	a.update(price, volume)
	return core.Candle{}, false, nil
}

func (a *Aggregator) openCandle(start time.Time, price float64) {
	a.currentStart = start
	a.current = &core.Candle{
		Timestamp: start,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
	}
}

func (a *Aggregator) update(price, volume float64) {
	if price > a.current.High {
		a.current.High = price
	}
	if price < a.current.Low {
		a.current.Low = price
	}
	a.current.Close = price
	a.current.Volume += volume
	a.current.TradeCount++
}

func (a *Aggregator) append(c core.Candle) {
	a.buffer = append(a.buffer, c)
	if len(a.buffer) > a.maxCandles {
		a.buffer = a.buffer[len(a.buffer)-a.maxCandles:]
	}
}

// AddCandle appends an already-finalised candle directly to the ring
// buffer, for event sources that yield pre-formed OHLCV bars (PriceUpdate)
// instead of raw ticks. c.Timestamp must not be before the current buffer's
// last entry; an out-of-order candle is core.ErrTickOutOfOrder.
func (a *Aggregator) AddCandle(c core.Candle) error {
	if len(a.buffer) > 0 && c.Timestamp.Before(a.buffer[len(a.buffer)-1].Timestamp) {
		return fmt.Errorf("candle at %s before last buffered candle %s: %w", c.Timestamp, a.buffer[len(a.buffer)-1].Timestamp, core.ErrTickOutOfOrder)
	}
	a.append(c)
	return nil
}

// CurrentCandle returns the in-progress (not yet finalised) candle, if any.
func (a *Aggregator) CurrentCandle() (core.Candle, bool) {
	if a.current == nil {
		return core.Candle{}, false
	}
	return *a.current, true
}

// Candles returns the finalised candle buffer, oldest first.
func (a *Aggregator) Candles() []core.Candle {
	return a.buffer
}
