// Package signals batches detector output into a time-windowed history
// (Aggregator) and tracks each detector's predictive accuracy
// (Validator), matching the orchestrator's per-instrument event loop.
package signals

import (
	"time"

	"tradecore/internal/core"
	"tradecore/internal/detectors"
)

// Config controls how much signal history the Aggregator retains.
type Config struct {
	MaxSignals       int
	SignalTTLSeconds int
}

// DefaultConfig matches the upstream aggregator's documented defaults.
func DefaultConfig() Config {
	return Config{MaxSignals: 1000, SignalTTLSeconds: 300}
}

// Aggregator runs a fixed set of detectors against new candles and keeps
// a bounded, time-windowed history of what they emit.
type Aggregator struct {
	detectors []detectors.Detector
	cfg       Config

	signals []core.Signal
	pending []core.Signal
}

// New creates an Aggregator driving the given detectors in order.
func New(dets []detectors.Detector, cfg Config) *Aggregator {
	return &Aggregator{detectors: dets, cfg: cfg}
}

// ProcessCandle runs every detector against the candle buffer and records
// whatever they emit into both the bounded history and the pending queue.
func (a *Aggregator) ProcessCandle(coin string, candles []core.Candle) []core.Signal {
	var emitted []core.Signal
	for _, d := range a.detectors {
		sig, ok := d.Detect(coin, candles)
		if !ok {
			continue
		}
		a.signals = append(a.signals, sig)
		if len(a.signals) > a.cfg.MaxSignals {
			a.signals = a.signals[len(a.signals)-a.cfg.MaxSignals:]
		}
		a.pending = append(a.pending, sig)
		emitted = append(emitted, sig)
	}
	return emitted
}

// GetPendingSignals drains the pending queue, returning only signals
// timestamped within windowSeconds of now. The entire queue is cleared
// regardless of how many pass the window filter.
func (a *Aggregator) GetPendingSignals(now time.Time, windowSeconds int) []core.Signal {
	if len(a.pending) == 0 {
		return nil
	}
	cutoff := now.Add(-time.Duration(windowSeconds) * time.Second)
	var valid []core.Signal
	for _, s := range a.pending {
		if !s.Timestamp.Before(cutoff) {
			valid = append(valid, s)
		}
	}
	a.pending = nil
	return valid
}

// GetRecentSignals returns a non-draining, filtered view of signal
// history within windowSeconds of now. coin/signalType filters are
// skipped when nil.
func (a *Aggregator) GetRecentSignals(now time.Time, windowSeconds int, coin *string, signalType *core.SignalType) []core.Signal {
	cutoff := now.Add(-time.Duration(windowSeconds) * time.Second)
	var out []core.Signal
	for _, s := range a.signals {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		if coin != nil && s.Coin != *coin {
			continue
		}
		if signalType != nil && s.SignalType != *signalType {
			continue
		}
		out = append(out, s)
	}
	return out
}

// HasConflictingSignals reports whether both LONG and SHORT signals for
// coin exist within the window.
func (a *Aggregator) HasConflictingSignals(coin string, now time.Time, windowSeconds int) bool {
	signals := a.GetRecentSignals(now, windowSeconds, &coin, nil)
	var hasLong, hasShort bool
	for _, s := range signals {
		switch s.Direction {
		case core.Long:
			hasLong = true
		case core.Short:
			hasShort = true
		}
	}
	return hasLong && hasShort
}

// timingWeight discounts very fresh signals (confirmatory, not
// predictive) and decays stale ones, peaking in the 15-90s window.
func timingWeight(ageSeconds float64) float64 {
	switch {
	case ageSeconds < 15:
		return 0.5 + ageSeconds/30
	case ageSeconds < 90:
		return 1.0
	default:
		factor := 1.0 - (ageSeconds-90)/180
		if factor < 0.3 {
			factor = 0.3
		}
		return factor
	}
}

func weightedStrength(s core.Signal, now time.Time) float64 {
	age := now.Sub(s.Timestamp).Seconds()
	return s.Strength * timingWeight(age)
}

// GetConsensusDirection returns the direction (LONG or SHORT) with the
// larger total timing-weighted strength within the window. Returns
// ok=false when there are no signals or the two sides tie exactly.
func (a *Aggregator) GetConsensusDirection(coin string, now time.Time, windowSeconds int) (core.Direction, bool) {
	signals := a.GetRecentSignals(now, windowSeconds, &coin, nil)
	if len(signals) == 0 {
		return "", false
	}

	var longStrength, shortStrength float64
	for _, s := range signals {
		w := weightedStrength(s, now)
		switch s.Direction {
		case core.Long:
			longStrength += w
		case core.Short:
			shortStrength += w
		}
	}

	switch {
	case longStrength > shortStrength:
		return core.Long, true
	case shortStrength > longStrength:
		return core.Short, true
	default:
		return "", false
	}
}

// ClearOldSignals evicts history entries older than SignalTTLSeconds and
// returns the number removed.
func (a *Aggregator) ClearOldSignals(now time.Time) int {
	cutoff := now.Add(-time.Duration(a.cfg.SignalTTLSeconds) * time.Second)
	before := len(a.signals)
	kept := a.signals[:0:0]
	for _, s := range a.signals {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	a.signals = kept
	return before - len(a.signals)
}

// Reset clears history and pending signals for one coin, and resets
// every underlying detector's state for that coin.
func (a *Aggregator) Reset(coin string) {
	a.signals = filterOutCoin(a.signals, coin)
	a.pending = filterOutCoin(a.pending, coin)
	for _, d := range a.detectors {
		d.Reset(coin)
	}
}

// ResetAll clears all aggregator and detector state.
func (a *Aggregator) ResetAll() {
	a.signals = nil
	a.pending = nil
	for _, d := range a.detectors {
		d.ResetAll()
	}
}

func filterOutCoin(signals []core.Signal, coin string) []core.Signal {
	var out []core.Signal
	for _, s := range signals {
		if s.Coin != coin {
			out = append(out, s)
		}
	}
	return out
}

// TotalSignals returns the number of signals retained in history.
func (a *Aggregator) TotalSignals() int { return len(a.signals) }

// PendingCount returns the number of signals awaiting a GetPendingSignals drain.
func (a *Aggregator) PendingCount() int { return len(a.pending) }
