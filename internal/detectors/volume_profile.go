package detectors

import (
	"tradecore/internal/core"
	"tradecore/internal/volume"
)

// VolumeProfileConfig configures the current-session Volume Profile
// detector's setups and thresholds.
type VolumeProfileConfig struct {
	VABufferPct       float64
	BreakoutCandles   int
	RejectionLookback int
	DeltaThresholdPct float64
	MinStrength       float64
	CooldownCandles   int
}

// DefaultVolumeProfileConfig matches the upstream strategy defaults.
func DefaultVolumeProfileConfig() VolumeProfileConfig {
	return VolumeProfileConfig{
		VABufferPct:       0.001,
		BreakoutCandles:   3,
		RejectionLookback: 5,
		DeltaThresholdPct: 30,
		MinStrength:       0.4,
		CooldownCandles:   5,
	}
}

// VolumeProfile detects failed-auction, VA-breakout, POC-bounce, and
// delta-divergence setups against an externally supplied Volume Profile.
// UpdateProfile must be called with fresh data before Detect can fire.
type VolumeProfile struct {
	cfg     VolumeProfileConfig
	profile *volume.Profile

	lastSignalCandle map[string]int
	candleCount      map[string]int
}

// NewVolumeProfile creates a VolumeProfile detector with the given config.
func NewVolumeProfile(cfg VolumeProfileConfig) *VolumeProfile {
	return &VolumeProfile{
		cfg:              cfg,
		lastSignalCandle: make(map[string]int),
		candleCount:      make(map[string]int),
	}
}

// UpdateProfile sets the current-session profile used by Detect.
func (d *VolumeProfile) UpdateProfile(p volume.Profile) { d.profile = &p }

// Detect implements Detector.
func (d *VolumeProfile) Detect(coin string, candles []core.Candle) (core.Signal, bool) {
	if d.profile == nil || len(candles) < d.cfg.RejectionLookback {
		return core.Signal{}, false
	}

	d.candleCount[coin]++
	if last, fired := d.lastSignalCandle[coin]; fired && d.candleCount[coin]-last < d.cfg.CooldownCandles {
		return core.Signal{}, false
	}

	vaLow, vaHigh, ok := volume.ValueArea(*d.profile, 0.70)
	if !ok {
		return core.Signal{}, false
	}
	poc, ok := volume.POC(*d.profile)
	if !ok {
		return core.Signal{}, false
	}

	current := candles[len(candles)-1]
	buffer := current.Close * d.cfg.VABufferPct

	checks := []func() (core.Signal, bool){
		func() (core.Signal, bool) { return d.checkFailedAuctionLow(coin, candles, vaLow, vaHigh, poc, buffer) },
		func() (core.Signal, bool) { return d.checkFailedAuctionHigh(coin, candles, vaLow, vaHigh, poc, buffer) },
		func() (core.Signal, bool) { return d.checkBreakoutUp(coin, candles, vaLow, vaHigh, poc, buffer) },
		func() (core.Signal, bool) { return d.checkBreakoutDown(coin, candles, vaLow, vaHigh, poc, buffer) },
		func() (core.Signal, bool) { return d.checkPOCBounce(coin, candles, poc, buffer) },
		func() (core.Signal, bool) { return d.checkDeltaDivergence(coin, candles) },
	}
	for _, check := range checks {
		if sig, ok := check(); ok {
			d.lastSignalCandle[coin] = d.candleCount[coin]
			return sig, true
		}
	}
	return core.Signal{}, false
}

func (d *VolumeProfile) checkFailedAuctionLow(coin string, candles []core.Candle, vaLow, vaHigh, poc, buffer float64) (core.Signal, bool) {
	recent := lastN(candles, d.cfg.RejectionLookback)
	wentBelow := false
	lowest := recent[0].Low
	for _, c := range recent[:len(recent)-1] {
		if c.Low < vaLow-buffer {
			wentBelow = true
		}
	}
	for _, c := range recent {
		if c.Low < lowest {
			lowest = c.Low
		}
	}
	current := candles[len(candles)-1]
	closedInside := current.Close > vaLow+buffer
	if !wentBelow || !closedInside {
		return core.Signal{}, false
	}

	vaRange := vaRangeOrOne(vaLow, vaHigh)
	strength := clamp((current.Close-lowest)/vaRange, 0, 1)
	if strength < d.cfg.MinStrength {
		return core.Signal{}, false
	}
	return core.Signal{
		Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Long,
		Strength: strength, Timestamp: current.Timestamp,
		Metadata: map[string]any{"setup": "failed_auction_low", "va_low": vaLow, "va_high": vaHigh, "poc": poc},
	}, true
}

func (d *VolumeProfile) checkFailedAuctionHigh(coin string, candles []core.Candle, vaLow, vaHigh, poc, buffer float64) (core.Signal, bool) {
	recent := lastN(candles, d.cfg.RejectionLookback)
	wentAbove := false
	highest := recent[0].High
	for _, c := range recent[:len(recent)-1] {
		if c.High > vaHigh+buffer {
			wentAbove = true
		}
	}
	for _, c := range recent {
		if c.High > highest {
			highest = c.High
		}
	}
	current := candles[len(candles)-1]
	closedInside := current.Close < vaHigh-buffer
	if !wentAbove || !closedInside {
		return core.Signal{}, false
	}

	vaRange := vaRangeOrOne(vaLow, vaHigh)
	strength := clamp((highest-current.Close)/vaRange, 0, 1)
	if strength < d.cfg.MinStrength {
		return core.Signal{}, false
	}
	return core.Signal{
		Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Short,
		Strength: strength, Timestamp: current.Timestamp,
		Metadata: map[string]any{"setup": "failed_auction_high", "va_low": vaLow, "va_high": vaHigh, "poc": poc},
	}, true
}

func (d *VolumeProfile) checkBreakoutUp(coin string, candles []core.Candle, vaLow, vaHigh, poc, buffer float64) (core.Signal, bool) {
	if len(candles) < d.cfg.BreakoutCandles {
		return core.Signal{}, false
	}
	recent := lastN(candles, d.cfg.BreakoutCandles)
	for _, c := range recent {
		if c.Close <= vaHigh+buffer {
			return core.Signal{}, false
		}
	}
	current := candles[len(candles)-1]
	vaRange := vaRangeOrOne(vaLow, vaHigh)
	strength := clamp((current.Close-vaHigh)/vaRange*0.5+0.5, 0, 1)
	if strength < d.cfg.MinStrength {
		return core.Signal{}, false
	}
	return core.Signal{
		Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Long,
		Strength: strength, Timestamp: current.Timestamp,
		Metadata: map[string]any{"setup": "va_breakout_up", "va_low": vaLow, "va_high": vaHigh, "poc": poc},
	}, true
}

func (d *VolumeProfile) checkBreakoutDown(coin string, candles []core.Candle, vaLow, vaHigh, poc, buffer float64) (core.Signal, bool) {
	if len(candles) < d.cfg.BreakoutCandles {
		return core.Signal{}, false
	}
	recent := lastN(candles, d.cfg.BreakoutCandles)
	for _, c := range recent {
		if c.Close >= vaLow-buffer {
			return core.Signal{}, false
		}
	}
	current := candles[len(candles)-1]
	vaRange := vaRangeOrOne(vaLow, vaHigh)
	strength := clamp((vaLow-current.Close)/vaRange*0.5+0.5, 0, 1)
	if strength < d.cfg.MinStrength {
		return core.Signal{}, false
	}
	return core.Signal{
		Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Short,
		Strength: strength, Timestamp: current.Timestamp,
		Metadata: map[string]any{"setup": "va_breakout_down", "va_low": vaLow, "va_high": vaHigh, "poc": poc},
	}, true
}

func (d *VolumeProfile) checkPOCBounce(coin string, candles []core.Candle, poc, buffer float64) (core.Signal, bool) {
	if len(candles) < 3 {
		return core.Signal{}, false
	}
	current := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	touched := minFloat(prev.Low, current.Low) <= poc+buffer && maxFloat(prev.High, current.High) >= poc-buffer
	if !touched {
		return core.Signal{}, false
	}

	if current.Close > poc && current.Close > prev.Close {
		strength := clamp(absF(current.Close-poc)/(buffer*10), 0, 0.7)
		if strength < d.cfg.MinStrength {
			return core.Signal{}, false
		}
		return core.Signal{
			Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Long,
			Strength: strength, Timestamp: current.Timestamp,
			Metadata: map[string]any{"setup": "poc_bounce", "poc": poc, "bounce_direction": "up"},
		}, true
	}
	if current.Close < poc && current.Close < prev.Close {
		strength := clamp(absF(poc-current.Close)/(buffer*10), 0, 0.7)
		if strength < d.cfg.MinStrength {
			return core.Signal{}, false
		}
		return core.Signal{
			Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Short,
			Strength: strength, Timestamp: current.Timestamp,
			Metadata: map[string]any{"setup": "poc_bounce", "poc": poc, "bounce_direction": "down"},
		}, true
	}
	return core.Signal{}, false
}

func (d *VolumeProfile) checkDeltaDivergence(coin string, candles []core.Candle) (core.Signal, bool) {
	if d.profile == nil || len(candles) < 5 {
		return core.Signal{}, false
	}
	recent := lastN(candles, 5)
	priceChange := recent[len(recent)-1].Close - recent[0].Close
	priceChangePct := priceChange / recent[0].Close * 100

	totalVolume := d.profile.TotalVolume()
	if totalVolume == 0 {
		return core.Signal{}, false
	}
	deltaPct := d.profile.TotalDelta() / totalVolume * 100

	current := candles[len(candles)-1]

	if priceChangePct > 0.1 && deltaPct < -d.cfg.DeltaThresholdPct {
		strength := clamp(absF(deltaPct)/100, 0, 0.8)
		if strength < d.cfg.MinStrength {
			return core.Signal{}, false
		}
		return core.Signal{
			Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Short,
			Strength: strength, Timestamp: current.Timestamp,
			Metadata: map[string]any{"setup": "delta_divergence_bearish", "price_change_pct": priceChangePct, "delta_pct": deltaPct},
		}, true
	}
	if priceChangePct < -0.1 && deltaPct > d.cfg.DeltaThresholdPct {
		strength := clamp(absF(deltaPct)/100, 0, 0.8)
		if strength < d.cfg.MinStrength {
			return core.Signal{}, false
		}
		return core.Signal{
			Coin: coin, SignalType: core.SignalVolumeProfile, Direction: core.Long,
			Strength: strength, Timestamp: current.Timestamp,
			Metadata: map[string]any{"setup": "delta_divergence_bullish", "price_change_pct": priceChangePct, "delta_pct": deltaPct},
		}, true
	}
	return core.Signal{}, false
}

// Reset clears per-coin cooldown state.
func (d *VolumeProfile) Reset(coin string) {
	delete(d.lastSignalCandle, coin)
	delete(d.candleCount, coin)
}

// ResetAll clears cooldown state for every coin.
func (d *VolumeProfile) ResetAll() {
	d.lastSignalCandle = make(map[string]int)
	d.candleCount = make(map[string]int)
}

func lastN(candles []core.Candle, n int) []core.Candle {
	if n > len(candles) {
		n = len(candles)
	}
	return candles[len(candles)-n:]
}

func vaRangeOrOne(vaLow, vaHigh float64) float64 {
	if vaHigh > vaLow {
		return vaHigh - vaLow
	}
	return 1
}
