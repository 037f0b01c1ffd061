package detectors

import (
	"tradecore/internal/core"
	"tradecore/internal/indicators"
)

// MomentumConfig configures the EMA-crossover momentum detector.
type MomentumConfig struct {
	FastPeriod int
	SlowPeriod int
	Threshold  float64
}

// DefaultMomentumConfig matches the values the strategy presets expect
// unless overridden.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{FastPeriod: 9, SlowPeriod: 21, Threshold: 0.001}
}

// Momentum detects EMA fast/slow crossovers, deduplicated per coin against
// the last detected crossover direction (recorded before the threshold check,
// so a crossover too weak to emit still counts).
type Momentum struct {
	cfg              MomentumConfig
	lastCrossoverDir map[string]core.Direction
}

// NewMomentum creates a Momentum detector with the given config.
func NewMomentum(cfg MomentumConfig) *Momentum {
	return &Momentum{cfg: cfg, lastCrossoverDir: make(map[string]core.Direction)}
}

// Detect implements Detector.
func (m *Momentum) Detect(coin string, candles []core.Candle) (core.Signal, bool) {
	minCandles := m.cfg.SlowPeriod + 2
	if len(candles) < minCandles {
		return core.Signal{}, false
	}

	prices := closes(candles)
	fastEMA := indicators.EMASeries(prices, m.cfg.FastPeriod)
	slowEMA := indicators.EMASeries(prices, m.cfg.SlowPeriod)
	if len(fastEMA) < 2 || len(slowEMA) < 2 {
		return core.Signal{}, false
	}

	offset := m.cfg.SlowPeriod - m.cfg.FastPeriod
	alignedFast := fastEMA[offset:]
	if len(alignedFast) < 2 {
		return core.Signal{}, false
	}

	currentFast := alignedFast[len(alignedFast)-1]
	currentSlow := slowEMA[len(slowEMA)-1]
	prevFast := alignedFast[len(alignedFast)-2]
	prevSlow := slowEMA[len(slowEMA)-2]

	currentPrice := prices[len(prices)-1]
	diffPct := absF(currentFast-currentSlow) / currentPrice

	wasAbove := prevFast > prevSlow
	isAbove := currentFast > currentSlow

	var direction core.Direction
	switch {
	case !wasAbove && isAbove:
		direction = core.Long
	case wasAbove && !isAbove:
		direction = core.Short
	default:
		return core.Signal{}, false
	}

	if m.lastCrossoverDir[coin] == direction {
		return core.Signal{}, false
	}
	m.lastCrossoverDir[coin] = direction

	if diffPct < m.cfg.Threshold {
		return core.Signal{}, false
	}

	strength := clamp(diffPct/(m.cfg.Threshold*5), 0, 1)

	return core.Signal{
		Coin:       coin,
		SignalType: core.SignalMomentum,
		Direction:  direction,
		Strength:   strength,
		Timestamp:  candles[len(candles)-1].Timestamp,
		Metadata: map[string]any{
			"fast_ema":     currentFast,
			"slow_ema":     currentSlow,
			"ema_diff_pct": diffPct * 100,
		},
	}, true
}

// Reset clears the dedup state for one coin.
func (m *Momentum) Reset(coin string) { delete(m.lastCrossoverDir, coin) }

// ResetAll clears dedup state for every coin.
func (m *Momentum) ResetAll() { m.lastCrossoverDir = make(map[string]core.Direction) }

func closes(candles []core.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
