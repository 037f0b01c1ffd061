package detectors

import (
	"tradecore/internal/core"
	"tradecore/internal/indicators"
)

// MACDConfig configures the MACD histogram-crossover detector. MinHistogram
// may be set to a very large value to effectively disable the detector
// without removing it from a strategy's signal_weights.
type MACDConfig struct {
	Fast         int
	Slow         int
	Signal       int
	MinHistogram float64
}

// DefaultMACDConfig uses the standard 12/26/9 periods with no minimum
// histogram gate.
func DefaultMACDConfig() MACDConfig {
	return MACDConfig{Fast: 12, Slow: 26, Signal: 9, MinHistogram: 0}
}

// MACD detects histogram sign changes (MACD line crossing its signal
// line), deduplicated per coin against the last detected direction
// (recorded before the MinHistogram check, so a crossover too small to emit
// still counts).
type MACD struct {
	cfg              MACDConfig
	lastCrossoverDir map[string]core.Direction
}

// NewMACD creates a MACD detector with the given config.
func NewMACD(cfg MACDConfig) *MACD {
	return &MACD{cfg: cfg, lastCrossoverDir: make(map[string]core.Direction)}
}

// Detect implements Detector.
func (m *MACD) Detect(coin string, candles []core.Candle) (core.Signal, bool) {
	minCandles := m.cfg.Slow + m.cfg.Signal + 1
	if len(candles) < minCandles {
		return core.Signal{}, false
	}

	prices := closes(candles)
	series := indicators.MACDSeries(prices, m.cfg.Fast, m.cfg.Slow, m.cfg.Signal)
	if len(series) < 2 {
		return core.Signal{}, false
	}

	current := series[len(series)-1]
	previous := series[len(series)-2]

	wasBullish := previous.Histogram > 0
	isBullish := current.Histogram > 0

	var direction core.Direction
	switch {
	case !wasBullish && isBullish:
		direction = core.Long
	case wasBullish && !isBullish:
		direction = core.Short
	default:
		return core.Signal{}, false
	}

	if m.lastCrossoverDir[coin] == direction {
		return core.Signal{}, false
	}
	m.lastCrossoverDir[coin] = direction

	if absF(current.Histogram) < m.cfg.MinHistogram {
		return core.Signal{}, false
	}

	currentPrice := prices[len(prices)-1]
	histogramPct := absF(current.Histogram) / currentPrice
	strength := clamp(histogramPct*100, 0, 1)

	return core.Signal{
		Coin:       coin,
		SignalType: core.SignalMACD,
		Direction:  direction,
		Strength:   strength,
		Timestamp:  candles[len(candles)-1].Timestamp,
		Metadata: map[string]any{
			"macd_line":     current.MACDLine,
			"signal_line":   current.SignalLine,
			"histogram":     current.Histogram,
			"histogram_pct": histogramPct * 100,
		},
	}, true
}

// Reset clears the dedup state for one coin.
func (m *MACD) Reset(coin string) { delete(m.lastCrossoverDir, coin) }

// ResetAll clears dedup state for every coin.
func (m *MACD) ResetAll() { m.lastCrossoverDir = make(map[string]core.Direction) }
