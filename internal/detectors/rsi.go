package detectors

import (
	"tradecore/internal/core"
	"tradecore/internal/indicators"
)

// RSIConfig configures the RSI threshold/divergence detector.
type RSIConfig struct {
	Period                  int
	Oversold                float64
	Overbought              float64
	CooldownCandles         int
	DivergenceLookback      int
	DivergenceStrengthBoost float64
}

// DefaultRSIConfig matches the upstream indicator's documented defaults.
func DefaultRSIConfig() RSIConfig {
	return RSIConfig{
		Period:                  14,
		Oversold:                30,
		Overbought:              70,
		CooldownCandles:         5,
		DivergenceLookback:      20,
		DivergenceStrengthBoost: 0.3,
	}
}

type extremum struct {
	index int
	value float64
}

// RSI detects threshold crossings (oversold/overbought) and price/RSI
// divergence, per coin, with cooldown and no-repeat-direction dedup.
type RSI struct {
	cfg RSIConfig

	candlesSinceSignal map[string]int
	lastSignalDir      map[string]core.Direction
	rsiHistory         map[string][]float64
	priceHistory       map[string][]float64
}

// NewRSI creates an RSI detector with the given config.
func NewRSI(cfg RSIConfig) *RSI {
	return &RSI{
		cfg:                cfg,
		candlesSinceSignal: make(map[string]int),
		lastSignalDir:      make(map[string]core.Direction),
		rsiHistory:         make(map[string][]float64),
		priceHistory:       make(map[string][]float64),
	}
}

// Detect implements Detector.
func (r *RSI) Detect(coin string, candles []core.Candle) (core.Signal, bool) {
	minCandles := r.cfg.Period + 1
	if len(candles) < minCandles {
		return core.Signal{}, false
	}

	if _, tracked := r.candlesSinceSignal[coin]; tracked {
		r.candlesSinceSignal[coin]++
	}

	prices := closes(candles)
	rsiValue, ok := indicators.RSI(prices, r.cfg.Period)
	if !ok {
		return core.Signal{}, false
	}

	r.rsiHistory[coin] = pushCapped(r.rsiHistory[coin], rsiValue, r.cfg.DivergenceLookback)
	r.priceHistory[coin] = pushCapped(r.priceHistory[coin], prices[len(prices)-1], r.cfg.DivergenceLookback)

	current := candles[len(candles)-1]

	if direction, strength, ok := r.detectDivergence(r.priceHistory[coin], r.rsiHistory[coin]); ok {
		since := r.cfg.CooldownCandles
		if v, tracked := r.candlesSinceSignal[coin]; tracked {
			since = v
		}
		if since >= r.cfg.CooldownCandles && r.lastSignalDir[coin] != direction {
			r.candlesSinceSignal[coin] = 0
			r.lastSignalDir[coin] = direction

			boosted := clamp(strength+r.cfg.DivergenceStrengthBoost, 0, 1)
			return core.Signal{
				Coin:       coin,
				SignalType: core.SignalRSI,
				Direction:  direction,
				Strength:   boosted,
				Timestamp:  current.Timestamp,
				Metadata: map[string]any{
					"rsi":            rsiValue,
					"signal_source":  "divergence",
				},
			}, true
		}
	}

	var direction core.Direction
	switch {
	case rsiValue < r.cfg.Oversold:
		direction = core.Long
	case rsiValue > r.cfg.Overbought:
		direction = core.Short
	default:
		return core.Signal{}, false
	}

	since := r.cfg.CooldownCandles
	if v, tracked := r.candlesSinceSignal[coin]; tracked {
		since = v
	}
	if since < r.cfg.CooldownCandles {
		return core.Signal{}, false
	}
	if r.lastSignalDir[coin] == direction {
		return core.Signal{}, false
	}

	r.candlesSinceSignal[coin] = 0
	r.lastSignalDir[coin] = direction

	var strength float64
	if direction == core.Long {
		extremity := (r.cfg.Oversold - rsiValue) / r.cfg.Oversold
		strength = 1.0 - extremity
	} else {
		extremity := (rsiValue - r.cfg.Overbought) / (100 - r.cfg.Overbought)
		strength = 1.0 - extremity
	}
	strength = clamp(strength, 0.1, 1.0)

	return core.Signal{
		Coin:       coin,
		SignalType: core.SignalRSI,
		Direction:  direction,
		Strength:   strength,
		Timestamp:  current.Timestamp,
		Metadata: map[string]any{
			"rsi":           rsiValue,
			"signal_source": "threshold",
		},
	}, true
}

// UpdateNeutralCross clears the last-signal-direction lock once RSI has
// re-entered the neutral band, permitting a repeat signal in that
// direction.
func (r *RSI) UpdateNeutralCross(coin string, candles []core.Candle) {
	if len(candles) < r.cfg.Period+1 {
		return
	}
	rsiValue, ok := indicators.RSI(closes(candles), r.cfg.Period)
	if !ok {
		return
	}
	if rsiValue > r.cfg.Oversold && rsiValue < r.cfg.Overbought {
		delete(r.lastSignalDir, coin)
	}
}

func (r *RSI) detectDivergence(prices, rsiValues []float64) (core.Direction, float64, bool) {
	if len(prices) < 10 || len(rsiValues) < 10 {
		return "", 0, false
	}
	n := len(prices)
	if len(rsiValues) < n {
		n = len(rsiValues)
	}
	prices = prices[len(prices)-n:]
	rsiValues = rsiValues[len(rsiValues)-n:]

	priceHighs, priceLows := localExtremes(prices, 3)
	rsiHighs, rsiLows := localExtremes(rsiValues, 3)

	if len(priceLows) >= 2 && len(rsiLows) >= 2 {
		pLast, pPrev := priceLows[len(priceLows)-1], priceLows[len(priceLows)-2]
		rLast, rPrev := rsiLows[len(rsiLows)-1], rsiLows[len(rsiLows)-2]
		if pLast.value < pPrev.value && rLast.value > rPrev.value {
			diff := rLast.value - rPrev.value
			return core.Long, clamp(diff/20, 0, 1), true
		}
	}

	if len(priceHighs) >= 2 && len(rsiHighs) >= 2 {
		pLast, pPrev := priceHighs[len(priceHighs)-1], priceHighs[len(priceHighs)-2]
		rLast, rPrev := rsiHighs[len(rsiHighs)-1], rsiHighs[len(rsiHighs)-2]
		if pLast.value > pPrev.value && rLast.value < rPrev.value {
			diff := rPrev.value - rLast.value
			return core.Short, clamp(diff/20, 0, 1), true
		}
	}

	return "", 0, false
}

// localExtremes finds strict local highs/lows with `window` neighbours on
// each side (a high must be strictly greater than the left window and at
// least as great as the right window; symmetric for lows).
func localExtremes(values []float64, window int) (highs, lows []extremum) {
	for i := window; i < len(values)-window; i++ {
		val := values[i]
		left := values[i-window : i]
		right := values[i+1 : i+window+1]

		isHigh := true
		for _, v := range left {
			if val <= v {
				isHigh = false
				break
			}
		}
		if isHigh {
			for _, v := range right {
				if val < v {
					isHigh = false
					break
				}
			}
		}
		if isHigh {
			highs = append(highs, extremum{i, val})
		}

		isLow := true
		for _, v := range left {
			if val >= v {
				isLow = false
				break
			}
		}
		if isLow {
			for _, v := range right {
				if val > v {
					isLow = false
					break
				}
			}
		}
		if isLow {
			lows = append(lows, extremum{i, val})
		}
	}
	return highs, lows
}

func pushCapped(series []float64, value float64, maxLen int) []float64 {
	series = append(series, value)
	if len(series) > maxLen {
		series = series[len(series)-maxLen:]
	}
	return series
}

// Reset clears per-coin state for RSI detection.
func (r *RSI) Reset(coin string) {
	delete(r.candlesSinceSignal, coin)
	delete(r.lastSignalDir, coin)
	delete(r.rsiHistory, coin)
	delete(r.priceHistory, coin)
}

// ResetAll clears state for every coin.
func (r *RSI) ResetAll() {
	r.candlesSinceSignal = make(map[string]int)
	r.lastSignalDir = make(map[string]core.Direction)
	r.rsiHistory = make(map[string][]float64)
	r.priceHistory = make(map[string][]float64)
}
