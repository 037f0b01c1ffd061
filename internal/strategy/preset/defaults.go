package preset

import (
	"tradecore/internal/core"
	"tradecore/internal/strategy"
)

// disableMACD matches the upstream library's default min_histogram: a
// gate large enough that no real crossover clears it, used by presets
// that don't weight SignalMACD to keep the detector's documented ~40%
// standalone accuracy from ever contributing a signal.
const disableMACD = 100000.0

// Defaults returns the built-in strategy presets, transcribed from the
// upstream strategy library. Each is well-formed by construction, so
// strategy.MustNew panics only on a transcription error.
func Defaults() map[string]core.Strategy {
	return map[string]core.Strategy{
		"momentum_based": strategy.MustNew(strategy.Builder{
			Name: "Momentum Based",
			SignalWeights: map[core.SignalType]float64{
				core.SignalMomentum:      1.0,
				core.SignalVolumeProfile: 0.5,
			},
			SignalThreshold:   0.7,
			MinSignalStrength: 0.5,
			MinConfidence:     5,
			Risk: core.RiskConfig{
				MaxPositionPct:     15.0,
				StopLossATRMult:    1.2,
				TakeProfitATRMult:  2.5,
				TrailActivationPct: 0.15,
				TrailDistancePct:   0.1,
			},
			MACDMinHistogram: disableMACD,
		}),
		// momentum_macd is the one preset that weights SignalMACD, so it
		// leaves the detector's histogram gate at 0 (every crossover
		// eligible) instead of the disabled default the others use.
		"momentum_macd": strategy.MustNew(strategy.Builder{
			Name: "Momentum MACD",
			SignalWeights: map[core.SignalType]float64{
				core.SignalMomentum: 0.6,
				core.SignalMACD:     0.4,
			},
			SignalThreshold:   0.6,
			MinSignalStrength: 0.4,
			MinConfidence:     6,
			Risk: core.RiskConfig{
				MaxPositionPct:     15.0,
				StopLossATRMult:    2.0,
				TakeProfitATRMult:  4.0,
				TrailActivationPct: 0.5,
				TrailDistancePct:   0.3,
			},
			MACDMinHistogram: 0,
		}),
		// momentum_scalper: aggressive, quick-exit momentum scalping. The
		// upstream preset never set signal_weights explicitly (it relied on
		// a base-class default that isn't itself documented); weighted here
		// on Momentum primarily, with a small Volume Profile component to
		// catch breakout-style scalps.
		"momentum_scalper": strategy.MustNew(strategy.Builder{
			Name: "Momentum Scalper",
			SignalWeights: map[core.SignalType]float64{
				core.SignalMomentum:      1.0,
				core.SignalVolumeProfile: 0.3,
			},
			SignalThreshold:   0.5,
			MinSignalStrength: 0.7,
			MinConfidence:     5,
			Risk: core.RiskConfig{
				MaxPositionPct:     15.0,
				StopLossATRMult:    1.2,
				TakeProfitATRMult:  2.5,
				TrailActivationPct: 0.15,
				TrailDistancePct:   0.1,
			},
			MACDMinHistogram: disableMACD,
		}),
		// mean_reversion: contrarian, fades overextended moves. Likewise
		// shipped upstream with no signal_weights set at all (which would
		// make the strategy never receive a signal); weighted here on RSI
		// (divergence/extremes is the classic mean-reversion tell) and the
		// two Volume Profile detectors' reversal setups (poc_bounce,
		// failed_auction, va_reclaim), with Momentum excluded since
		// continuation contradicts the fade thesis.
		"mean_reversion": strategy.MustNew(strategy.Builder{
			Name: "Mean Reversion",
			SignalWeights: map[core.SignalType]float64{
				core.SignalRSI:           1.0,
				core.SignalVolumeProfile: 0.6,
				core.SignalPrevDayVP:     0.5,
			},
			SignalThreshold:   0.5,
			MinSignalStrength: 0.6,
			MinConfidence:     7,
			Risk: core.RiskConfig{
				MaxPositionPct:     8.0,
				StopLossATRMult:    1.5,
				TakeProfitATRMult:  1.5,
				TrailActivationPct: 0.3,
				TrailDistancePct:   0.2,
			},
			MACDMinHistogram: disableMACD,
		}),
	}
}
