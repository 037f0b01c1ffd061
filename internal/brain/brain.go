// Package brain implements the decision brain: filter signals by
// strategy, score by direction, threshold-gate, confirm via a pluggable
// oracle, then size risk deterministically into a TradePlan.
package brain

import (
	"context"
	"fmt"

	"tradecore/internal/core"
	"tradecore/internal/logging"
	"tradecore/internal/metrics"
	"tradecore/internal/oracle"
)

// Brain evaluates a batch of signals against a fixed Strategy and
// produces a TradePlan.
type Brain struct {
	strategy core.Strategy
	oracle   oracle.ConfirmationOracle
	metrics  *metrics.Metrics
}

// New creates a Brain. oracle.AutoConfirm{} is the default oracle if o
// is nil; m may be nil to disable metrics.
func New(strategy core.Strategy, o oracle.ConfirmationOracle, m *metrics.Metrics) *Brain {
	if o == nil {
		o = oracle.AutoConfirm{}
	}
	return &Brain{strategy: strategy, oracle: o, metrics: m}
}

// Evaluate runs the full filter -> score -> threshold -> oracle ->
// risk-sizing pipeline described in spec.md section 4.5.
func (b *Brain) Evaluate(ctx context.Context, signals []core.Signal, positions []core.Position, marketCtx core.MarketContext) core.TradePlan {
	filtered := b.filterSignals(signals, marketCtx.Coin)
	if len(filtered) == 0 {
		return wait(marketCtx.Coin, "no signals meet strategy criteria")
	}

	longScore, shortScore := b.weightedScores(filtered)
	direction, winningScore, ok := b.meetsThreshold(longScore, shortScore)
	if !ok {
		return wait(marketCtx.Coin, fmt.Sprintf("weighted score (%.2f) below threshold (%.2f)", maxFloat(longScore, shortScore), b.strategy.SignalThreshold))
	}

	oracleLog := logging.OracleContext(marketCtx.Coin, string(direction), winningScore)
	confirmation, err := b.oracle.Confirm(ctx, direction, winningScore, filtered, positions, marketCtx)
	if err != nil || !confirmation.Confirmed {
		reason := "oracle declined"
		if err != nil {
			reason = "oracle cancelled"
		} else if confirmation.Reason != "" {
			reason = confirmation.Reason
		}
		oracleLog.Debug("oracle did not confirm trade")
		if b.metrics != nil {
			b.metrics.OracleRejected.Inc()
		}
		return wait(marketCtx.Coin, reason)
	}
	if b.metrics != nil {
		b.metrics.OracleConfirmed.Inc()
	}

	if confirmation.Confidence < b.strategy.MinConfidence {
		return wait(marketCtx.Coin, fmt.Sprintf("confidence too low (%d)", confirmation.Confidence))
	}

	plan := b.sizeRisk(direction, confirmation, filtered, marketCtx)
	plan.SignalsConsidered = signalNames(filtered)
	return plan
}

func (b *Brain) filterSignals(signals []core.Signal, coin string) []core.Signal {
	var out []core.Signal
	for _, s := range signals {
		if s.Coin != coin {
			continue
		}
		if _, ok := b.strategy.SignalWeights[s.SignalType]; !ok {
			continue
		}
		if s.Strength < b.strategy.MinSignalStrength {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (b *Brain) weightedScores(signals []core.Signal) (longScore, shortScore float64) {
	for _, s := range signals {
		weighted := b.strategy.SignalWeights[s.SignalType] * s.Strength
		if s.Direction == core.Long {
			longScore += weighted
		} else {
			shortScore += weighted
		}
	}
	return longScore, shortScore
}

func (b *Brain) meetsThreshold(longScore, shortScore float64) (core.Direction, float64, bool) {
	threshold := b.strategy.SignalThreshold
	if longScore >= threshold && longScore > shortScore {
		return core.Long, longScore, true
	}
	if shortScore >= threshold && shortScore > longScore {
		return core.Short, shortScore, true
	}
	return core.Wait, 0, false
}

// avgWeightedStrength returns 0.5 when the filtered set has zero total
// weight, matching the upstream neutral default.
func (b *Brain) avgWeightedStrength(signals []core.Signal) float64 {
	var weightedSum, totalWeight float64
	for _, s := range signals {
		w := b.strategy.SignalWeights[s.SignalType]
		weightedSum += w * s.Strength
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0.5
	}
	return weightedSum / totalWeight
}

func volatilityFactor(level core.VolatilityLevel) float64 {
	switch level {
	case core.VolatilityLow:
		return 1.0
	case core.VolatilityMedium:
		return 0.8
	default:
		return 0.6
	}
}

func (b *Brain) sizeRisk(direction core.Direction, confirmation oracle.Confirmation, signals []core.Signal, marketCtx core.MarketContext) core.TradePlan {
	risk := b.strategy.Risk
	avgStrength := b.avgWeightedStrength(signals)
	volFactor := volatilityFactor(marketCtx.VolatilityLevel)

	var positionFactor, stopFactor, tpFactor float64
	switch {
	case avgStrength >= 0.8:
		positionFactor, stopFactor, tpFactor = 0.7, 0.4, 1.0
	case avgStrength >= 0.5:
		positionFactor, stopFactor, tpFactor = 0.5, 0.5, 1.0
	default:
		positionFactor, stopFactor, tpFactor = 0.3, 0.6, 0.9
	}

	positionPct := risk.MaxPositionPct * positionFactor * volFactor
	confidenceBoost := 1 + maxFloat(0, float64(confirmation.Confidence-5)/5)*0.2
	positionPct *= confidenceBoost
	positionPct = minFloat(positionPct, risk.MaxPositionPct)

	stopDistance := marketCtx.ATR * risk.StopLossATRMult * stopFactor
	tpDistance := marketCtx.ATR * risk.TakeProfitATRMult * tpFactor

	plan := core.TradePlan{
		Action:            direction,
		Coin:              marketCtx.Coin,
		SizePct:           positionPct,
		TrailActivation:   marketCtx.CurrentPrice * (1 + risk.TrailActivationPct/100),
		TrailDistancePct:  risk.TrailDistancePct,
		Confidence:        confirmation.Confidence,
		Reason:            confirmation.Reason,
	}
	if direction == core.Long {
		plan.StopLoss = marketCtx.CurrentPrice - stopDistance
		plan.TakeProfit = marketCtx.CurrentPrice + tpDistance
	} else {
		plan.StopLoss = marketCtx.CurrentPrice + stopDistance
		plan.TrailActivation = marketCtx.CurrentPrice * (1 - risk.TrailActivationPct/100)
		plan.TakeProfit = marketCtx.CurrentPrice - tpDistance
	}
	return plan
}

func wait(coin, reason string) core.TradePlan {
	return core.TradePlan{Action: core.Wait, Coin: coin, Reason: reason}
}

func signalNames(signals []core.Signal) []string {
	names := make([]string, len(signals))
	for i, s := range signals {
		names[i] = string(s.SignalType) + ":" + string(s.Direction)
	}
	return names
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
