// Package preset holds the named Strategy configurations a deployment
// selects by name (mirroring the upstream strategy library) and a YAML
// loader so new presets can be added without recompiling.
package preset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tradecore/internal/core"
	"tradecore/internal/strategy"
)

var signalTypeNames = map[string]core.SignalType{
	"momentum":       core.SignalMomentum,
	"rsi":            core.SignalRSI,
	"macd":           core.SignalMACD,
	"volume_profile": core.SignalVolumeProfile,
	"prev_day_vp":    core.SignalPrevDayVP,
}

type yamlRiskConfig struct {
	MaxPositionPct     float64 `yaml:"max_position_pct"`
	StopLossATRMult    float64 `yaml:"stop_loss_atr_multiplier"`
	TakeProfitATRMult  float64 `yaml:"take_profit_atr_multiplier"`
	TrailActivationPct float64 `yaml:"trail_activation_pct"`
	TrailDistancePct   float64 `yaml:"trail_distance_pct"`
}

type yamlStrategy struct {
	Name              string             `yaml:"name"`
	SignalWeights     map[string]float64 `yaml:"signal_weights"`
	SignalThreshold   float64            `yaml:"signal_threshold"`
	MinSignalStrength float64            `yaml:"min_signal_strength"`
	MinConfidence     int                `yaml:"min_confidence"`
	Risk              yamlRiskConfig     `yaml:"risk"`
	MACDMinHistogram  float64            `yaml:"macd_min_histogram"`
}

type document struct {
	Strategies map[string]yamlStrategy `yaml:"strategies"`
}

// Load reads a YAML document of named strategy presets from path and
// returns each, validated, keyed by its document key.
func Load(path string) (map[string]core.Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("preset: parse %s: %w", path, err)
	}

	out := make(map[string]core.Strategy, len(doc.Strategies))
	for key, y := range doc.Strategies {
		weights := make(map[core.SignalType]float64, len(y.SignalWeights))
		for name, w := range y.SignalWeights {
			t, ok := signalTypeNames[name]
			if !ok {
				return nil, fmt.Errorf("preset %q: unknown signal type %q", key, name)
			}
			weights[t] = w
		}
		s, err := strategy.New(strategy.Builder{
			Name:              y.Name,
			SignalWeights:     weights,
			SignalThreshold:   y.SignalThreshold,
			MinSignalStrength: y.MinSignalStrength,
			MinConfidence:     y.MinConfidence,
			Risk: core.RiskConfig{
				MaxPositionPct:     y.Risk.MaxPositionPct,
				StopLossATRMult:    y.Risk.StopLossATRMult,
				TakeProfitATRMult:  y.Risk.TakeProfitATRMult,
				TrailActivationPct: y.Risk.TrailActivationPct,
				TrailDistancePct:   y.Risk.TrailDistancePct,
			},
			MACDMinHistogram: y.MACDMinHistogram,
		})
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", key, err)
		}
		out[key] = s
	}
	return out, nil
}

// Get looks up a built-in preset by name, e.g. for a "-strategy" flag.
// It does not consult any YAML file — callers that need file-based
// overrides should use Load and fall back to Defaults themselves.
func Get(name string) (core.Strategy, bool) {
	s, ok := Defaults()[name]
	return s, ok
}
