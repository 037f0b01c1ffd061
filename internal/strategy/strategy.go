// Package strategy provides a validating constructor for core.Strategy
// configurations, shared by the YAML preset loader and any caller that
// wants to assemble a strategy from individual fields.
package strategy

import "tradecore/internal/core"

// Builder collects the fields needed to assemble a core.Strategy. It
// mirrors the upstream strategy dataclass field-for-field so presets can
// be transcribed directly.
type Builder struct {
	Name              string
	SignalWeights     map[core.SignalType]float64
	SignalThreshold   float64
	MinSignalStrength float64
	MinConfidence     int
	Risk              core.RiskConfig
	MACDMinHistogram  float64
}

// New assembles and validates a core.Strategy from b, returning
// core.ErrInvalidConfig (wrapped) if any field violates the invariants in
// spec.md section 3.
func New(b Builder) (core.Strategy, error) {
	s := core.Strategy{
		Name:              b.Name,
		SignalWeights:     b.SignalWeights,
		SignalThreshold:   b.SignalThreshold,
		MinSignalStrength: b.MinSignalStrength,
		MinConfidence:     b.MinConfidence,
		Risk:              b.Risk,
		MACDMinHistogram:  b.MACDMinHistogram,
	}
	if err := s.Validate(); err != nil {
		return core.Strategy{}, err
	}
	return s, nil
}

// MustNew is New, panicking on an invalid Builder. Reserved for
// hand-written, known-valid defaults such as the built-in presets.
func MustNew(b Builder) core.Strategy {
	s, err := New(b)
	if err != nil {
		panic(err)
	}
	return s
}
