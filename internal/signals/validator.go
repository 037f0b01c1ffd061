package signals

import "tradecore/internal/core"

// BreakoutDirection is the realised market outcome used to score a past
// signal's prediction.
type BreakoutDirection string

const (
	BreakoutUp   BreakoutDirection = "UP"
	BreakoutDown BreakoutDirection = "DOWN"
)

// ValidatorConfig controls the accuracy gate applied to signals.
type ValidatorConfig struct {
	MinAccuracy     float64
	MinSamples      int
	TrackByStrength bool
}

// DefaultValidatorConfig matches the upstream validator's documented
// defaults.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{MinAccuracy: 0.4, MinSamples: 10, TrackByStrength: true}
}

// strengthBand tracks outcomes for signals whose strength falls in [low, high);
// the top band also takes strength 1.0 and above.
type strengthBand struct {
	low, high float64
	core.AccuracyBand
}

var strengthBandBounds = [4][2]float64{{0, 0.25}, {0.25, 0.5}, {0.5, 0.75}, {0.75, 1.0}}

func strengthBandIndex(strength float64) int {
	switch {
	case strength < 0.25:
		return 0
	case strength < 0.5:
		return 1
	case strength < 0.75:
		return 2
	default:
		return 3
	}
}

// Validator tracks each SignalType's historical prediction accuracy
// (overall, and optionally by strength quartile) and gates signals whose
// track record has fallen below threshold.
type Validator struct {
	cfg ValidatorConfig

	accuracy      map[core.SignalType]core.AccuracyBand
	strengthBands map[core.SignalType][4]strengthBand
}

// NewValidator creates a Validator with the given config.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{
		cfg:           cfg,
		accuracy:      make(map[core.SignalType]core.AccuracyBand),
		strengthBands: make(map[core.SignalType][4]strengthBand),
	}
}

// ShouldPass reports whether signal should be used, given its type's
// (and optionally its strength band's) historical accuracy.
func (v *Validator) ShouldPass(signal core.Signal) bool {
	acc, tracked := v.accuracy[signal.SignalType]
	if !tracked || acc.TotalSignals < v.cfg.MinSamples {
		return true
	}
	if acc.Accuracy() < v.cfg.MinAccuracy {
		return false
	}

	if v.cfg.TrackByStrength {
		bands, ok := v.strengthBands[signal.SignalType]
		if ok {
			band := bands[strengthBandIndex(signal.Strength)]
			if band.TotalSignals >= v.cfg.MinSamples && band.Accuracy() < v.cfg.MinAccuracy {
				return false
			}
		}
	}
	return true
}

// RecordOutcome scores signal against the realised breakout direction (or
// no-op if breakoutDirection is unset/empty — no breakout to correlate
// with).
func (v *Validator) RecordOutcome(signal core.Signal, breakoutDirection BreakoutDirection) {
	if breakoutDirection == "" {
		return
	}
	expected := core.Short
	if breakoutDirection == BreakoutUp {
		expected = core.Long
	}
	wasCorrect := signal.Direction == expected

	acc := v.accuracy[signal.SignalType]
	acc.TotalSignals++
	if wasCorrect {
		acc.CorrectPredictions++
	}
	v.accuracy[signal.SignalType] = acc

	if !v.cfg.TrackByStrength {
		return
	}
	bands, ok := v.strengthBands[signal.SignalType]
	if !ok {
		for i, b := range strengthBandBounds {
			bands[i] = strengthBand{low: b[0], high: b[1]}
		}
	}
	idx := strengthBandIndex(signal.Strength)
	band := bands[idx]
	band.TotalSignals++
	if wasCorrect {
		band.CorrectPredictions++
	}
	bands[idx] = band
	v.strengthBands[signal.SignalType] = bands
}

// AccuracyReport summarises tracked accuracy for one SignalType.
type AccuracyReport struct {
	SignalType    core.SignalType
	TotalSignals  int
	Correct       int
	Accuracy      float64
	StrengthBands []StrengthBandReport
}

// StrengthBandReport summarises one strength quartile's tracked accuracy.
type StrengthBandReport struct {
	Low, High    float64
	TotalSignals int
	Correct      int
	Accuracy     float64
}

// GetAccuracyReport returns a snapshot of every tracked SignalType's
// accuracy history.
func (v *Validator) GetAccuracyReport() []AccuracyReport {
	reports := make([]AccuracyReport, 0, len(v.accuracy))
	for signalType, acc := range v.accuracy {
		report := AccuracyReport{
			SignalType:   signalType,
			TotalSignals: acc.TotalSignals,
			Correct:      acc.CorrectPredictions,
			Accuracy:     acc.Accuracy(),
		}
		if v.cfg.TrackByStrength {
			if bands, ok := v.strengthBands[signalType]; ok {
				for _, b := range bands {
					report.StrengthBands = append(report.StrengthBands, StrengthBandReport{
						Low: b.low, High: b.high,
						TotalSignals: b.TotalSignals,
						Correct:      b.CorrectPredictions,
						Accuracy:     b.Accuracy(),
					})
				}
			}
		}
		reports = append(reports, report)
	}
	return reports
}

// Reset clears all accuracy tracking.
func (v *Validator) Reset() {
	v.accuracy = make(map[core.SignalType]core.AccuracyBand)
	v.strengthBands = make(map[core.SignalType][4]strengthBand)
}
