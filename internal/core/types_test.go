package core

import (
	"errors"
	"testing"
)

func TestCandleValid(t *testing.T) {
	tests := []struct {
		name string
		c    Candle
		want bool
	}{
		{"ok", Candle{Open: 10, High: 12, Low: 9, Close: 11}, true},
		{"high below close", Candle{Open: 10, High: 10.5, Low: 9, Close: 11}, false},
		{"low above open", Candle{Open: 10, High: 12, Low: 10.5, Close: 11}, false},
		{"flat", Candle{Open: 10, High: 10, Low: 10, Close: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarketContextVolatilityLevel(t *testing.T) {
	tests := []struct {
		price, atr float64
		want       VolatilityLevel
	}{
		{100, 0.4, VolatilityLow},
		{100, 1.0, VolatilityMedium},
		{100, 2.0, VolatilityHigh},
	}
	for _, tt := range tests {
		ctx := NewMarketContext("BTC", tt.price, tt.atr)
		if ctx.VolatilityLevel != tt.want {
			t.Errorf("price=%v atr=%v: got %v, want %v", tt.price, tt.atr, ctx.VolatilityLevel, tt.want)
		}
	}
}

func TestStrategyValidateRejectsOutOfRangeThreshold(t *testing.T) {
	s := Strategy{
		Name:            "test",
		SignalThreshold: 3,
		MinConfidence:   5,
		Risk: RiskConfig{
			MaxPositionPct:     10,
			StopLossATRMult:    1,
			TakeProfitATRMult:  1,
			TrailDistancePct:   1,
		},
	}
	err := s.Validate()
	if err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestStrategyValidateAcceptsValidConfig(t *testing.T) {
	s := Strategy{
		Name:              "test",
		SignalWeights:     map[SignalType]float64{SignalMomentum: 0.5},
		SignalThreshold:   0.7,
		MinSignalStrength: 0.1,
		MinConfidence:     5,
		Risk: RiskConfig{
			MaxPositionPct:    10,
			StopLossATRMult:   1.5,
			TakeProfitATRMult: 2.5,
			TrailDistancePct:  0.5,
		},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
