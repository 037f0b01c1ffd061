// Package config loads the pipeline's runtime configuration from a JSON
// file, with environment variables able to override individual fields —
// the same two-layer shape used throughout the corpus this module is
// built from.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"tradecore/internal/core"
	"tradecore/internal/logging"
)

// PipelineConfig controls candle aggregation and orchestrator gating.
type PipelineConfig struct {
	CandleIntervalSeconds int `json:"candle_interval_seconds"`
	MaxCandles            int `json:"max_candles"`
	MinCandlesForSignals  int `json:"min_candles_for_signals"`
	EquityRecordEveryN    int `json:"equity_record_every_n"`
}

// AggregatorConfig controls the signal aggregator's bounded history.
type AggregatorConfig struct {
	MaxSignals        int `json:"max_signals"`
	SignalTTLSeconds  int `json:"signal_ttl_seconds"`
}

// ValidatorConfig controls the signal validator's accuracy filtering.
type ValidatorConfig struct {
	MinAccuracy     float64 `json:"min_accuracy"`
	MinSamples      int     `json:"min_samples"`
	TrackByStrength bool    `json:"track_by_strength"`
}

// FeesConfig is the maker/taker fee schedule used by the paper simulator.
// Rates may be negative to model a maker rebate.
type FeesConfig struct {
	MakerRate           float64 `json:"maker_rate"`
	TakerRate           float64 `json:"taker_rate"`
	MaxPositionSizePct  float64 `json:"max_position_size_pct"`
	StartingBalance     float64 `json:"starting_balance"`
}

// Config is the root configuration object for a backtest or live run.
type Config struct {
	Pipeline  PipelineConfig   `json:"pipeline"`
	Aggregator AggregatorConfig `json:"aggregator"`
	Validator ValidatorConfig  `json:"validator"`
	Fees      FeesConfig       `json:"fees"`
	Logging   logging.Config   `json:"logging"`
}

// Default returns the configuration used when no file is supplied,
// matching the defaults named throughout spec.md.
func Default() Config {
	return Config{
		Pipeline: PipelineConfig{
			CandleIntervalSeconds: 60,
			MaxCandles:            100,
			MinCandlesForSignals:  50,
			EquityRecordEveryN:    10,
		},
		Aggregator: AggregatorConfig{
			MaxSignals:       1000,
			SignalTTLSeconds: 300,
		},
		Validator: ValidatorConfig{
			MinAccuracy:     0.4,
			MinSamples:      10,
			TrackByStrength: true,
		},
		Fees: FeesConfig{
			MakerRate:          0.0002,
			TakerRate:          0.0005,
			MaxPositionSizePct: 0.25,
			StartingBalance:    10000,
		},
		Logging: logging.Config{Level: "INFO", Output: "stdout", Component: "tradecore", JSONFormat: true},
	}
}

// Load reads a JSON config file, falling back to Default() values for any
// field the file omits, then applies environment variable overrides, then
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants spec.md section 3 places on configuration,
// returning core.ErrInvalidConfig wrapped with the offending field.
func (c Config) Validate() error {
	switch {
	case c.Pipeline.CandleIntervalSeconds <= 0:
		return fmt.Errorf("pipeline.candle_interval_seconds must be > 0: %w", core.ErrInvalidConfig)
	case c.Pipeline.MaxCandles <= 0:
		return fmt.Errorf("pipeline.max_candles must be > 0: %w", core.ErrInvalidConfig)
	case c.Pipeline.MinCandlesForSignals <= 0:
		return fmt.Errorf("pipeline.min_candles_for_signals must be > 0: %w", core.ErrInvalidConfig)
	case c.Aggregator.MaxSignals <= 0:
		return fmt.Errorf("aggregator.max_signals must be > 0: %w", core.ErrInvalidConfig)
	case c.Aggregator.SignalTTLSeconds <= 0:
		return fmt.Errorf("aggregator.signal_ttl_seconds must be > 0: %w", core.ErrInvalidConfig)
	case c.Validator.MinAccuracy < 0 || c.Validator.MinAccuracy > 1:
		return fmt.Errorf("validator.min_accuracy must be in [0,1]: %w", core.ErrInvalidConfig)
	case c.Fees.MaxPositionSizePct <= 0 || c.Fees.MaxPositionSizePct > 1:
		return fmt.Errorf("fees.max_position_size_pct must be in (0,1]: %w", core.ErrInvalidConfig)
	case c.Fees.StartingBalance <= 0:
		return fmt.Errorf("fees.starting_balance must be > 0: %w", core.ErrInvalidConfig)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Pipeline.CandleIntervalSeconds = getEnvIntOrDefault("TRADECORE_CANDLE_INTERVAL_SECONDS", cfg.Pipeline.CandleIntervalSeconds)
	cfg.Pipeline.MaxCandles = getEnvIntOrDefault("TRADECORE_MAX_CANDLES", cfg.Pipeline.MaxCandles)
	cfg.Pipeline.MinCandlesForSignals = getEnvIntOrDefault("TRADECORE_MIN_CANDLES_FOR_SIGNALS", cfg.Pipeline.MinCandlesForSignals)
	cfg.Aggregator.MaxSignals = getEnvIntOrDefault("TRADECORE_MAX_SIGNALS", cfg.Aggregator.MaxSignals)
	cfg.Aggregator.SignalTTLSeconds = getEnvIntOrDefault("TRADECORE_SIGNAL_TTL_SECONDS", cfg.Aggregator.SignalTTLSeconds)
	cfg.Validator.MinAccuracy = getEnvFloatOrDefault("TRADECORE_MIN_ACCURACY", cfg.Validator.MinAccuracy)
	cfg.Fees.MakerRate = getEnvFloatOrDefault("TRADECORE_MAKER_RATE", cfg.Fees.MakerRate)
	cfg.Fees.TakerRate = getEnvFloatOrDefault("TRADECORE_TAKER_RATE", cfg.Fees.TakerRate)
	cfg.Logging.Level = getEnvOrDefault("TRADECORE_LOG_LEVEL", cfg.Logging.Level)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
