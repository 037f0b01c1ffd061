package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tradecore/internal/core"
)

func TestLoadDefaultsWhenNoPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pipeline.MaxCandles != 100 {
		t.Errorf("expected default max_candles=100, got %d", cfg.Pipeline.MaxCandles)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"pipeline":{"max_candles":250,"candle_interval_seconds":60,"min_candles_for_signals":50}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pipeline.MaxCandles != 250 {
		t.Errorf("expected file override max_candles=250, got %d", cfg.Pipeline.MaxCandles)
	}
	if cfg.Fees.StartingBalance != Default().Fees.StartingBalance {
		t.Errorf("expected untouched field to keep its default")
	}
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	t.Setenv("TRADECORE_MAX_CANDLES", "42")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pipeline.MaxCandles != 42 {
		t.Errorf("expected env override max_candles=42, got %d", cfg.Pipeline.MaxCandles)
	}
}

func TestValidateRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.MaxCandles = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected core.ErrInvalidConfig, got %v", err)
	}
}
