package detectors

import (
	"math"
	"testing"
	"time"

	"tradecore/internal/core"
	"tradecore/internal/volume"
)

func candleAt(i int, price float64) core.Candle {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
	return core.Candle{Timestamp: ts, Open: price, High: price, Low: price, Close: price}
}

func TestMomentumDetectsCrossoverOnce(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())

	var candles []core.Candle
	for i := 0; i < 40; i++ {
		price := 100.0
		if i >= 25 {
			price = 100 + float64(i-24)*2
		}
		candles = append(candles, candleAt(i, price))
	}

	var last core.Signal
	var gotOne bool
	for i := range candles {
		sig, ok := m.Detect("BTC", candles[:i+1])
		if ok {
			if gotOne {
				t.Fatalf("expected exactly one crossover signal, got a second at index %d", i)
			}
			gotOne = true
			last = sig
		}
	}
	if !gotOne {
		t.Fatal("expected a crossover signal in an uptrend")
	}
	if last.Direction != core.Long {
		t.Errorf("expected LONG crossover in uptrend, got %v", last.Direction)
	}
}

func TestMomentumInsufficientCandles(t *testing.T) {
	m := NewMomentum(DefaultMomentumConfig())
	if _, ok := m.Detect("BTC", []core.Candle{candleAt(0, 100)}); ok {
		t.Error("expected false with too few candles")
	}
}

func TestRSIThresholdEmitsLongWhenOversold(t *testing.T) {
	r := NewRSI(DefaultRSIConfig())
	var candles []core.Candle
	price := 100.0
	for i := 0; i < 20; i++ {
		price -= 2
		candles = append(candles, candleAt(i, price))
	}
	sig, ok := r.Detect("BTC", candles)
	if !ok {
		t.Fatal("expected a signal from a sustained downtrend")
	}
	if sig.Direction != core.Long {
		t.Errorf("expected LONG (oversold), got %v", sig.Direction)
	}
	if sig.Strength < 0.1 || sig.Strength > 1.0 {
		t.Errorf("strength out of range: %v", sig.Strength)
	}
}

func TestRSICooldownBlocksRepeat(t *testing.T) {
	r := NewRSI(DefaultRSIConfig())
	var candles []core.Candle
	price := 100.0
	for i := 0; i < 20; i++ {
		price -= 2
		candles = append(candles, candleAt(i, price))
	}
	_, ok := r.Detect("BTC", candles)
	if !ok {
		t.Fatal("expected first signal")
	}
	candles = append(candles, candleAt(len(candles), price-2))
	if _, ok := r.Detect("BTC", candles); ok {
		t.Error("expected cooldown to block an immediate repeat")
	}
}

func TestMACDCrossoverRequiresMinHistogram(t *testing.T) {
	cfg := DefaultMACDConfig()
	cfg.MinHistogram = 1e9
	m := NewMACD(cfg)

	var candles []core.Candle
	for i := 0; i < 60; i++ {
		candles = append(candles, candleAt(i, 100+float64(i)*0.3))
	}
	if _, ok := m.Detect("BTC", candles); ok {
		t.Error("expected disabled MACD (huge min_histogram) to never signal")
	}
}

func TestVolumeProfileBreakoutUp(t *testing.T) {
	b := volume.NewBuilder(10, volume.SessionRolling, "BTC")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		b.AddTrade(core.TradeTick{Timestamp: base, Coin: "BTC", Price: 50000, Size: 10, Side: core.SideAggressorBuy})
	}
	profile := b.Profile()

	vp := NewVolumeProfile(DefaultVolumeProfileConfig())
	vp.UpdateProfile(profile)

	var candles []core.Candle
	for i := 0; i < 10; i++ {
		candles = append(candles, candleAt(i, 50000))
	}
	for i := 0; i < 3; i++ {
		candles = append(candles, candleAt(10+i, 51000))
	}

	sig, ok := vp.Detect("BTC", candles)
	if !ok {
		t.Fatal("expected a breakout-up signal")
	}
	if sig.Direction != core.Long {
		t.Errorf("expected LONG, got %v", sig.Direction)
	}
	if setup, _ := sig.Metadata["setup"].(string); setup != "va_breakout_up" {
		t.Errorf("expected va_breakout_up setup, got %v", sig.Metadata["setup"])
	}
}

func TestLocalExtremesSymmetric(t *testing.T) {
	values := []float64{1, 2, 3, 10, 3, 2, 1, 0, -1, 0, 1, 2}
	highs, lows := localExtremes(values, 3)
	if len(highs) == 0 {
		t.Error("expected at least one local high")
	}
	if len(lows) == 0 {
		t.Error("expected at least one local low")
	}
	for _, h := range highs {
		if math.IsNaN(h.value) {
			t.Error("unexpected NaN in highs")
		}
	}
}
