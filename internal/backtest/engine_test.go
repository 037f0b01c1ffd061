package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"tradecore/internal/config"
	"tradecore/internal/core"
	"tradecore/internal/orchestrator"
	"tradecore/internal/simulator"
)

func testStrategy() core.Strategy {
	return core.Strategy{
		Name:              "Test",
		SignalWeights:     map[core.SignalType]float64{core.SignalRSI: 1.0},
		SignalThreshold:   0.5,
		MinSignalStrength: 0.1,
		MinConfidence:     5,
		Risk: core.RiskConfig{
			MaxPositionPct:     10,
			StopLossATRMult:    1.5,
			TakeProfitATRMult:  2.0,
			TrailActivationPct: 0.5,
			TrailDistancePct:   0.3,
		},
	}
}

func newTestCore() *orchestrator.Core {
	cfg := config.Default()
	cfg.Pipeline.EquityRecordEveryN = 5
	sim := simulator.New(simulator.DefaultConfig())
	return orchestrator.New("BTC", testStrategy(), cfg, 0.5, sim, nil, nil)
}

func flatPriceEvents(n int, price float64, base time.Time) []Event {
	events := make([]Event, n)
	for i := 0; i < n; i++ {
		events[i] = Event{
			Kind: PriceEvent,
			Price: core.PriceUpdate{
				Timestamp: base.Add(time.Duration(i) * time.Minute),
				Coin:      "BTC",
				Open:      100, High: 101, Low: 99, Close: 100,
				Volume: 10,
			},
		}
	}
	return events
}

func TestRunWithNoTradesProducesZeroedMetrics(t *testing.T) {
	tc := newTestCore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := flatPriceEvents(60, 100, base)

	result, err := Run(context.Background(), tc, events,
		map[string]float64{"BTC": 100}, base.Add(time.Hour),
		Config{StartingBalance: 10000}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalTrades != 0 {
		t.Fatalf("expected no trades on a flat price series, got %d", result.TotalTrades)
	}
	if result.WinRate != 0 || result.ProfitFactor != 0 {
		t.Errorf("expected zeroed win rate/profit factor with no trades, got %+v", result)
	}
	if len(result.EquityCurve) == 0 {
		t.Error("expected at least one recorded equity point")
	}
}

func TestRunOutOfOrderEventErrors(t *testing.T) {
	tc := newTestCore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Kind: TickEvent, Tick: core.TradeTick{Timestamp: now, Coin: "BTC", Price: 100, Size: 1, Side: core.SideAggressorBuy}},
		{Kind: TickEvent, Tick: core.TradeTick{Timestamp: now.Add(-time.Hour), Coin: "BTC", Price: 100, Size: 1, Side: core.SideAggressorBuy}},
	}

	_, err := Run(context.Background(), tc, events, map[string]float64{"BTC": 100}, now, Config{}, nil)
	if err == nil {
		t.Fatal("expected an out-of-order tick error to propagate")
	}
}

func TestProfitFactor(t *testing.T) {
	cases := []struct {
		name                  string
		grossProfit, grossLoss float64
		want                  float64
	}{
		{"no trades", 0, 0, 0},
		{"only wins", 500, 0, math.Inf(1)},
		{"mixed", 500, 250, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := profitFactor(c.grossProfit, c.grossLoss)
			if got != c.want {
				t.Errorf("profitFactor(%v, %v) = %v, want %v", c.grossProfit, c.grossLoss, got, c.want)
			}
		})
	}
}

func TestMaxDrawdownPercentIsPeakToTrough(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := []core.EquityPoint{
		{Timestamp: base, Equity: 10000},
		{Timestamp: base.Add(time.Hour), Equity: 12000},
		{Timestamp: base.Add(2 * time.Hour), Equity: 9000},
		{Timestamp: base.Add(3 * time.Hour), Equity: 11000},
	}
	pct, _ := maxDrawdown(curve)

	wantPct := (12000.0 - 9000.0) / 12000.0 * 100
	if math.Abs(pct-wantPct) > 1e-9 {
		t.Errorf("expected drawdown %.4f%%, got %.4f%%", wantPct, pct)
	}
}

func TestMaxDrawdownDurationMeasuresDrawdownStartToRecovery(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := []core.EquityPoint{
		{Timestamp: base, Equity: 10000},
		{Timestamp: base.Add(time.Hour), Equity: 9000},
		{Timestamp: base.Add(2 * time.Hour), Equity: 8000},
		{Timestamp: base.Add(3 * time.Hour), Equity: 15000},
	}
	pct, dur := maxDrawdown(curve)

	wantPct := (10000.0 - 8000.0) / 10000.0 * 100
	if math.Abs(pct-wantPct) > 1e-9 {
		t.Errorf("expected drawdown %.4f%%, got %.4f%%", wantPct, pct)
	}
	// Duration spans from when the curve first fell below the 10000 peak
	// (t+1h) to the new high at t+3h, not the narrower 1h peak-to-trough
	// interval between t+0h and t+2h.
	wantDur := 2 * time.Hour
	if dur != wantDur {
		t.Errorf("expected drawdown duration of %v, got %v", wantDur, dur)
	}
}

func TestMaxDrawdownZeroDurationWhenCurveEndsInDrawdown(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := []core.EquityPoint{
		{Timestamp: base, Equity: 10000},
		{Timestamp: base.Add(time.Hour), Equity: 8000},
	}
	pct, dur := maxDrawdown(curve)
	if math.Abs(pct-20) > 1e-9 {
		t.Errorf("expected 20%% drawdown, got %.4f%%", pct)
	}
	if dur != 0 {
		t.Errorf("expected zero duration when the curve never recovers to a new high, got %v", dur)
	}
}

func TestSharpeRatioZeroWithFewerThanTwoPoints(t *testing.T) {
	if got := sharpeRatio(nil, 365); got != 0 {
		t.Errorf("expected 0 with no equity points, got %v", got)
	}
	if got := sharpeRatio([]core.EquityPoint{{Equity: 100}}, 365); got != 0 {
		t.Errorf("expected 0 with a single equity point, got %v", got)
	}
}

func TestSharpeRatioZeroWhenReturnsAreConstant(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := []core.EquityPoint{
		{Timestamp: base, Equity: 10000},
		{Timestamp: base.Add(time.Hour), Equity: 10100},
		{Timestamp: base.Add(2 * time.Hour), Equity: 10201},
	}
	if got := sharpeRatio(curve, 365*24); got != 0 {
		t.Errorf("expected 0 stddev of a constant return stream to yield Sharpe 0, got %v", got)
	}
}

func TestAccumulateSignalStatsBreaksDownBySignalType(t *testing.T) {
	trades := []core.Trade{
		{EntryPrice: 100, Size: 1, PnL: 50, SignalsConsidered: []string{"RSI", "MACD"}},
		{EntryPrice: 100, Size: 1, PnL: -20, SignalsConsidered: []string{"RSI"}},
	}
	result := summarize(trades, nil, Config{StartingBalance: 10000})

	rsi, ok := result.BySignalType[core.SignalRSI]
	if !ok {
		t.Fatal("expected an RSI breakdown entry")
	}
	if rsi.TotalTrades != 2 || rsi.Wins != 1 {
		t.Errorf("expected RSI to have 2 trades / 1 win, got %+v", rsi)
	}

	macd, ok := result.BySignalType[core.SignalMACD]
	if !ok {
		t.Fatal("expected a MACD breakdown entry")
	}
	if macd.TotalTrades != 1 || macd.Wins != 1 {
		t.Errorf("expected MACD to have 1 trade / 1 win, got %+v", macd)
	}
}
