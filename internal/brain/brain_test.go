package brain

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"tradecore/internal/core"
	"tradecore/internal/metrics"
	"tradecore/internal/oracle"
)

type rejectingOracle struct{}

func (rejectingOracle) Confirm(ctx context.Context, direction core.Direction, score float64, signals []core.Signal, positions []core.Position, marketCtx core.MarketContext) (oracle.Confirmation, error) {
	return oracle.Confirmation{Confirmed: false, Reason: "test reject"}, nil
}

func counterValue(c prometheus.Counter) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		panic(err)
	}
	return pb.GetCounter().GetValue()
}

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

func TestEvaluateWaitsWithNoMatchingSignals(t *testing.T) {
	b := New(testStrategy(), nil, nil)
	ctx := core.MarketContext{Coin: "BTC", CurrentPrice: 100, ATR: 2}
	plan := b.Evaluate(context.Background(), nil, nil, ctx)
	if plan.Action != core.Wait {
		t.Errorf("expected WAIT, got %v", plan.Action)
	}
}

func TestEvaluateProducesLongPlanAboveThreshold(t *testing.T) {
	b := New(testStrategy(), nil, nil)
	signals := []core.Signal{
		{Coin: "BTC", SignalType: core.SignalRSI, Direction: core.Long, Strength: 0.9, Timestamp: time.Now()},
	}
	marketCtx := core.NewMarketContext("BTC", 81, 2)
	plan := b.Evaluate(context.Background(), signals, nil, marketCtx)
	if plan.Action != core.Long {
		t.Fatalf("expected LONG, got %v", plan.Action)
	}
	wantStop := 81 - 2*1.5*0.4
	if diff := plan.StopLoss - wantStop; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected stop_loss %.4f, got %.4f", wantStop, plan.StopLoss)
	}
	wantTP := 81 + 2*2.0*1.0
	if diff := plan.TakeProfit - wantTP; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected take_profit %.4f, got %.4f", wantTP, plan.TakeProfit)
	}
	if len(plan.SignalsConsidered) != 1 || plan.SignalsConsidered[0] != "RSI:LONG" {
		t.Errorf("expected signals_considered [RSI:LONG], got %v", plan.SignalsConsidered)
	}
}

func TestEvaluateFiltersOutOtherCoins(t *testing.T) {
	b := New(testStrategy(), nil, nil)
	signals := []core.Signal{
		{Coin: "ETH", SignalType: core.SignalRSI, Direction: core.Long, Strength: 0.9, Timestamp: time.Now()},
	}
	plan := b.Evaluate(context.Background(), signals, nil, core.MarketContext{Coin: "BTC", CurrentPrice: 100, ATR: 2})
	if plan.Action != core.Wait {
		t.Errorf("expected WAIT for unmatched coin, got %v", plan.Action)
	}
}

func TestEvaluateWaitsBelowThreshold(t *testing.T) {
	strat := testStrategy()
	strat.SignalThreshold = 5.0
	b := New(strat, nil, nil)
	signals := []core.Signal{
		{Coin: "BTC", SignalType: core.SignalRSI, Direction: core.Long, Strength: 0.5, Timestamp: time.Now()},
	}
	plan := b.Evaluate(context.Background(), signals, nil, core.MarketContext{Coin: "BTC", CurrentPrice: 100, ATR: 2})
	if plan.Action != core.Wait {
		t.Errorf("expected WAIT below threshold, got %v", plan.Action)
	}
}

func TestEvaluateWaitsOnLowConfidence(t *testing.T) {
	strat := testStrategy()
	strat.MinConfidence = 9
	b := New(strat, nil, nil)
	signals := []core.Signal{
		{Coin: "BTC", SignalType: core.SignalRSI, Direction: core.Long, Strength: 0.9, Timestamp: time.Now()},
	}
	plan := b.Evaluate(context.Background(), signals, nil, core.MarketContext{Coin: "BTC", CurrentPrice: 100, ATR: 2})
	if plan.Action != core.Wait {
		t.Errorf("expected WAIT on confidence below strategy minimum (default oracle confidence is 7), got %v", plan.Action)
	}
}

func TestEvaluateIncrementsOracleConfirmedMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	b := New(testStrategy(), nil, m)
	signals := []core.Signal{
		{Coin: "BTC", SignalType: core.SignalRSI, Direction: core.Long, Strength: 0.9, Timestamp: time.Now()},
	}
	plan := b.Evaluate(context.Background(), signals, nil, core.NewMarketContext("BTC", 81, 2))
	if plan.Action != core.Long {
		t.Fatalf("expected LONG, got %v", plan.Action)
	}
	if got := counterValue(m.OracleConfirmed); got != 1 {
		t.Errorf("expected OracleConfirmed incremented once, got %v", got)
	}
	if got := counterValue(m.OracleRejected); got != 0 {
		t.Errorf("expected OracleRejected untouched, got %v", got)
	}
}

func TestEvaluateIncrementsOracleRejectedMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	b := New(testStrategy(), rejectingOracle{}, m)
	signals := []core.Signal{
		{Coin: "BTC", SignalType: core.SignalRSI, Direction: core.Long, Strength: 0.9, Timestamp: time.Now()},
	}
	plan := b.Evaluate(context.Background(), signals, nil, core.NewMarketContext("BTC", 81, 2))
	if plan.Action != core.Wait {
		t.Fatalf("expected WAIT from a rejecting oracle, got %v", plan.Action)
	}
	if got := counterValue(m.OracleRejected); got != 1 {
		t.Errorf("expected OracleRejected incremented once, got %v", got)
	}
	if got := counterValue(m.OracleConfirmed); got != 0 {
		t.Errorf("expected OracleConfirmed untouched, got %v", got)
	}
}
