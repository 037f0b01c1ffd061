// Command backtest loads a strategy and a JSON-encoded event file, runs
// it through the orchestrator via internal/backtest, and prints the
// resulting metrics. It deliberately knows nothing about CSV/Parquet,
// S3, or exchange APIs (spec.md section 1 places that outside scope);
// the event file format is a flat JSON array this binary owns.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"tradecore/internal/backtest"
	"tradecore/internal/config"
	"tradecore/internal/core"
	"tradecore/internal/logging"
	"tradecore/internal/metrics"
	"tradecore/internal/oracle"
	"tradecore/internal/orchestrator"
	"tradecore/internal/simulator"
	"tradecore/internal/strategy/preset"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to a pipeline config JSON file (defaults baked in if omitted)")
	eventsPath := flag.String("events", "", "path to a JSON array of backtest events (required)")
	presetName := flag.String("strategy", "momentum_based", "named strategy preset to run")
	presetPath := flag.String("strategy-file", "", "optional YAML file of additional strategy presets")
	coin := flag.String("coin", "BTC", "instrument to backtest")
	tickSize := flag.Float64("tick-size", 0.5, "Volume Profile bucket size for the instrument")
	flag.Parse()

	if *eventsPath == "" {
		fmt.Fprintln(os.Stderr, "backtest: -events is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest: load config: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logging.New(cfg.Logging))

	strat, err := resolveStrategy(*presetName, *presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest: %v\n", err)
		os.Exit(1)
	}

	events, err := loadEvents(*eventsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest: load events: %v\n", err)
		os.Exit(1)
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, "backtest: event file is empty")
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sim := simulator.New(simulator.Config{
		StartingBalance: cfg.Fees.StartingBalance,
		Fees: simulator.FeeSchedule{
			MakerRate: cfg.Fees.MakerRate,
			TakerRate: cfg.Fees.TakerRate,
		},
		MaxPositionSizePct: cfg.Fees.MaxPositionSizePct,
		Leverage:           simulator.DefaultConfig().Leverage,
	})
	tc := orchestrator.New(*coin, strat, *cfg, *tickSize, sim, oracle.AutoConfirm{}, m)

	lastPrice, lastTime := finalMark(events, *coin)
	result, err := backtest.Run(context.Background(), tc, events,
		map[string]float64{*coin: lastPrice}, lastTime,
		backtest.Config{StartingBalance: cfg.Fees.StartingBalance}, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest: run: %v\n", err)
		os.Exit(1)
	}

	printResult(result)
}

func resolveStrategy(name, presetFile string) (core.Strategy, error) {
	strategies := preset.Defaults()
	if presetFile != "" {
		extra, err := preset.Load(presetFile)
		if err != nil {
			return core.Strategy{}, fmt.Errorf("load strategy file: %w", err)
		}
		for k, v := range extra {
			strategies[k] = v
		}
	}
	strat, ok := strategies[name]
	if !ok {
		return core.Strategy{}, fmt.Errorf("unknown strategy preset %q", name)
	}
	return strat, nil
}

// rawEvent is the JSON shape of one backtest.Event. kind is "price" or
// "tick"; only the fields relevant to that kind need be present.
type rawEvent struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Coin      string    `json:"coin"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Side      string    `json:"side"`
}

func loadEvents(path string) ([]backtest.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	events := make([]backtest.Event, 0, len(raw))
	for i, r := range raw {
		switch r.Kind {
		case "price":
			events = append(events, backtest.Event{
				Kind: backtest.PriceEvent,
				Price: core.PriceUpdate{
					Timestamp: r.Timestamp, Coin: r.Coin,
					Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
					Volume: r.Volume,
				},
			})
		case "tick":
			events = append(events, backtest.Event{
				Kind: backtest.TickEvent,
				Tick: core.TradeTick{
					Timestamp: r.Timestamp, Coin: r.Coin,
					Price: r.Price, Size: r.Size, Side: core.Side(r.Side),
				},
			})
		default:
			return nil, fmt.Errorf("event %d: unknown kind %q", i, r.Kind)
		}
	}
	return events, nil
}

// finalMark derives the last observed close/price and timestamp for
// coin from the event slice, for the shutdown close_all call.
func finalMark(events []backtest.Event, coin string) (float64, time.Time) {
	var price float64
	var t time.Time
	for _, ev := range events {
		switch ev.Kind {
		case backtest.PriceEvent:
			if ev.Price.Coin != coin {
				continue
			}
			price, t = ev.Price.Close, ev.Price.Timestamp
		case backtest.TickEvent:
			if ev.Tick.Coin != coin {
				continue
			}
			price, t = ev.Tick.Price, ev.Tick.Timestamp
		}
	}
	return price, t
}

func printResult(r *backtest.Result) {
	fmt.Println("=== BACKTEST RESULT ===")
	fmt.Printf("Total trades:    %d\n", r.TotalTrades)
	fmt.Printf("Win rate:        %.1f%% (%d/%d)\n", r.WinRate, r.WinningTrades, r.TotalTrades)
	fmt.Printf("Net P&L:         %.2f\n", r.NetPnL)
	fmt.Printf("ROI:             %.2f%%\n", r.ROI)
	fmt.Printf("Profit factor:   %.2f\n", r.ProfitFactor)
	fmt.Printf("Max drawdown:    %.2f%% over %s\n", r.MaxDrawdownPct, r.MaxDrawdownDuration)
	fmt.Printf("Sharpe ratio:    %.2f\n", r.SharpeRatio)

	if len(r.BySignalType) == 0 {
		return
	}
	fmt.Println("\n=== BY SIGNAL TYPE ===")
	for signalType, perf := range r.BySignalType {
		fmt.Printf("%-16s trades=%-4d win_rate=%5.1f%% net_pnl=%.2f avg_pnl_pct=%.2f\n",
			signalType, perf.TotalTrades, perf.WinRate, perf.NetPnL, perf.AvgPnLPercent)
	}
}
