// Command live loads a strategy and runs the channel-fed live driver
// stub against stdin: each line is a JSON-encoded event (same shape as
// the backtest event file, one per line instead of an array, so a
// long-running feed never has to buffer the whole history in memory).
// It wires no exchange or WebSocket client; feeding it requires an
// external process to pipe events onto stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"tradecore/internal/config"
	"tradecore/internal/core"
	"tradecore/internal/live"
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
	presetName := flag.String("strategy", "momentum_based", "named strategy preset to run")
	presetPath := flag.String("strategy-file", "", "optional YAML file of additional strategy presets")
	coin := flag.String("coin", "BTC", "instrument to trade")
	tickSize := flag.Float64("tick-size", 0.5, "Volume Profile bucket size for the instrument")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "live: load config: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logging.New(cfg.Logging))
	log := logging.Default()

	strategies := preset.Defaults()
	if *presetPath != "" {
		extra, err := preset.Load(*presetPath)
		if err != nil {
			log.Fatal("load strategy file: " + err.Error())
		}
		for k, v := range extra {
			strategies[k] = v
		}
	}
	strat, ok := strategies[*presetName]
	if !ok {
		log.Fatal(fmt.Sprintf("unknown strategy preset %q", *presetName))
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
	driver := live.New(tc, m)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	events := make(chan live.Event)
	var mu sync.Mutex
	lastPrices := map[string]float64{}
	go pumpStdin(ctx, events, &mu, lastPrices, log)

	trades, err := driver.Run(ctx, events, func() map[string]float64 {
		mu.Lock()
		defer mu.Unlock()
		out := make(map[string]float64, len(lastPrices))
		for k, v := range lastPrices {
			out[k] = v
		}
		return out
	})
	if err != nil {
		log.Fatal("live run failed: " + err.Error())
	}
	fmt.Printf("closed %d position(s) on shutdown\n", len(trades))
}

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

// pumpStdin decodes one JSON event per line from stdin and forwards it
// to events, tracking the latest observed price per coin along the way
// for the driver's shutdown close_all call. Closes events when stdin is
// exhausted or ctx is cancelled.
func pumpStdin(ctx context.Context, events chan<- live.Event, mu *sync.Mutex, lastPrices map[string]float64, log *logging.Logger) {
	defer close(events)
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r rawEvent
		if err := json.Unmarshal(line, &r); err != nil {
			log.Warn("skipping malformed event line: " + err.Error())
			continue
		}

		ev, price, ok := toLiveEvent(r)
		if !ok {
			log.Warn(fmt.Sprintf("skipping event with unknown kind %q", r.Kind))
			continue
		}

		mu.Lock()
		lastPrices[r.Coin] = price
		mu.Unlock()

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func toLiveEvent(r rawEvent) (live.Event, float64, bool) {
	switch r.Kind {
	case "price":
		return live.Event{
			Kind: live.PriceEvent,
			Price: core.PriceUpdate{
				Timestamp: r.Timestamp, Coin: r.Coin,
				Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
				Volume: r.Volume,
			},
		}, r.Close, true
	case "tick":
		return live.Event{
			Kind: live.TickEvent,
			Tick: core.TradeTick{
				Timestamp: r.Timestamp, Coin: r.Coin,
				Price: r.Price, Size: r.Size, Side: core.Side(r.Side),
			},
		}, r.Price, true
	default:
		return live.Event{}, 0, false
	}
}
