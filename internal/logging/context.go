package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const loggerKey contextKey = "logger"

// GenerateTraceID returns a new random trace identifier.
func GenerateTraceID() string {
	return uuid.New().String()
}

// FromContext retrieves the logger carried by ctx, or Default() if none.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return Default()
}

// NewContext returns a context carrying l.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithTraceContext stamps ctx with a fresh trace id and returns both the
// context and a logger carrying it.
func WithTraceContext(ctx context.Context) (context.Context, *Logger) {
	l := Default().WithTraceID(GenerateTraceID())
	return NewContext(ctx, l), l
}

// SignalContext builds a logger scoped to one detector's emitted signal.
func SignalContext(coin string, signalType, direction string, strength float64) *Logger {
	return Default().WithFields(map[string]any{
		"coin":        coin,
		"signal_type": signalType,
		"direction":   direction,
		"strength":    strength,
	}).WithComponent("signal")
}

// PositionContext builds a logger scoped to a position lifecycle event.
func PositionContext(coin, side string, entryPrice, size float64) *Logger {
	return Default().WithFields(map[string]any{
		"coin":        coin,
		"side":        side,
		"entry_price": entryPrice,
		"size":        size,
	}).WithComponent("position")
}

// TradeContext builds a logger scoped to a closed trade.
func TradeContext(coin, side string, pnl, feesPaid float64) *Logger {
	return Default().WithFields(map[string]any{
		"coin":      coin,
		"side":      side,
		"pnl":       pnl,
		"fees_paid": feesPaid,
	}).WithComponent("trade")
}

// BacktestContext builds a logger scoped to a backtest run.
func BacktestContext(coin string, start, end time.Time) *Logger {
	return Default().WithFields(map[string]any{
		"coin":       coin,
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	}).WithComponent("backtest")
}

// RiskContext builds a logger scoped to a risk-sizing decision.
func RiskContext(coin string, positionPct, stopLoss, takeProfit float64) *Logger {
	return Default().WithFields(map[string]any{
		"coin":         coin,
		"position_pct": positionPct,
		"stop_loss":    stopLoss,
		"take_profit":  takeProfit,
	}).WithComponent("risk")
}

// OracleContext builds a logger scoped to a Confirmation Oracle call.
func OracleContext(coin, direction string, score float64) *Logger {
	return Default().WithFields(map[string]any{
		"coin":      coin,
		"direction": direction,
		"score":     score,
	}).WithComponent("oracle")
}
