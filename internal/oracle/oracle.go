// Package oracle defines the pluggable confirmation gate the decision
// brain consults after its score passes threshold. The upstream system
// couples this step to a local LLM client; here it is an interface with
// one default, deterministic implementation so backtest/live parity
// holds regardless of what an operator wires in its place.
package oracle

import (
	"context"

	"tradecore/internal/core"
)

// Confirmation is the oracle's verdict on a candidate trade direction.
type Confirmation struct {
	Confirmed  bool
	Confidence int // 1-10
	Reason     string
}

// ConfirmationOracle is consulted by the brain after a direction's
// weighted score clears the strategy's signal_threshold. Implementations
// must respect ctx cancellation: a cancelled call is equivalent to "not
// confirmed" (core.ErrOracleCancelled), which the brain maps to WAIT.
type ConfirmationOracle interface {
	Confirm(ctx context.Context, direction core.Direction, score float64, signals []core.Signal, positions []core.Position, marketCtx core.MarketContext) (Confirmation, error)
}

// AutoConfirm is the default oracle: it confirms every candidate
// unconditionally with a fixed mid-range confidence, matching the
// upstream default.
type AutoConfirm struct{}

// Confirm implements ConfirmationOracle. It still observes ctx
// cancellation so a cancelled backtest/live run behaves identically
// whether or not a real oracle is wired in.
func (AutoConfirm) Confirm(ctx context.Context, direction core.Direction, score float64, signals []core.Signal, positions []core.Position, marketCtx core.MarketContext) (Confirmation, error) {
	select {
	case <-ctx.Done():
		return Confirmation{}, core.ErrOracleCancelled
	default:
	}
	return Confirmation{Confirmed: true, Confidence: 7, Reason: "auto"}, nil
}
