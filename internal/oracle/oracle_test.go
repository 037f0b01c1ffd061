package oracle

import (
	"context"
	"errors"
	"testing"

	"tradecore/internal/core"
)

func TestAutoConfirmConfirms(t *testing.T) {
	o := AutoConfirm{}
	c, err := o.Confirm(context.Background(), core.Long, 0.9, nil, nil, core.MarketContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Confirmed || c.Confidence != 7 || c.Reason != "auto" {
		t.Errorf("expected (true, 7, auto), got %+v", c)
	}
}

func TestAutoConfirmRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := AutoConfirm{}
	_, err := o.Confirm(ctx, core.Long, 0.9, nil, nil, core.MarketContext{})
	if !errors.Is(err, core.ErrOracleCancelled) {
		t.Errorf("expected ErrOracleCancelled, got %v", err)
	}
}
