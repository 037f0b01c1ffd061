package candle

import (
	"errors"
	"testing"
	"time"

	"tradecore/internal/core"
)

func ts(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

func TestAddTickOpensFirstCandle(t *testing.T) {
	a := New(10*time.Second, 100)
	_, finalised, err := a.AddTick(100, 1, ts(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finalised {
		t.Fatal("first tick should not finalise a candle")
	}
	cur, ok := a.CurrentCandle()
	if !ok {
		t.Fatal("expected an in-progress candle")
	}
	if cur.Open != 100 || cur.High != 100 || cur.Low != 100 || cur.Close != 100 {
		t.Errorf("unexpected OHLC seed: %+v", cur)
	}
	if cur.Volume != 1 || cur.TradeCount != 1 {
		t.Errorf("expected first tick's volume/count to be folded in, got %+v", cur)
	}
}

func TestAddTickFinalisesOnIntervalCross(t *testing.T) {
	a := New(10*time.Second, 100)
	a.AddTick(100, 1, ts(1))
	a.AddTick(105, 1, ts(5))
	a.AddTick(95, 1, ts(8))

	finalised, didFinalise, err := a.AddTick(110, 2, ts(12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !didFinalise {
		t.Fatal("expected the interval-crossing tick to finalise a candle")
	}
	if !finalised.Valid() {
		t.Errorf("finalised candle violates OHLC invariant: %+v", finalised)
	}
	if finalised.Open != 100 || finalised.High != 105 || finalised.Low != 95 || finalised.Close != 95 {
		t.Errorf("unexpected finalised candle: %+v", finalised)
	}
	if len(a.Candles()) != 1 {
		t.Fatalf("expected 1 buffered candle, got %d", len(a.Candles()))
	}
}

func TestAddTickOutOfOrderIsError(t *testing.T) {
	a := New(10*time.Second, 100)
	a.AddTick(100, 1, ts(15))
	_, _, err := a.AddTick(101, 1, ts(5))
	if !errors.Is(err, core.ErrTickOutOfOrder) {
		t.Fatalf("expected ErrTickOutOfOrder, got %v", err)
	}
}

func TestRingBufferBoundedByMaxCandles(t *testing.T) {
	a := New(1*time.Second, 3)
	for i := int64(0); i < 10; i++ {
		a.AddTick(float64(100+i), 1, ts(i))
	}
	if len(a.Candles()) > 3 {
		t.Fatalf("expected buffer bounded to 3, got %d", len(a.Candles()))
	}
}
