package indicators

import (
	"math"
	"testing"

	"tradecore/internal/core"
)

func closeEnough(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestSMAMatchesDefinition(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	got, ok := SMA(prices, 3)
	if !ok {
		t.Fatal("expected ok")
	}
	want := (3.0 + 4.0 + 5.0) / 3.0
	if !closeEnough(got, want, 1e-9) {
		t.Errorf("SMA = %v, want %v", got, want)
	}
}

func TestSMAInsufficientData(t *testing.T) {
	if _, ok := SMA([]float64{1, 2}, 5); ok {
		t.Error("expected ok=false for insufficient data")
	}
}

func TestEMASeriesLength(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	series := EMASeries(prices, 10)
	want := len(prices) - 10 + 1
	if len(series) != want {
		t.Errorf("EMASeries length = %d, want %d", len(series), want)
	}
}

func TestEMAEmptyReturnsNoValues(t *testing.T) {
	if series := EMASeries(nil, 5); len(series) != 0 {
		t.Errorf("expected empty series, got %d", len(series))
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = float64(i)
	}
	got, ok := RSI(prices, 14)
	if !ok {
		t.Fatal("expected ok")
	}
	if got != 100 {
		t.Errorf("RSI with all gains = %v, want 100", got)
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = float64(15 - i)
	}
	got, ok := RSI(prices, 14)
	if !ok {
		t.Fatal("expected ok")
	}
	if got != 0 {
		t.Errorf("RSI with all losses = %v, want 0", got)
	}
}

func TestRSIDomain(t *testing.T) {
	prices := []float64{100, 99, 101, 98, 102, 97, 103, 96, 104, 95, 105, 94, 106, 93, 107}
	got, ok := RSI(prices, 14)
	if !ok {
		t.Fatal("expected ok")
	}
	if got < 0 || got > 100 {
		t.Errorf("RSI out of domain: %v", got)
	}
}

func TestMACDRequiresFastLessThanSlow(t *testing.T) {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	if _, ok := MACD(prices, 26, 12, 9); ok {
		t.Error("expected MACD to reject fast >= slow")
	}
}

func TestMACDInsufficientData(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	if _, ok := MACD(prices, 12, 26, 9); ok {
		t.Error("expected insufficient data to reject")
	}
}

func TestMACDComputesHistogram(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = float64(100) + float64(i)*0.5
	}
	r, ok := MACD(prices, 12, 26, 9)
	if !ok {
		t.Fatal("expected ok")
	}
	if !closeEnough(r.Histogram, r.MACDLine-r.SignalLine, 1e-9) {
		t.Errorf("histogram should equal macd-signal, got %+v", r)
	}
}

func TestATRNonNegative(t *testing.T) {
	candles := []core.Candle{
		{High: 10, Low: 9, Close: 9.5},
		{High: 11, Low: 9.2, Close: 10.5},
		{High: 10.8, Low: 10, Close: 10.2},
	}
	// pad to satisfy period+1
	for i := 0; i < 20; i++ {
		candles = append(candles, core.Candle{High: 10.5 + float64(i%3)*0.1, Low: 10 + float64(i%2)*0.1, Close: 10.2})
	}
	val, ok := ATR(candles, 14)
	if !ok {
		t.Fatal("expected ok")
	}
	if val < 0 {
		t.Errorf("ATR should be non-negative, got %v", val)
	}
}

func TestATRFirstTrueRangeHasNoPreviousClose(t *testing.T) {
	c := core.Candle{High: 10, Low: 8}
	tr := TrueRange(c, 0, false)
	if tr != 2 {
		t.Errorf("expected TR=2 for first candle, got %v", tr)
	}
}
