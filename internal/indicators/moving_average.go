// Package indicators holds pure functions over price/candle slices: SMA,
// EMA, RSI, MACD, and ATR. None of them carry state — detector-level state
// (cooldowns, dedup flags) lives in the detectors package instead.
package indicators

// SMA returns the arithmetic mean of the last period prices, most recent
// last. The second return value is false when there isn't enough data.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	window := prices[len(prices)-period:]
	sum := 0.0
	for _, p := range window {
		sum += p
	}
	return sum / float64(period), true
}

// EMA returns the latest exponential moving average value, seeded with an
// SMA over the first period prices.
func EMA(prices []float64, period int) (float64, bool) {
	series := EMASeries(prices, period)
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// EMASeries returns the full EMA series for prices, one value per point
// from index period-1 onward (length = len(prices) - period + 1). The
// first value is seeded with SMA over the first period prices; subsequent
// values apply the standard multiplier k = 2/(period+1).
func EMASeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	k := 2.0 / float64(period+1)
	result := make([]float64, 0, len(prices)-period+1)

	sum := 0.0
	for _, p := range prices[:period] {
		sum += p
	}
	result = append(result, sum/float64(period))

	for _, p := range prices[period:] {
		prev := result[len(result)-1]
		result = append(result, (p-prev)*k+prev)
	}
	return result
}
