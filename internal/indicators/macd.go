package indicators

// MACDResult is the output of one MACD evaluation.
type MACDResult struct {
	MACDLine   float64
	SignalLine float64
	Histogram  float64
}

// IsBullish reports whether the histogram is positive.
func (r MACDResult) IsBullish() bool { return r.Histogram > 0 }

// IsBearish reports whether the histogram is negative.
func (r MACDResult) IsBearish() bool { return r.Histogram < 0 }

// MACD computes the latest MACD line/signal line/histogram. Requires
// len(prices) >= slow+signal-1 and fast < slow.
func MACD(prices []float64, fast, slow, signal int) (MACDResult, bool) {
	series := MACDSeries(prices, fast, slow, signal)
	if len(series) == 0 {
		return MACDResult{}, false
	}
	return series[len(series)-1], true
}

// MACDSeries computes the full aligned MACD series: fast/slow EMA series
// are aligned by dropping the first slow-fast fast-EMA values, then the
// signal line is the EMA of the resulting MACD line series.
func MACDSeries(prices []float64, fast, slow, signal int) []MACDResult {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return nil
	}
	minRequired := slow + signal - 1
	if len(prices) < minRequired {
		return nil
	}

	fastEMA := EMASeries(prices, fast)
	slowEMA := EMASeries(prices, slow)
	if len(fastEMA) == 0 || len(slowEMA) == 0 {
		return nil
	}

	offset := slow - fast
	alignedFast := fastEMA[offset:]

	n := len(alignedFast)
	if len(slowEMA) < n {
		n = len(slowEMA)
	}
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = alignedFast[i] - slowEMA[i]
	}
	if len(macdLine) < signal {
		return nil
	}

	signalLine := EMASeries(macdLine, signal)
	if len(signalLine) == 0 {
		return nil
	}

	alignedMACD := macdLine[signal-1:]
	m := len(alignedMACD)
	if len(signalLine) < m {
		m = len(signalLine)
	}
	results := make([]MACDResult, m)
	for i := 0; i < m; i++ {
		results[i] = MACDResult{
			MACDLine:   alignedMACD[i],
			SignalLine: signalLine[i],
			Histogram:  alignedMACD[i] - signalLine[i],
		}
	}
	return results
}
