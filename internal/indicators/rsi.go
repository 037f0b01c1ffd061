package indicators

// RSI computes the Relative Strength Index using a simple average of
// gains/losses over the last period price changes (most recent last).
// Requires at least period+1 prices.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	changes := diffs(prices)
	recent := changes[len(changes)-period:]

	avgGain, avgLoss := averageGainLoss(recent)
	return rsiFromAverages(avgGain, avgLoss), true
}

// RSIWilder computes RSI using Wilder's smoothing method: the averages are
// seeded with a simple mean over the first period changes, then smoothed
// as avg = (avg*(period-1)+cur)/period for every subsequent change.
func RSIWilder(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	changes := diffs(prices)
	avgGain, avgLoss := averageGainLoss(changes[:period])

	for _, c := range changes[period:] {
		gain, loss := gainLoss(c)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	return rsiFromAverages(avgGain, avgLoss), true
}

func diffs(prices []float64) []float64 {
	changes := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes[i-1] = prices[i] - prices[i-1]
	}
	return changes
}

func gainLoss(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func averageGainLoss(changes []float64) (avgGain, avgLoss float64) {
	var gainSum, lossSum float64
	for _, c := range changes {
		g, l := gainLoss(c)
		gainSum += g
		lossSum += l
	}
	n := float64(len(changes))
	return gainSum / n, lossSum / n
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100.0
		}
		return 50.0
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
