package volume

import "sort"

// POC returns the bucket price with maximal total volume. Ties take the
// lowest price. ok is false for an empty profile.
func POC(p Profile) (float64, bool) {
	if p.IsEmpty() {
		return 0, false
	}
	prices := p.SortedPrices()
	best := prices[0]
	bestVol := p.Levels[best].TotalVolume
	for _, price := range prices[1:] {
		if v := p.Levels[price].TotalVolume; v > bestVol {
			best, bestVol = price, v
		}
	}
	return best, true
}

// ValueArea computes the contiguous price range around the POC containing
// at least percentage of total volume (default caller passes 0.70).
// Expansion alternates above/below the current range, taking whichever
// neighbour has more volume; ties add the upper bucket first. ok is false
// for an empty or zero-volume profile.
func ValueArea(p Profile, percentage float64) (low, high float64, ok bool) {
	total := p.TotalVolume()
	if p.IsEmpty() || total == 0 {
		return 0, 0, false
	}
	target := total * percentage

	prices := p.SortedPrices()
	poc, ok := POC(p)
	if !ok {
		return 0, 0, false
	}
	pocIdx := indexOf(prices, poc)

	loIdx, hiIdx := pocIdx, pocIdx
	accumulated := p.Levels[poc].TotalVolume

	for accumulated < target {
		var above, below float64
		haveAbove := hiIdx+1 < len(prices)
		haveBelow := loIdx-1 >= 0
		if haveAbove {
			above = p.Levels[prices[hiIdx+1]].TotalVolume
		}
		if haveBelow {
			below = p.Levels[prices[loIdx-1]].TotalVolume
		}
		if !haveAbove && !haveBelow {
			break
		}
		if above >= below {
			hiIdx++
			accumulated += above
		} else {
			loIdx--
			accumulated += below
		}
	}

	return prices[loIdx], prices[hiIdx], true
}

// HVN returns the top (1-thresholdPct) fraction of buckets by volume
// (at least minLevels), sorted highest volume first.
func HVN(p Profile, thresholdPct float64, minLevels int) []float64 {
	sorted := sortedByVolume(p, true)
	if len(sorted) == 0 {
		return nil
	}
	cutoff := int(float64(len(sorted)) * (1 - thresholdPct))
	if cutoff < minLevels {
		cutoff = minLevels
	}
	if cutoff > len(sorted) {
		cutoff = len(sorted)
	}
	return sorted[:cutoff]
}

// LVN returns the bottom thresholdPct fraction of buckets by volume
// (at least minLevels), sorted lowest volume first.
func LVN(p Profile, thresholdPct float64, minLevels int) []float64 {
	sorted := sortedByVolume(p, false)
	if len(sorted) == 0 {
		return nil
	}
	cutoff := int(float64(len(sorted)) * thresholdPct)
	if cutoff < minLevels {
		cutoff = minLevels
	}
	if cutoff > len(sorted) {
		cutoff = len(sorted)
	}
	return sorted[:cutoff]
}

type priceVolume struct {
	price, volume float64
}

func sortedByVolume(p Profile, descending bool) []float64 {
	prices := p.SortedPrices()
	pairs := make([]priceVolume, len(prices))
	for i, price := range prices {
		pairs[i] = priceVolume{price, p.Levels[price].TotalVolume}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if descending {
			return pairs[i].volume > pairs[j].volume
		}
		return pairs[i].volume < pairs[j].volume
	})
	out := make([]float64, len(pairs))
	for i, pair := range pairs {
		out[i] = pair.price
	}
	return out
}

func indexOf(prices []float64, target float64) int {
	for i, p := range prices {
		if p == target {
			return i
		}
	}
	return -1
}

// IsPriceInValueArea reports whether price falls within [val, vah].
func IsPriceInValueArea(p Profile, price, percentage float64) bool {
	low, high, ok := ValueArea(p, percentage)
	if !ok {
		return false
	}
	return price >= low && price <= high
}
