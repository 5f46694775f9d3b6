package technical

import (
	"sort"

	"github.com/seenimoa/stockscore/pkg/models"
)

// DefaultSRWindow is the rolling window used for swing-level detection.
const DefaultSRWindow = 20

// srClusterThreshold merges swing levels within 1.5% of each other.
const srClusterThreshold = 0.015

// PivotPoints derives classic floor-trader levels from the last bar of
// candles. ok is false for an empty series.
func PivotPoints(candles models.PriceSeries) (models.PivotLevels, bool) {
	last, ok := candles.Last()
	if !ok {
		return models.PivotLevels{}, false
	}

	h, l, c := last.High, last.Low, last.Close
	rng := h - l
	pp := (h + l + c) / 3

	return models.PivotLevels{
		Pivot: pp,
		S1:    2*pp - h,
		S2:    pp - rng,
		S3:    l - 2*(h-pp),
		R1:    2*pp - l,
		R2:    pp + rng,
		R3:    h + 2*(pp-l),
	}, true
}

// AutoSupportResistance finds swing levels with a centered rolling window.
// A bar whose high equals the highest high of the window around it is a
// resistance candidate; a bar whose low equals the lowest low is a support
// candidate. Only full windows count, so the first and last window/2 bars
// never qualify. Candidates within 1.5% of each other are merged into
// their mean. ok is false when the series is shorter than window.
func AutoSupportResistance(candles models.PriceSeries, window int) (models.SupportResistance, bool) {
	if window <= 1 {
		window = DefaultSRWindow
	}
	n := len(candles)
	if n < window {
		return models.SupportResistance{}, false
	}

	// For an even window the extra bar falls before the centre.
	offset := (window - 1) / 2
	var highs, lows []float64
	for i := window - 1 - offset; i+offset < n; i++ {
		lo, hi := i+offset+1-window, i+offset

		maxHigh, minLow := candles[lo].High, candles[lo].Low
		for j := lo + 1; j <= hi; j++ {
			maxHigh = max(maxHigh, candles[j].High)
			minLow = min(minLow, candles[j].Low)
		}

		if candles[i].High == maxHigh {
			highs = append(highs, candles[i].High)
		}
		if candles[i].Low == minLow {
			lows = append(lows, candles[i].Low)
		}
	}

	sort.Float64s(highs)
	sort.Float64s(lows)
	sr := models.SupportResistance{
		Window:      window,
		Supports:    clusterLevels(lows, srClusterThreshold),
		Resistances: clusterLevels(highs, srClusterThreshold),
	}

	s, r, hasS, hasR := NearestLevels(sr, candles[n-1].Close)
	if hasS {
		sr.NearestSupport = models.Float(s)
	}
	if hasR {
		sr.NearestResistance = models.Float(r)
	}
	return sr, true
}

// NearestLevels returns the closest level strictly below price and the
// closest strictly above it. A broken resistance counts as support and a
// broken support as resistance, so both lists are searched on each side.
func NearestLevels(sr models.SupportResistance, price float64) (support, resistance float64, hasSupport, hasResistance bool) {
	for _, levels := range [][]float64{sr.Supports, sr.Resistances} {
		for _, lv := range levels {
			switch {
			case lv < price && (!hasSupport || lv > support):
				support, hasSupport = lv, true
			case lv > price && (!hasResistance || lv < resistance):
				resistance, hasResistance = lv, true
			}
		}
	}
	return support, resistance, hasSupport, hasResistance
}

// clusterLevels merges ascending levels whose distance from the running
// cluster mean is within threshold (as a fraction of that mean).
func clusterLevels(sorted []float64, threshold float64) []float64 {
	if len(sorted) == 0 {
		return []float64{}
	}

	var clusters []float64
	sum, count := sorted[0], 1
	for _, lv := range sorted[1:] {
		mid := sum / float64(count)
		if mid > 0 && (lv-mid)/mid <= threshold {
			sum += lv
			count++
			continue
		}
		clusters = append(clusters, sum/float64(count))
		sum, count = lv, 1
	}
	return append(clusters, sum/float64(count))
}
