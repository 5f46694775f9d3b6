package fundamental

import (
	"math"

	"github.com/seenimoa/stockscore/pkg/models"
)

const (
	// MinStatsBars is one trading year, the history needed for derived stats.
	MinStatsBars = 252

	// RiskFreeRate is the fixed annual rate used for the Sharpe ratio.
	RiskFreeRate = 0.02

	tradingDays = 252
)

// PriceStatistics holds statistics derived from price history. Fields are
// nil when the value cannot be computed.
type PriceStatistics struct {
	Volatility     *float64
	SharpeRatio    *float64
	MaxDrawdown    *float64
	High52W        *float64
	Low52W         *float64
	PriceVs52WHigh *float64
	PriceVs52WLow  *float64
}

// PriceStats computes annualized volatility, Sharpe ratio, max drawdown and
// the 52-week range. It returns an empty PriceStatistics (ok=false) with
// fewer than 252 bars.
func PriceStats(candles models.PriceSeries) (PriceStatistics, bool) {
	var ps PriceStatistics
	if len(candles) < MinStatsBars {
		return ps, false
	}

	returns := dailyReturns(candles)
	if len(returns) >= 2 {
		vol := stddev(returns) * math.Sqrt(tradingDays)
		ps.Volatility = models.Float(vol)

		if vol > 0 {
			excess := mean(returns)*tradingDays - RiskFreeRate
			ps.SharpeRatio = models.Float(excess / vol)
		}

		ps.MaxDrawdown = models.Float(maxDrawdown(returns))
	}

	current := candles[len(candles)-1].Close
	tail := candles[len(candles)-MinStatsBars:]
	high, low := tail[0].High, tail[0].Low
	for _, c := range tail[1:] {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}
	ps.High52W = models.Float(high)
	ps.Low52W = models.Float(low)
	if high != 0 {
		ps.PriceVs52WHigh = models.Float(current/high - 1)
	}
	if low != 0 {
		ps.PriceVs52WLow = models.Float(current/low - 1)
	}

	return ps, true
}

// ────────────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────────────

// dailyReturns computes simple close-to-close returns, skipping bars that
// follow a zero close.
func dailyReturns(candles models.PriceSeries) []float64 {
	if len(candles) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		if prev := candles[i-1].Close; prev != 0 {
			returns = append(returns, candles[i].Close/prev-1)
		}
	}
	return returns
}

// maxDrawdown returns the worst peak-to-trough decline of the cumulative
// return curve as a non-positive fraction.
func maxDrawdown(returns []float64) float64 {
	cum := 1.0
	peak := math.Inf(-1)
	worst := 0.0

	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if peak > 0 {
			if dd := (cum - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}

	return worst
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stddev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	m := mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1)) // sample stddev
}
