// Package fundamental turns a fundamentals snapshot into the canonical
// metrics bundle: passthrough ratios, statistics derived from one year of
// price history and the aggregate financial health score.
package fundamental

import "github.com/seenimoa/stockscore/pkg/models"

// ComputeMetrics builds the MetricsBundle for a snapshot and its price
// history. Derived price statistics stay nil with fewer than 252 bars.
// Neither input is modified.
func ComputeMetrics(f models.Fundamentals, candles models.PriceSeries) models.MetricsBundle {
	m := models.MetricsBundle{
		Fundamentals: f,
		HealthScore:  HealthScore(f),
	}

	if ps, ok := PriceStats(candles); ok {
		m.Volatility = ps.Volatility
		m.SharpeRatio = ps.SharpeRatio
		m.MaxDrawdown = ps.MaxDrawdown
		m.High52W = ps.High52W
		m.Low52W = ps.Low52W
		m.PriceVs52WHigh = ps.PriceVs52WHigh
		m.PriceVs52WLow = ps.PriceVs52WLow
	}

	if notes := ValuationAssessment(f); len(notes) > 0 {
		m.ValuationNotes = notes
	}

	return m
}
