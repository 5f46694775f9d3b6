package scoring

import (
	"github.com/seenimoa/stockscore/internal/analysis/fundamental"
	"github.com/seenimoa/stockscore/internal/analysis/technical"
	"github.com/seenimoa/stockscore/pkg/models"
)

const (
	// Neutral is the value of a sub-score whose inputs are missing.
	Neutral = 50.0

	// bucketMax is the top bucket of the 25-point scales.
	bucketMax = 25.0

	// MinTechnicalBars is the history needed for the technical score.
	MinTechnicalBars = 50

	// MinMomentumBars is the history needed for the momentum score.
	MinMomentumBars = 30
)

// FinancialHealthScore reuses the aggregate health index of the snapshot.
func FinancialHealthScore(f models.Fundamentals) models.SubScore {
	h := fundamental.AssessFinancialHealth(f)
	if h.Factors == 0 {
		return neutral(models.ScoreFinancialHealth)
	}
	return models.SubScore{Name: models.ScoreFinancialHealth, Value: clamp(h.Score)}
}

// ValuationScore buckets P/E, P/B and P/S. A non-positive multiple is
// present but earns no points.
func ValuationScore(f models.Fundamentals) models.SubScore {
	var pts []float64

	if pe := f.TrailingPE; pe != nil {
		pts = append(pts, belowBuckets(*pe, 10, 15, 20, 25, 35))
	}
	if pb := f.PriceToBook; pb != nil {
		pts = append(pts, belowBuckets(*pb, 1, 1.5, 2, 3, 4))
	}
	if ps := f.PriceToSales; ps != nil {
		pts = append(pts, belowBuckets(*ps, 1, 2, 3, 5, 7))
	}

	return fromPoints(models.ScoreValuation, pts)
}

// GrowthScore buckets revenue and earnings growth independently.
func GrowthScore(f models.Fundamentals) models.SubScore {
	var pts []float64

	for _, g := range []*float64{f.RevenueGrowth, f.EarningsGrowth} {
		if g == nil {
			continue
		}
		switch v := *g; {
		case v > 0.25:
			pts = append(pts, 25)
		case v > 0.15:
			pts = append(pts, 20)
		case v > 0.10:
			pts = append(pts, 15)
		case v > 0.05:
			pts = append(pts, 10)
		case v > 0:
			pts = append(pts, 5)
		default:
			pts = append(pts, 0)
		}
	}

	return fromPoints(models.ScoreGrowth, pts)
}

// TechnicalScore combines price against its 20-bar average, 10-bar
// momentum and the recent volume ratio. It needs 50 bars; a window with
// no price movement is neutral.
func TechnicalScore(candles models.PriceSeries) models.SubScore {
	if len(candles) < MinTechnicalBars || flat(candles, MinTechnicalBars) {
		return neutral(models.ScoreTechnical)
	}

	closes := candles.Closes()
	price := closes[len(closes)-1]
	ma20, _ := technical.SMALatest(closes, 20)

	var pts []float64

	if price > ma20 {
		pts = append(pts, 25)
	} else {
		pts = append(pts, 10)
	}

	mom, _ := technical.Momentum(candles, 10)
	switch {
	case mom > 5:
		pts = append(pts, 25)
	case mom > 2:
		pts = append(pts, 20)
	case mom > 0:
		pts = append(pts, 15)
	case mom > -2:
		pts = append(pts, 10)
	default:
		pts = append(pts, 5)
	}

	ratio, ok := technical.VolumeRatio(candles, 20)
	switch {
	case ok && ratio > 1.2:
		pts = append(pts, 25)
	case ok && ratio > 1.0:
		pts = append(pts, 20)
	default:
		pts = append(pts, 15)
	}

	return fromPoints(models.ScoreTechnical, pts)
}

// momentumLookbacks are the bar counts averaged by MomentumScore.
var momentumLookbacks = []int{5, 10, 20}

// MomentumScore averages the bucketed 5-, 10- and 20-bar price changes.
// It needs 30 bars; a window with no price movement is neutral.
func MomentumScore(candles models.PriceSeries) models.SubScore {
	if len(candles) < MinMomentumBars || flat(candles, momentumLookbacks[len(momentumLookbacks)-1]+1) {
		return neutral(models.ScoreMomentum)
	}

	var pts []float64
	for _, p := range momentumLookbacks {
		change, ok := technical.Momentum(candles, p)
		if !ok {
			continue
		}
		switch {
		case change > 10:
			pts = append(pts, 25)
		case change > 5:
			pts = append(pts, 20)
		case change > 2:
			pts = append(pts, 15)
		case change > 0:
			pts = append(pts, 10)
		case change > -2:
			pts = append(pts, 8)
		case change > -5:
			pts = append(pts, 5)
		default:
			pts = append(pts, 0)
		}
	}

	return fromPoints(models.ScoreMomentum, pts)
}

// ────────────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────────────

// belowBuckets awards 25/20/15/10/5 points for v below each threshold and
// 0 otherwise. Non-positive values earn 0.
func belowBuckets(v, t25, t20, t15, t10, t5 float64) float64 {
	switch {
	case v <= 0:
		return 0
	case v < t25:
		return 25
	case v < t20:
		return 20
	case v < t15:
		return 15
	case v < t10:
		return 10
	case v < t5:
		return 5
	default:
		return 0
	}
}

// fromPoints averages bucket points and scales the top bucket to 100.
func fromPoints(name models.SubScoreName, pts []float64) models.SubScore {
	if len(pts) == 0 {
		return neutral(name)
	}
	sum := 0.0
	for _, p := range pts {
		sum += p
	}
	return models.SubScore{
		Name:  name,
		Value: clamp(sum / float64(len(pts)) * 100 / bucketMax),
	}
}

func neutral(name models.SubScoreName) models.SubScore {
	return models.SubScore{Name: name, Value: Neutral, Fallback: true}
}

// flat reports whether the last n closes are all equal.
func flat(candles models.PriceSeries, n int) bool {
	if n > len(candles) {
		n = len(candles)
	}
	tail := candles[len(candles)-n:]
	for _, c := range tail[1:] {
		if c.Close != tail[0].Close {
			return false
		}
	}
	return true
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
