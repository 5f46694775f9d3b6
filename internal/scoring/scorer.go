// Package scoring turns a fundamentals snapshot, a price series and the
// derived metrics bundle into a Recommendation.
//
// Five sub-scores in [0,100] are combined with fixed weights. The overall
// score maps to an action and confidence, the risk tier is counted from
// beta, leverage and volatility, and the reasoning and factors are built
// from fixed templates. Every call is a pure evaluation; a Scorer holds
// nothing but its trace sink.
package scoring

import (
	"math"

	"github.com/seenimoa/stockscore/pkg/models"
)

// Weights of the sub-scores in the overall score. They sum to 1.
const (
	WeightFinancialHealth = 0.25
	WeightValuation       = 0.25
	WeightTechnical       = 0.25
	WeightGrowth          = 0.15
	WeightMomentum        = 0.10
)

// MaxFactors caps the number of explanatory factors.
const MaxFactors = 5

// Scorer produces recommendations. The zero value is ready to use and
// traces nothing.
type Scorer struct {
	sink TraceSink
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithTraceSink routes sub-scores and decisions to sink.
func WithTraceSink(sink TraceSink) Option {
	return func(s *Scorer) {
		s.sink = sink
	}
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend scores one security with a Scorer that traces nothing.
func Recommend(f models.Fundamentals, candles models.PriceSeries, m models.MetricsBundle) models.Recommendation {
	return (&Scorer{}).Recommend(f, candles, m)
}

// Recommend evaluates the five sub-scores and derives the recommendation.
// Identical input always gives identical output.
func (s *Scorer) Recommend(f models.Fundamentals, candles models.PriceSeries, m models.MetricsBundle) models.Recommendation {
	sink := s.sink
	if sink == nil {
		sink = NopSink{}
	}

	scores := models.Scores{
		FinancialHealth: FinancialHealthScore(f),
		Valuation:       ValuationScore(f),
		Technical:       TechnicalScore(candles),
		Growth:          GrowthScore(f),
		Momentum:        MomentumScore(candles),
	}
	for _, sc := range scores.All() {
		sink.SubScore(sc)
	}

	overall := Overall(scores)
	action, confidence := Decide(overall)

	rec := models.Recommendation{
		Action:       action,
		OverallScore: overall,
		Confidence:   confidence,
		RiskLevel:    Risk(f, m),
		Reasoning:    Reasoning(overall, scores),
		Factors:      Factors(f, scores),
		Scores:       scores,
	}
	sink.Decision(rec)

	return rec
}

// Overall is the weighted sum of the five sub-scores.
func Overall(s models.Scores) float64 {
	overall := s.FinancialHealth.Value*WeightFinancialHealth +
		s.Valuation.Value*WeightValuation +
		s.Technical.Value*WeightTechnical +
		s.Growth.Value*WeightGrowth +
		s.Momentum.Value*WeightMomentum
	return clamp(overall)
}

// Decide maps an overall score to an action and its confidence.
//
//	>= 75     STRONG_BUY   min(score, 95)
//	[60, 75)  BUY          score
//	[40, 60)  HOLD         100 - |score-50|*2
//	[25, 40)  SELL         100 - score
//	< 25      STRONG_SELL  min(100-score, 95)
func Decide(overall float64) (models.Action, float64) {
	switch {
	case overall >= 75:
		return models.StrongBuy, math.Min(overall, 95)
	case overall >= 60:
		return models.Buy, overall
	case overall >= 40:
		return models.Hold, 100 - math.Abs(overall-50)*2
	case overall >= 25:
		return models.Sell, 100 - overall
	default:
		return models.StrongSell, math.Min(100-overall, 95)
	}
}

// Risk counts risk points from beta, debt/equity and annualized volatility.
// Four or more points is High, two or more Medium.
func Risk(f models.Fundamentals, m models.MetricsBundle) models.RiskLevel {
	points := 0

	if b := f.Beta; b != nil {
		if *b > 1.5 {
			points += 2
		} else if *b > 1.2 {
			points++
		}
	}

	if de := f.DebtToEquity; de != nil {
		if *de > 2.0 {
			points += 2
		} else if *de > 1.0 {
			points++
		}
	}

	if v := m.Volatility; v != nil {
		if *v > 0.4 {
			points += 2
		} else if *v > 0.25 {
			points++
		}
	}

	switch {
	case points >= 4:
		return models.RiskHigh
	case points >= 2:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
