package fundamental

import (
	"fmt"

	"github.com/seenimoa/stockscore/pkg/models"
)

// HealthMaxPoints is the top bucket of every health factor.
const HealthMaxPoints = 20

// NeutralScore is returned when no factor can be scored.
const NeutralScore = 50.0

// FinancialHealth scores the financial robustness of a company from the
// ratios present in its snapshot.
type FinancialHealth struct {
	Score      float64            // 0-100
	Grade      string             // "A+", "A", "B+", "B", "C", "D"
	Factors    int                // number of factors that were present
	Strengths  []string           // positive factors
	Weaknesses []string           // negative factors
	Components map[string]float64 // points per factor, 0-20
}

// healthFactor buckets one optional ratio into 20/15/10/5/0 points.
type healthFactor struct {
	name   string
	value  *float64
	points func(v float64) float64
}

// AssessFinancialHealth scores profit margin, ROE, debt/equity, current
// ratio and revenue growth independently. Absent factors are skipped; the
// score is the mean of the present factors scaled to 0-100, or 50 when none
// is present.
func AssessFinancialHealth(f models.Fundamentals) FinancialHealth {
	h := FinancialHealth{
		Components: make(map[string]float64),
	}

	factors := []healthFactor{
		{"profit_margin", f.ProfitMargin, func(v float64) float64 {
			return descending(v, 0.15, 0.10, 0.05, 0)
		}},
		{"roe", f.ROE, func(v float64) float64 {
			return descending(v, 0.20, 0.15, 0.10, 0)
		}},
		{"debt_to_equity", f.DebtToEquity, func(v float64) float64 {
			return ascending(v, 0.3, 0.5, 1.0, 2.0)
		}},
		{"current_ratio", f.CurrentRatio, func(v float64) float64 {
			return descending(v, 2.0, 1.5, 1.2, 1.0)
		}},
		{"revenue_growth", f.RevenueGrowth, func(v float64) float64 {
			return descending(v, 0.20, 0.10, 0.05, 0)
		}},
	}

	total := 0.0
	for _, fac := range factors {
		if fac.value == nil {
			continue
		}
		pts := fac.points(*fac.value)
		h.Components[fac.name] = pts
		h.Factors++
		total += pts

		switch pts {
		case HealthMaxPoints:
			h.Strengths = append(h.Strengths, strengthText(fac.name, *fac.value))
		case 0:
			h.Weaknesses = append(h.Weaknesses, weaknessText(fac.name, *fac.value))
		}
	}

	if h.Factors == 0 {
		h.Score = NeutralScore
	} else {
		h.Score = clamp(total/float64(h.Factors)*100/HealthMaxPoints, 0, 100)
	}
	h.Grade = grade(h.Score)

	return h
}

// HealthScore returns only the 0-100 financial health score.
func HealthScore(f models.Fundamentals) float64 {
	return AssessFinancialHealth(f).Score
}

// descending awards points when v is above each threshold in turn.
func descending(v, t20, t15, t10, t5 float64) float64 {
	switch {
	case v > t20:
		return 20
	case v > t15:
		return 15
	case v > t10:
		return 10
	case v > t5:
		return 5
	default:
		return 0
	}
}

// ascending awards points when v is below each threshold in turn.
func ascending(v, t20, t15, t10, t5 float64) float64 {
	switch {
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

func strengthText(name string, v float64) string {
	switch name {
	case "profit_margin":
		return fmt.Sprintf("Strong profit margin: %.1f%%", v*100)
	case "roe":
		return fmt.Sprintf("High ROE: %.1f%%", v*100)
	case "debt_to_equity":
		return fmt.Sprintf("Low debt-to-equity ratio: %.2f", v)
	case "current_ratio":
		return fmt.Sprintf("Strong current ratio: %.2f", v)
	default:
		return fmt.Sprintf("Strong revenue growth: %.1f%%", v*100)
	}
}

func weaknessText(name string, v float64) string {
	switch name {
	case "profit_margin":
		return "Negative or zero profit margin"
	case "roe":
		return "Negative or zero ROE"
	case "debt_to_equity":
		return fmt.Sprintf("High D/E ratio: %.2f", v)
	case "current_ratio":
		return fmt.Sprintf("Weak current ratio: %.2f", v)
	default:
		return "Declining revenue"
	}
}

func grade(score float64) string {
	switch {
	case score >= 85:
		return "A+"
	case score >= 70:
		return "A"
	case score >= 55:
		return "B+"
	case score >= 40:
		return "B"
	case score >= 25:
		return "C"
	default:
		return "D"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
