package scoring

import (
	"fmt"
	"strings"

	"github.com/seenimoa/stockscore/pkg/models"
)

// Reasoning builds the explanation from score bands of the overall,
// financial health, valuation and technical scores.
func Reasoning(overall float64, s models.Scores) string {
	var parts []string

	switch {
	case overall >= 75:
		parts = append(parts, fmt.Sprintf("Overall score of %.1f reflects strong fundamentals and favorable technicals.", overall))
	case overall >= 60:
		parts = append(parts, fmt.Sprintf("Overall score of %.1f indicates a generally positive outlook.", overall))
	case overall >= 40:
		parts = append(parts, fmt.Sprintf("Overall score of %.1f reflects mixed signals.", overall))
	case overall >= 25:
		parts = append(parts, fmt.Sprintf("Overall score of %.1f points to several concerning factors.", overall))
	default:
		parts = append(parts, fmt.Sprintf("Overall score of %.1f reflects predominantly negative indicators.", overall))
	}

	switch fh := s.FinancialHealth; {
	case fh.Fallback:
		parts = append(parts, "Financial health data is unavailable.")
	case fh.Value >= 70:
		parts = append(parts, "The company shows strong financial health.")
	case fh.Value < 40:
		parts = append(parts, "Financial health is weak.")
	default:
		parts = append(parts, "Financial health is moderate.")
	}

	switch v := s.Valuation; {
	case v.Fallback:
	case v.Value >= 70:
		parts = append(parts, "The stock appears attractively valued.")
	case v.Value < 40:
		parts = append(parts, "The stock appears expensive relative to its fundamentals.")
	default:
		parts = append(parts, "Valuation looks fair.")
	}

	switch t := s.Technical; {
	case t.Fallback:
		parts = append(parts, "Technical signals are neutral or unavailable.")
	case t.Value >= 70:
		parts = append(parts, "Technical indicators are bullish.")
	case t.Value < 40:
		parts = append(parts, "Technical indicators are bearish.")
	default:
		parts = append(parts, "Technical indicators are mixed.")
	}

	return strings.Join(parts, " ")
}

// Factors lists the explanatory factors in fixed priority order: financial
// health, P/E, revenue growth, dividend yield, beta, debt/equity. At most
// MaxFactors are returned.
func Factors(f models.Fundamentals, s models.Scores) []string {
	factors := make([]string, 0, MaxFactors)
	add := func(format string, args ...any) {
		if len(factors) < MaxFactors {
			factors = append(factors, fmt.Sprintf(format, args...))
		}
	}

	if fh := s.FinancialHealth; !fh.Fallback {
		add("Financial health score: %.1f/100 (%s)", fh.Value, band(fh.Value))
	}

	if pe := f.TrailingPE; pe != nil {
		switch {
		case *pe <= 0:
			add("P/E ratio of %.2f (negative earnings)", *pe)
		case *pe < 15:
			add("P/E ratio of %.2f (attractive)", *pe)
		case *pe > 25:
			add("P/E ratio of %.2f (expensive)", *pe)
		default:
			add("P/E ratio of %.2f (reasonable)", *pe)
		}
	}

	if g := f.RevenueGrowth; g != nil {
		if *g >= 0 {
			add("Revenue growth of %.1f%%", *g*100)
		} else {
			add("Revenue decline of %.1f%%", -*g*100)
		}
	}

	if dy := f.DividendYield; dy != nil && *dy > 0 {
		add("Dividend yield of %.2f%%", *dy*100)
	}

	if b := f.Beta; b != nil {
		switch {
		case *b > 1.2:
			add("Beta of %.2f (more volatile than the market)", *b)
		case *b < 0.8:
			add("Beta of %.2f (less volatile than the market)", *b)
		default:
			add("Beta of %.2f (moves with the market)", *b)
		}
	}

	if de := f.DebtToEquity; de != nil {
		switch {
		case *de > 2:
			add("Debt-to-equity of %.2f (high leverage)", *de)
		case *de < 0.5:
			add("Debt-to-equity of %.2f (low leverage)", *de)
		default:
			add("Debt-to-equity of %.2f", *de)
		}
	}

	return factors
}

func band(v float64) string {
	switch {
	case v >= 70:
		return "strong"
	case v >= 40:
		return "moderate"
	default:
		return "weak"
	}
}
