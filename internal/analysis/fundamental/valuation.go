package fundamental

import (
	"sort"

	"github.com/seenimoa/stockscore/pkg/models"
)

// ValuationResult is a plain-language read of the valuation multiples.
type ValuationResult struct {
	Notes   []string `json:"notes"`
	Verdict string   `json:"verdict"` // "Undervalued", "Fairly Valued", "Overvalued", "Unknown"
}

// AssessValuation compares P/E, P/B and P/S against conventional bands.
// Each present multiple contributes at most one note; the verdict is the
// side that collects more cheap or rich readings.
func AssessValuation(f models.Fundamentals) ValuationResult {
	res := ValuationResult{Notes: []string{}, Verdict: "Unknown"}
	cheap, rich, seen := 0, 0, 0

	if pe := f.TrailingPE; pe != nil {
		seen++
		switch {
		case *pe < 15:
			res.Notes = append(res.Notes, "Low P/E suggests potential undervaluation")
			cheap++
		case *pe > 25:
			res.Notes = append(res.Notes, "High P/E suggests potential overvaluation")
			rich++
		default:
			res.Notes = append(res.Notes, "P/E ratio in reasonable range")
		}
	}

	if pb := f.PriceToBook; pb != nil {
		seen++
		if *pb < 1.0 {
			res.Notes = append(res.Notes, "Trading below book value")
			cheap++
		} else if *pb > 3.0 {
			res.Notes = append(res.Notes, "Trading at premium to book value")
			rich++
		}
	}

	if ps := f.PriceToSales; ps != nil {
		seen++
		if *ps < 1.0 {
			res.Notes = append(res.Notes, "Low price-to-sales ratio")
			cheap++
		} else if *ps > 5.0 {
			res.Notes = append(res.Notes, "High price-to-sales ratio")
			rich++
		}
	}

	switch {
	case seen == 0:
	case cheap > rich:
		res.Verdict = "Undervalued"
	case rich > cheap:
		res.Verdict = "Overvalued"
	default:
		res.Verdict = "Fairly Valued"
	}

	return res
}

// ValuationAssessment returns only the notes of AssessValuation.
func ValuationAssessment(f models.Fundamentals) []string {
	return AssessValuation(f).Notes
}

var explanations = map[string]string{
	"pe_ratio":       "Price-to-Earnings ratio: How much investors pay for each dollar of earnings. Lower values may indicate better value.",
	"market_cap":     "Market Capitalization: Total value of all company shares. Large cap (>$10B), Mid cap ($2-10B), Small cap (<$2B).",
	"dividend_yield": "Dividend Yield: Annual dividend payment as percentage of stock price. Higher yields provide more income.",
	"beta":           "Beta: Measures stock volatility vs. market. Beta > 1 means more volatile, Beta < 1 means less volatile than market.",
	"roe":            "Return on Equity: How efficiently company uses shareholders' money to generate profits. Higher is generally better.",
	"debt_to_equity": "Debt-to-Equity: Company's debt relative to shareholders' equity. Lower ratios generally indicate financial stability.",
	"profit_margin":  "Profit Margin: Percentage of revenue that becomes profit. Higher margins indicate better efficiency.",
	"revenue_growth": "Revenue Growth: Rate at which company's sales are increasing. Positive growth is generally good sign.",
	"sharpe_ratio":   "Sharpe Ratio: Annual return above a 2% risk-free rate per unit of volatility. Higher means better risk-adjusted return.",
	"max_drawdown":   "Max Drawdown: Largest peak-to-trough fall of the price over the period. Closer to zero is better.",
	"volatility":     "Volatility: Annualized standard deviation of daily returns. Higher values mean larger price swings.",
}

// GenericExplanation is returned by Explain for unknown metrics.
const GenericExplanation = "Financial metric used for stock analysis"

// Explain returns a beginner-friendly description of a canonical metric.
// ok is false when the metric is unknown and the generic text is returned.
func Explain(metric string) (string, bool) {
	if text, ok := explanations[metric]; ok {
		return text, true
	}
	return GenericExplanation, false
}

// ExplainedMetrics lists the metrics Explain knows, sorted.
func ExplainedMetrics() []string {
	keys := make([]string, 0, len(explanations))
	for k := range explanations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
