package datasource

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/seenimoa/stockscore/pkg/models"
)

// field binds a canonical key to its slot in models.Fundamentals.
type field struct {
	canonical string
	set       func(f *models.Fundamentals, v *float64)
}

var canonicalFields = []field{
	{"pe_ratio", func(f *models.Fundamentals, v *float64) { f.TrailingPE = v }},
	{"forward_pe", func(f *models.Fundamentals, v *float64) { f.ForwardPE = v }},
	{"price_to_book", func(f *models.Fundamentals, v *float64) { f.PriceToBook = v }},
	{"price_to_sales", func(f *models.Fundamentals, v *float64) { f.PriceToSales = v }},
	{"profit_margin", func(f *models.Fundamentals, v *float64) { f.ProfitMargin = v }},
	{"operating_margin", func(f *models.Fundamentals, v *float64) { f.OperatingMargin = v }},
	{"gross_margin", func(f *models.Fundamentals, v *float64) { f.GrossMargin = v }},
	{"roe", func(f *models.Fundamentals, v *float64) { f.ROE = v }},
	{"roa", func(f *models.Fundamentals, v *float64) { f.ROA = v }},
	{"debt_to_equity", func(f *models.Fundamentals, v *float64) { f.DebtToEquity = v }},
	{"current_ratio", func(f *models.Fundamentals, v *float64) { f.CurrentRatio = v }},
	{"quick_ratio", func(f *models.Fundamentals, v *float64) { f.QuickRatio = v }},
	{"revenue_growth", func(f *models.Fundamentals, v *float64) { f.RevenueGrowth = v }},
	{"earnings_growth", func(f *models.Fundamentals, v *float64) { f.EarningsGrowth = v }},
	{"dividend_yield", func(f *models.Fundamentals, v *float64) { f.DividendYield = v }},
	{"payout_ratio", func(f *models.Fundamentals, v *float64) { f.PayoutRatio = v }},
	{"beta", func(f *models.Fundamentals, v *float64) { f.Beta = v }},
	{"market_cap", func(f *models.Fundamentals, v *float64) { f.MarketCap = v }},
	{"52_week_high", func(f *models.Fundamentals, v *float64) { f.FiftyTwoWeekHigh = v }},
}

// alias maps a provider key onto a canonical key with a unit scale.
type alias struct {
	canonical string
	scale     float64
}

// providerAliases covers Yahoo Finance quoteSummary/info keys. Yahoo
// reports debtToEquity in percent; every other ratio is already a fraction.
var providerAliases = map[string]alias{
	"trailingPE":                   {"pe_ratio", 1},
	"forwardPE":                    {"forward_pe", 1},
	"priceToBook":                  {"price_to_book", 1},
	"priceToSalesTrailing12Months": {"price_to_sales", 1},
	"profitMargins":                {"profit_margin", 1},
	"operatingMargins":             {"operating_margin", 1},
	"grossMargins":                 {"gross_margin", 1},
	"returnOnEquity":               {"roe", 1},
	"returnOnAssets":               {"roa", 1},
	"debtToEquity":                 {"debt_to_equity", 0.01},
	"currentRatio":                 {"current_ratio", 1},
	"quickRatio":                   {"quick_ratio", 1},
	"revenueGrowth":                {"revenue_growth", 1},
	"earningsGrowth":               {"earnings_growth", 1},
	"dividendYield":                {"dividend_yield", 1},
	"payoutRatio":                  {"payout_ratio", 1},
	"beta":                         {"beta", 1},
	"marketCap":                    {"market_cap", 1},
	"fiftyTwoWeekHigh":             {"52_week_high", 1},
}

// Canonicalize converts a raw key/value snapshot into models.Fundamentals.
// Keys may be canonical snake_case or Yahoo-style camelCase; values may be
// numbers, numeric strings or Yahoo {"raw": x} objects. Null values stay
// absent. Keys that match nothing are returned sorted in unknown.
//
// When a canonical key and its provider alias are both present, the
// canonical key wins.
func Canonicalize(raw map[string]any) (f models.Fundamentals, unknown []string, err error) {
	index := make(map[string]field, len(canonicalFields))
	for _, fld := range canonicalFields {
		index[fld.canonical] = fld
	}

	values := make(map[string]*float64)
	fromCanonical := make(map[string]bool)

	for key, rawVal := range raw {
		target, scale, isCanonical := resolve(key)
		if target == "" {
			unknown = append(unknown, key)
			continue
		}

		v, ok, err := toFloat(rawVal)
		if err != nil {
			return models.Fundamentals{}, nil, fmt.Errorf("field %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if fromCanonical[target] && !isCanonical {
			continue
		}

		scaled := v * scale
		values[target] = &scaled
		if isCanonical {
			fromCanonical[target] = true
		}
	}

	for key, v := range values {
		index[key].set(&f, v)
	}

	sort.Strings(unknown)
	return f, unknown, nil
}

// resolve maps a key to its canonical name and unit scale.
func resolve(key string) (canonical string, scale float64, isCanonical bool) {
	k := strings.TrimSpace(key)
	for _, fld := range canonicalFields {
		if fld.canonical == strings.ToLower(k) {
			return fld.canonical, 1, true
		}
	}
	if a, ok := providerAliases[k]; ok {
		return a.canonical, a.scale, false
	}
	return "", 0, false
}

// toFloat accepts float64, int, json.Number-like strings and {"raw": x}
// objects. ok is false for null or empty values.
func toFloat(v any) (float64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return checkFinite(x)
	case float32:
		return checkFinite(float64(x))
	case int:
		return float64(x), true, nil
	case int64:
		return float64(x), true, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "n/a") || strings.EqualFold(s, "null") {
			return 0, false, nil
		}
		pct := strings.HasSuffix(s, "%")
		s = strings.TrimSuffix(s, "%")
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", x)
		}
		if pct {
			f /= 100
		}
		return checkFinite(f)
	case map[string]any:
		if raw, ok := x["raw"]; ok {
			return toFloat(raw)
		}
		if len(x) == 0 {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("object without raw value")
	default:
		return 0, false, fmt.Errorf("unsupported value type %T", v)
	}
}

func checkFinite(f float64) (float64, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, nil
	}
	return f, true, nil
}
