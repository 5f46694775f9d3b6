package fx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Info describes a currency for display.
type Info struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Symbol  string `json:"symbol"`
}

var currencies = map[string]Info{
	"USD": {"USD", "US Dollar", "United States", "$"},
	"CAD": {"CAD", "Canadian Dollar", "Canada", "C$"},
	"EUR": {"EUR", "Euro", "European Union", "€"},
	"GBP": {"GBP", "British Pound", "United Kingdom", "£"},
	"JPY": {"JPY", "Japanese Yen", "Japan", "¥"},
	"INR": {"INR", "Indian Rupee", "India", "₹"},
}

// CurrencyInfo returns display information for code. Unknown codes get
// the code as name and symbol.
func CurrencyInfo(code string) Info {
	code = strings.ToUpper(code)
	if info, ok := currencies[code]; ok {
		return info
	}
	return Info{Code: code, Name: code, Country: "Unknown", Symbol: code}
}

// Symbol returns the display symbol for code.
func Symbol(code string) string {
	return CurrencyInfo(code).Symbol
}

// FormatPair renders a pair as "FROM/TO".
func FormatPair(from, to string) string {
	return strings.ToUpper(from) + "/" + strings.ToUpper(to)
}

// FormatAmount renders amount with the currency symbol and two decimals,
// e.g. "C$1,234.50".
func FormatAmount(amount decimal.Decimal, code string) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	s := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s%s%s.%s", sign, Symbol(code), b.String(), frac)
}
