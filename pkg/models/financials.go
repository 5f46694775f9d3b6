package models

// Fundamentals is a point-in-time snapshot of a company's reported ratios.
// A nil field means the value is unknown, which is not the same as zero.
// Ratios and growth rates are fractions (0.25 means 25%).
type Fundamentals struct {
	// Valuation
	TrailingPE   *float64 `json:"pe_ratio,omitempty"       yaml:"pe_ratio,omitempty"`
	ForwardPE    *float64 `json:"forward_pe,omitempty"     yaml:"forward_pe,omitempty"`
	PriceToBook  *float64 `json:"price_to_book,omitempty"  yaml:"price_to_book,omitempty"`
	PriceToSales *float64 `json:"price_to_sales,omitempty" yaml:"price_to_sales,omitempty"`

	// Profitability
	ProfitMargin    *float64 `json:"profit_margin,omitempty"    yaml:"profit_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty" yaml:"operating_margin,omitempty"`
	GrossMargin     *float64 `json:"gross_margin,omitempty"     yaml:"gross_margin,omitempty"`
	ROE             *float64 `json:"roe,omitempty"              yaml:"roe,omitempty"`
	ROA             *float64 `json:"roa,omitempty"              yaml:"roa,omitempty"`

	// Balance sheet
	DebtToEquity *float64 `json:"debt_to_equity,omitempty" yaml:"debt_to_equity,omitempty"` // plain ratio, not percent
	CurrentRatio *float64 `json:"current_ratio,omitempty"  yaml:"current_ratio,omitempty"`
	QuickRatio   *float64 `json:"quick_ratio,omitempty"    yaml:"quick_ratio,omitempty"`

	// Growth
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"  yaml:"revenue_growth,omitempty"`
	EarningsGrowth *float64 `json:"earnings_growth,omitempty" yaml:"earnings_growth,omitempty"`

	// Dividends
	DividendYield *float64 `json:"dividend_yield,omitempty" yaml:"dividend_yield,omitempty"`
	PayoutRatio   *float64 `json:"payout_ratio,omitempty"   yaml:"payout_ratio,omitempty"`

	// Market
	Beta             *float64 `json:"beta,omitempty"         yaml:"beta,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"   yaml:"market_cap,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"52_week_high,omitempty" yaml:"52_week_high,omitempty"`
}

// Float returns a pointer to v, for building snapshots in code.
func Float(v float64) *float64 { return &v }

// Present reports how many fields of the snapshot are known.
func (f Fundamentals) Present() int {
	n := 0
	for _, p := range f.fields() {
		if p != nil {
			n++
		}
	}
	return n
}

func (f Fundamentals) fields() []*float64 {
	return []*float64{
		f.TrailingPE, f.ForwardPE, f.PriceToBook, f.PriceToSales,
		f.ProfitMargin, f.OperatingMargin, f.GrossMargin, f.ROE, f.ROA,
		f.DebtToEquity, f.CurrentRatio, f.QuickRatio,
		f.RevenueGrowth, f.EarningsGrowth,
		f.DividendYield, f.PayoutRatio,
		f.Beta, f.MarketCap, f.FiftyTwoWeekHigh,
	}
}
