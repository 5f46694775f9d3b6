package models

// Trend classifies the relation of price to its 20- and 50-bar averages.
type Trend string

const (
	TrendStrongUp     Trend = "Strong Uptrend"
	TrendWeakUp       Trend = "Weak Uptrend"
	TrendStrongDown   Trend = "Strong Downtrend"
	TrendWeakDown     Trend = "Weak Downtrend"
	TrendSideways     Trend = "Sideways"
	TrendInsufficient Trend = "Insufficient data"
)

// VolumeRegime classifies recent volume against its 20-bar average.
type VolumeRegime string

const (
	VolumeHigh         VolumeRegime = "High Volume"
	VolumeAboveAverage VolumeRegime = "Above Average Volume"
	VolumeAverage      VolumeRegime = "Average Volume"
	VolumeLow          VolumeRegime = "Low Volume"
	VolumeInsufficient VolumeRegime = "Insufficient data"
)

// MACDData contains MACD indicator values.
type MACDData struct {
	MACDLine   float64 `json:"macd_line"`
	SignalLine float64 `json:"signal_line"`
	Histogram  float64 `json:"histogram"`
}

// BollingerData contains Bollinger Bands values.
type BollingerData struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// TechnicalSummary is the aggregated technical read of a price series.
// When Sufficient is false every optional is nil, Trend and Volume hold
// their insufficient-data values and Signals is empty.
type TechnicalSummary struct {
	Sufficient bool         `json:"sufficient"`
	Trend      Trend        `json:"trend"`
	Momentum   *float64     `json:"momentum,omitempty"` // percent change over 10 bars
	Volume     VolumeRegime `json:"volume"`
	RSI        *float64     `json:"rsi,omitempty"`
	Signals    []string     `json:"signals"`

	Price      *float64       `json:"price,omitempty"`
	MA20       *float64       `json:"ma_20,omitempty"`
	MA50       *float64       `json:"ma_50,omitempty"`
	MACD       *MACDData      `json:"macd,omitempty"`
	Bollinger  *BollingerData `json:"bollinger,omitempty"`
	Volatility *float64       `json:"volatility,omitempty"` // 30-bar annualized
	ATR        *float64       `json:"atr,omitempty"`
	Pivots     *PivotLevels   `json:"pivots,omitempty"` // classic, from the last bar

	SupportResistance *SupportResistance `json:"support_resistance,omitempty"`
}

// PivotLevels are classic pivot-point support and resistance levels.
type PivotLevels struct {
	Pivot float64 `json:"pivot"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	R3    float64 `json:"r3"`
}

// SupportResistance holds swing levels found with a centered rolling
// window. Supports come from swing lows and Resistances from swing highs,
// both ascending. The nearest fields bracket the last close and are nil
// when no level lies on that side.
type SupportResistance struct {
	Window            int       `json:"window"`
	Supports          []float64 `json:"supports"`
	Resistances       []float64 `json:"resistances"`
	NearestSupport    *float64  `json:"nearest_support,omitempty"`
	NearestResistance *float64  `json:"nearest_resistance,omitempty"`
}

// MetricsBundle is the canonical fundamentals set plus statistics derived
// from price history. Derived statistics are nil with fewer than 252 bars.
type MetricsBundle struct {
	Fundamentals

	Volatility     *float64 `json:"volatility,omitempty"`
	SharpeRatio    *float64 `json:"sharpe_ratio,omitempty"`
	MaxDrawdown    *float64 `json:"max_drawdown,omitempty"`
	High52W        *float64 `json:"52_week_high_observed,omitempty"`
	Low52W         *float64 `json:"52_week_low,omitempty"`
	PriceVs52WHigh *float64 `json:"price_vs_52w_high,omitempty"`
	PriceVs52WLow  *float64 `json:"price_vs_52w_low,omitempty"`

	HealthScore    float64  `json:"financial_health_score"`
	ValuationNotes []string `json:"valuation_notes,omitempty"`
}

// Action is the final recommendation for a security.
type Action string

const (
	StrongBuy  Action = "STRONG_BUY"
	Buy        Action = "BUY"
	Hold       Action = "HOLD"
	Sell       Action = "SELL"
	StrongSell Action = "STRONG_SELL"
)

// RiskLevel is the coarse risk tier attached to a recommendation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// SubScoreName identifies one of the five scoring dimensions.
type SubScoreName string

const (
	ScoreFinancialHealth SubScoreName = "financial_health"
	ScoreValuation       SubScoreName = "valuation"
	ScoreTechnical       SubScoreName = "technical"
	ScoreGrowth          SubScoreName = "growth"
	ScoreMomentum        SubScoreName = "momentum"
)

// SubScore is one 0–100 dimension of a recommendation. Fallback is set
// when the neutral value was used because inputs were missing.
type SubScore struct {
	Name     SubScoreName `json:"name"`
	Value    float64      `json:"value"`
	Fallback bool         `json:"fallback"`
}

// Scores holds the five sub-scores of a recommendation.
type Scores struct {
	FinancialHealth SubScore `json:"financial_health"`
	Valuation       SubScore `json:"valuation"`
	Technical       SubScore `json:"technical"`
	Growth          SubScore `json:"growth"`
	Momentum        SubScore `json:"momentum"`
}

// All returns the five sub-scores in fixed order.
func (s Scores) All() []SubScore {
	return []SubScore{s.FinancialHealth, s.Valuation, s.Technical, s.Growth, s.Momentum}
}

// Recommendation is the scorer's output for one security.
type Recommendation struct {
	Action       Action    `json:"action"`
	OverallScore float64   `json:"overall_score"`
	Confidence   float64   `json:"confidence"`
	RiskLevel    RiskLevel `json:"risk_level"`
	Reasoning    string    `json:"reasoning"`
	Factors      []string  `json:"factors"`
	Scores       Scores    `json:"scores"`
}
