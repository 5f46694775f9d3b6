package technical

import (
	"fmt"

	"github.com/seenimoa/stockscore/pkg/models"
)

// MinSummaryBars is the history needed for a trend read and a summary.
const MinSummaryBars = 50

// Trend classifies the current price against its 20- and 50-bar simple
// moving averages. Fewer than 50 bars gives TrendInsufficient.
func Trend(candles models.PriceSeries) models.Trend {
	if len(candles) < MinSummaryBars {
		return models.TrendInsufficient
	}

	closes := candles.Closes()
	ma20, _ := SMALatest(closes, 20)
	ma50, _ := SMALatest(closes, 50)
	price := closes[len(closes)-1]

	return classifyTrend(price, ma20, ma50)
}

func classifyTrend(price, ma20, ma50 float64) models.Trend {
	switch {
	case price > ma20 && ma20 > ma50:
		return models.TrendStrongUp
	case price > ma20 && ma20 < ma50:
		return models.TrendWeakUp
	case price < ma20 && ma20 < ma50:
		return models.TrendStrongDown
	case price < ma20 && ma20 > ma50:
		return models.TrendWeakDown
	default:
		return models.TrendSideways
	}
}

// InsufficientSummary is returned by Summarize for short series.
func InsufficientSummary() models.TechnicalSummary {
	return models.TechnicalSummary{
		Trend:   models.TrendInsufficient,
		Volume:  models.VolumeInsufficient,
		Signals: []string{},
	}
}

// Summarize runs the indicator set over candles and aggregates it into a
// TechnicalSummary with human-readable signals. Signals are emitted in a
// fixed order so identical input always yields identical output.
func Summarize(candles models.PriceSeries) models.TechnicalSummary {
	if len(candles) < MinSummaryBars {
		return InsufficientSummary()
	}

	closes := candles.Closes()
	price := closes[len(closes)-1]
	ma20, _ := SMALatest(closes, 20)
	ma50, _ := SMALatest(closes, 50)

	s := models.TechnicalSummary{
		Sufficient: true,
		Trend:      classifyTrend(price, ma20, ma50),
		Volume:     VolumeAnalysis(candles, 20),
		Signals:    []string{},
		Price:      models.Float(price),
		MA20:       models.Float(ma20),
		MA50:       models.Float(ma50),
	}

	if rsi, ok := RSILatest(candles, 14); ok {
		s.RSI = models.Float(rsi)
	}
	if mom, ok := Momentum(candles, 10); ok {
		s.Momentum = models.Float(mom)
	}
	if macd, ok := MACDLatest(candles, 12, 26, 9); ok {
		s.MACD = &macd
	}
	if bb, ok := BollingerLatest(candles, 20, 2); ok {
		s.Bollinger = &bb
	}
	if vol, ok := VolatilityLatest(candles, 30); ok {
		s.Volatility = models.Float(vol)
	}
	if atr, ok := ATRLatest(candles, 14); ok {
		s.ATR = models.Float(atr)
	}
	if lv, ok := PivotPoints(candles); ok {
		s.Pivots = &lv
	}
	if sr, ok := AutoSupportResistance(candles, DefaultSRWindow); ok {
		s.SupportResistance = &sr
	}

	// --- RSI signals ---
	if s.RSI != nil {
		if *s.RSI > 70 {
			s.Signals = append(s.Signals, "RSI indicates overbought conditions")
		} else if *s.RSI < 30 {
			s.Signals = append(s.Signals, "RSI indicates oversold conditions")
		}
	}

	// --- Moving average alignment ---
	if price > ma20 && ma20 > ma50 {
		s.Signals = append(s.Signals, "Price above both short and long-term moving averages")
	} else if price < ma20 && ma20 < ma50 {
		s.Signals = append(s.Signals, "Price below both short and long-term moving averages")
	}

	// --- Momentum ---
	if s.Momentum != nil {
		if *s.Momentum > 5 {
			s.Signals = append(s.Signals, "Strong positive momentum")
		} else if *s.Momentum < -5 {
			s.Signals = append(s.Signals, "Strong negative momentum")
		}
	}

	// --- Bollinger Band extension ---
	if bb := s.Bollinger; bb != nil && bb.Upper > bb.Lower {
		if price > bb.Upper {
			s.Signals = append(s.Signals, fmt.Sprintf("Price (%.2f) above upper Bollinger Band (%.2f)", price, bb.Upper))
		} else if price < bb.Lower {
			s.Signals = append(s.Signals, fmt.Sprintf("Price (%.2f) below lower Bollinger Band (%.2f)", price, bb.Lower))
		}
	}

	// --- MACD ---
	if m := s.MACD; m != nil {
		if m.Histogram > 0 && m.MACDLine > m.SignalLine {
			s.Signals = append(s.Signals, fmt.Sprintf("MACD bullish (histogram: %.2f)", m.Histogram))
		} else if m.Histogram < 0 && m.MACDLine < m.SignalLine {
			s.Signals = append(s.Signals, fmt.Sprintf("MACD bearish (histogram: %.2f)", m.Histogram))
		}
	}

	return s
}
