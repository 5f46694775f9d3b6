// Package technical implements the technical indicators and the technical
// summary for daily price data. All functions operate on models.PriceSeries
// and never modify it. Positions of a returned series that are not yet
// defined (window not full) are NaN.
package technical

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/volatility"

	"github.com/seenimoa/stockscore/pkg/models"
)

// TradingDays is the number of trading days used to annualize statistics.
const TradingDays = 252

// RSI calculates the Relative Strength Index for the given period using
// simple rolling means of gains and losses. Default period is 14.
// A window with no losses reads 100, a window with no movement reads 50.
func RSI(candles models.PriceSeries, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	n := len(candles)
	rsi := nanSlice(n)
	if n < period+1 {
		return rsi
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	// Each window is summed from scratch so a run of zero losses stays
	// exactly zero instead of drifting through a running sum.
	for i := period; i < n; i++ {
		avgGain := avg(gains[i-period+1 : i+1])
		avgLoss := avg(losses[i-period+1 : i+1])
		rsi[i] = rsiValue(avgGain, avgLoss)
	}

	return rsi
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100
		}
		return 50
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RSILatest returns the most recent RSI value.
func RSILatest(candles models.PriceSeries, period int) (float64, bool) {
	return lastDefined(RSI(candles, period))
}

// MACDResult holds a single MACD computation point.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD calculates the Moving Average Convergence Divergence.
// Default parameters: fast=12, slow=26, signal=9. Values exist from the
// first bar but are only meaningful once slow bars have been seen.
func MACD(candles models.PriceSeries, fast, slow, signal int) []MACDResult {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signal <= 0 {
		signal = 9
	}

	closes := candles.Closes()
	if len(closes) == 0 {
		return nil
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	n := len(closes)
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := EMA(macdLine, signal)

	results := make([]MACDResult, n)
	for i := 0; i < n; i++ {
		results[i] = MACDResult{
			MACD:      macdLine[i],
			Signal:    signalLine[i],
			Histogram: macdLine[i] - signalLine[i],
		}
	}

	return results
}

// MACDLatest returns the most recent MACD values. ok is false when the
// series is shorter than the slow span.
func MACDLatest(candles models.PriceSeries, fast, slow, signal int) (models.MACDData, bool) {
	if slow <= 0 {
		slow = 26
	}
	if len(candles) < slow {
		return models.MACDData{}, false
	}
	results := MACD(candles, fast, slow, signal)
	r := results[len(results)-1]
	return models.MACDData{
		MACDLine:   r.MACD,
		SignalLine: r.Signal,
		Histogram:  r.Histogram,
	}, true
}

// BollingerBands calculates Bollinger Bands (upper, middle, lower) using
// the rolling sample standard deviation. Default: period=20, mult=2.
// Positions before a full window are NaN in all three bands.
func BollingerBands(candles models.PriceSeries, period int, mult float64) []models.BollingerData {
	if period <= 0 {
		period = 20
	}
	if mult <= 0 {
		mult = 2.0
	}

	closes := candles.Closes()
	n := len(closes)
	middle := SMA(closes, period)
	sd := RollingStd(closes, period)

	result := make([]models.BollingerData, n)
	for i := 0; i < n; i++ {
		result[i] = models.BollingerData{
			Upper:  middle[i] + mult*sd[i],
			Middle: middle[i],
			Lower:  middle[i] - mult*sd[i],
		}
	}

	return result
}

// BollingerLatest returns the most recent Bollinger Bands values.
func BollingerLatest(candles models.PriceSeries, period int, mult float64) (models.BollingerData, bool) {
	vals := BollingerBands(candles, period, mult)
	if len(vals) == 0 || math.IsNaN(vals[len(vals)-1].Middle) {
		return models.BollingerData{}, false
	}
	return vals[len(vals)-1], true
}

// Returns calculates daily percentage returns of the closes. The first
// position, and any position following a zero close, is NaN.
func Returns(candles models.PriceSeries) []float64 {
	n := len(candles)
	r := nanSlice(n)
	for i := 1; i < n; i++ {
		if prev := candles[i-1].Close; prev != 0 {
			r[i] = candles[i].Close/prev - 1
		}
	}
	return r
}

// Volatility calculates the rolling historical volatility: the sample
// standard deviation of daily returns over period bars, annualized by
// sqrt(252). Default period is 30.
func Volatility(candles models.PriceSeries, period int) []float64 {
	if period <= 0 {
		period = 30
	}
	vol := RollingStd(Returns(candles), period)
	factor := math.Sqrt(TradingDays)
	for i, v := range vol {
		if !math.IsNaN(v) {
			vol[i] = v * factor
		}
	}
	return vol
}

// VolatilityLatest returns the most recent rolling volatility.
func VolatilityLatest(candles models.PriceSeries, period int) (float64, bool) {
	return lastDefined(Volatility(candles, period))
}

// ATRLatest returns the most recent Average True Range over period bars.
func ATRLatest(candles models.PriceSeries, period int) (float64, bool) {
	if period <= 0 {
		period = 14
	}
	if len(candles) < period+1 {
		return 0, false
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}

	atr := volatility.NewAtrWithPeriod[float64](period)
	out := helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(highs),
		helper.SliceToChan(lows),
		helper.SliceToChan(candles.Closes()),
	))
	if len(out) == 0 {
		return 0, false
	}
	return out[len(out)-1], true
}

// Momentum returns the percentage change of the close over the last
// period bars: (close[t] - close[t-period]) / close[t-period] * 100.
// Default period is 10.
func Momentum(candles models.PriceSeries, period int) (float64, bool) {
	if period <= 0 {
		period = 10
	}
	n := len(candles)
	if n < period+1 {
		return 0, false
	}
	past := candles[n-1-period].Close
	if past == 0 {
		return 0, false
	}
	return (candles[n-1].Close - past) / past * 100, true
}

// VolumeRatio returns the mean volume of the last 5 bars divided by the
// mean volume of the last period bars. ok is false with fewer than
// period bars or a zero average.
func VolumeRatio(candles models.PriceSeries, period int) (float64, bool) {
	if period <= 0 {
		period = 20
	}
	n := len(candles)
	if n < period || n < 5 {
		return 0, false
	}
	vols := candles.Volumes()
	base := avg(vols[n-period:])
	if base == 0 {
		return 0, false
	}
	return avg(vols[n-5:]) / base, true
}

// VolumeAnalysis classifies recent volume against its period-bar average.
func VolumeAnalysis(candles models.PriceSeries, period int) models.VolumeRegime {
	if period <= 0 {
		period = 20
	}
	if len(candles) < period {
		return models.VolumeInsufficient
	}
	ratio, ok := VolumeRatio(candles, period)
	if !ok {
		return models.VolumeAverage
	}

	switch {
	case ratio > 1.5:
		return models.VolumeHigh
	case ratio > 1.2:
		return models.VolumeAboveAverage
	case ratio < 0.8:
		return models.VolumeLow
	default:
		return models.VolumeAverage
	}
}
