package technical

import (
	"math"
)

// SMA calculates the simple moving average for the given period.
// The result has the same length as data; the first period-1 positions
// are NaN because the window is not yet full.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	if period <= 0 {
		return nil
	}

	result := nanSlice(n)
	if n < period {
		return result
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}

	return result
}

// SMALatest returns the most recent SMA value. ok is false when fewer
// than period values exist.
func SMALatest(data []float64, period int) (float64, bool) {
	if period <= 0 || len(data) < period {
		return 0, false
	}
	return avg(data[len(data)-period:]), true
}

// EMA calculates the exponential moving average with span period.
// It uses the bias-adjusted recurrence, so it is defined from the first
// value and converges to the plain recursive EMA after a few spans.
func EMA(data []float64, period int) []float64 {
	n := len(data)
	if n == 0 || period <= 0 {
		return make([]float64, n)
	}

	ema := make([]float64, n)
	decay := 1 - 2.0/float64(period+1)

	num, den := 0.0, 0.0
	for i, v := range data {
		num = v + decay*num
		den = 1 + decay*den
		ema[i] = num / den
	}

	return ema
}

// EMALatest returns the most recent EMA value.
func EMALatest(data []float64, period int) float64 {
	vals := EMA(data, period)
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}

// RollingStd calculates the rolling sample standard deviation (n-1
// denominator). Positions before a full window are NaN.
func RollingStd(data []float64, period int) []float64 {
	n := len(data)
	if period <= 1 {
		return nanSlice(n)
	}

	result := nanSlice(n)
	for i := period - 1; i < n; i++ {
		window := data[i-period+1 : i+1]
		if hasNaN(window) {
			continue
		}
		result[i] = sampleStd(window)
	}

	return result
}

// --- helper functions ---

func avg(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func sampleStd(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	mean := avg(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func hasNaN(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func lastDefined(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	v := vals[len(vals)-1]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
