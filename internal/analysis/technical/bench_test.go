package technical

import (
	"math/rand"
	"testing"
	"time"

	"github.com/seenimoa/stockscore/pkg/models"
)

// benchCandles creates synthetic OHLCV data for benchmarks.
func benchCandles(n int) models.PriceSeries {
	candles := make(models.PriceSeries, n)
	rng := rand.New(rand.NewSource(42))
	price := 2500.0
	t := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range candles {
		change := (rng.Float64() - 0.48) * 50 // slight upward bias
		open := price
		close := price + change
		high := max(open, close) + rng.Float64()*30
		low := min(open, close) - rng.Float64()*30

		candles[i] = models.OHLCV{
			Timestamp: t,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    int64(rng.Intn(5_000_000) + 100_000),
		}
		price = close
		t = t.Add(24 * time.Hour)
	}
	return candles
}

// ── Moving Average Benchmarks ──

func BenchmarkSMA20_1250(b *testing.B) {
	data := benchCandles(1250).Closes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SMA(data, 20)
	}
}

func BenchmarkEMA26_1250(b *testing.B) {
	data := benchCandles(1250).Closes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EMA(data, 26)
	}
}

// ── Oscillator Benchmarks ──

func BenchmarkRSI14_1250(b *testing.B) {
	candles := benchCandles(1250)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RSI(candles, 14)
	}
}

func BenchmarkMACD_1250(b *testing.B) {
	candles := benchCandles(1250)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MACD(candles, 12, 26, 9)
	}
}

func BenchmarkBollingerBands_1250(b *testing.B) {
	candles := benchCandles(1250)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BollingerBands(candles, 20, 2)
	}
}

func BenchmarkVolatility30_1250(b *testing.B) {
	candles := benchCandles(1250)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Volatility(candles, 30)
	}
}

func BenchmarkATRLatest_1250(b *testing.B) {
	candles := benchCandles(1250)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ATRLatest(candles, 14)
	}
}

// ── Summary Benchmarks ──

func BenchmarkSummarize_250(b *testing.B) {
	candles := benchCandles(250)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Summarize(candles)
	}
}

func BenchmarkSummarize_1250(b *testing.B) {
	candles := benchCandles(1250)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Summarize(candles)
	}
}
