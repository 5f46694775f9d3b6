package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockscore/internal/scoring"
	"github.com/seenimoa/stockscore/pkg/models"
)

func trending(n int, rate float64) models.PriceSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, n)
	price := 100.0
	for i := range out {
		open := price
		price *= 1 + rate
		out[i] = models.OHLCV{
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      math.Max(open, price) + 0.5,
			Low:       math.Min(open, price) - 0.5,
			Close:     price,
			Volume:    1_000_000,
		}
	}
	return out
}

func snapshot() models.Fundamentals {
	return models.Fundamentals{
		TrailingPE:    models.Float(14),
		ProfitMargin:  models.Float(0.18),
		ROE:           models.Float(0.22),
		DebtToEquity:  models.Float(0.4),
		CurrentRatio:  models.Float(1.8),
		RevenueGrowth: models.Float(0.12),
		Beta:          models.Float(1.1),
	}
}

// ── Analyze ──

func TestAnalyzeFullHistory(t *testing.T) {
	res, err := Analyze(Input{Symbol: "ACME", Prices: trending(300, 0.005), Fundamentals: snapshot()})
	require.NoError(t, err)

	assert.Equal(t, "ACME", res.Symbol)
	assert.Equal(t, 300, res.Bars)
	assert.True(t, res.Summary.Sufficient)
	assert.Equal(t, models.TrendStrongUp, res.Summary.Trend)
	require.NotNil(t, res.Metrics.Volatility)
	require.NotNil(t, res.Metrics.MaxDrawdown)
	assert.Equal(t, 0.0, *res.Metrics.MaxDrawdown)

	rec := res.Recommendation
	assert.Contains(t, []models.Action{models.Buy, models.StrongBuy}, rec.Action)
	assert.False(t, rec.Scores.Technical.Fallback)
	assert.InDelta(t, scoring.Overall(rec.Scores), rec.OverallScore, 1e-9)
}

func TestAnalyzeWithoutPrices(t *testing.T) {
	res, err := Analyze(Input{Symbol: "NOPX", Fundamentals: snapshot()})
	require.NoError(t, err)

	assert.False(t, res.Summary.Sufficient)
	assert.Equal(t, models.TrendInsufficient, res.Summary.Trend)
	assert.Nil(t, res.Metrics.Volatility)
	assert.Equal(t, scoring.Neutral, res.Recommendation.Scores.Technical.Value)
	assert.True(t, res.Recommendation.Scores.Technical.Fallback)
	assert.True(t, res.Recommendation.Scores.Momentum.Fallback)
}

func TestAnalyzeRejectsMalformedSeries(t *testing.T) {
	prices := trending(60, 0.01)
	prices[10].Timestamp = prices[9].Timestamp

	_, err := Analyze(Input{Symbol: "DUP", Prices: prices})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDuplicateDate)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 10, verr.Index)
	assert.Contains(t, err.Error(), "DUP")

	prices = trending(60, 0.01)
	prices[5].Volume = -1
	_, err = Analyze(Input{Prices: prices})
	assert.ErrorIs(t, err, models.ErrNegativeVolume)
	assert.Contains(t, err.Error(), "input")

	prices = trending(60, 0.01)
	prices[59].Close = math.NaN()
	res, err := Analyze(Input{Symbol: "NAN", Prices: prices})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrNonFiniteValue)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 59, verr.Index)
}

func TestAnalyzeUsesScorerSink(t *testing.T) {
	sink := &scoring.RecordingSink{}
	a := New(scoring.New(scoring.WithTraceSink(sink)))

	_, err := a.Analyze(Input{Symbol: "ACME", Prices: trending(80, 0.002), Fundamentals: snapshot()})
	require.NoError(t, err)
	assert.Len(t, sink.SubScores, 5)
	assert.Len(t, sink.Decisions, 1)
}

// ── Batch ──

func TestAnalyzeBatch(t *testing.T) {
	bad := trending(40, 0.01)
	bad[3].High = bad[3].Low - 1

	inputs := []Input{
		{Symbol: "UP", Prices: trending(120, 0.004), Fundamentals: snapshot()},
		{Symbol: "BAD", Prices: bad},
		{Symbol: "DOWN", Prices: trending(120, -0.004)},
		{Symbol: "EMPTY"},
	}

	batch, err := New(nil).AnalyzeBatch(context.Background(), inputs, 2)
	require.NoError(t, err)

	_, err = uuid.Parse(batch.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Items, 4)

	for i, item := range batch.Items {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, inputs[i].Symbol, item.Symbol)
	}
	assert.Nil(t, batch.Items[1].Result)
	assert.ErrorIs(t, batch.Items[1].Err(), models.ErrInvalidBar)
	assert.NotEmpty(t, batch.Items[1].Error)
	assert.NotNil(t, batch.Items[2].Result)
	assert.Empty(t, batch.Items[2].Error)
}

func TestAnalyzeBatchLoadErr(t *testing.T) {
	errOffline := errors.New("quote source offline")
	inputs := []Input{
		{Symbol: "GONE", Prices: trending(60, 0.01), LoadErr: errOffline},
		{Symbol: "UP", Prices: trending(60, 0.01)},
	}

	batch, err := New(nil).AnalyzeBatch(context.Background(), inputs, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	gone := batch.Items[0]
	assert.Equal(t, "GONE", gone.Symbol)
	assert.Nil(t, gone.Result)
	assert.ErrorIs(t, gone.Err(), errOffline)
	assert.Equal(t, "quote source offline", gone.Error)
	assert.NotNil(t, batch.Items[1].Result)
}

func TestAnalyzeBatchMatchesSequential(t *testing.T) {
	var inputs []Input
	for i := 0; i < 12; i++ {
		inputs = append(inputs, Input{
			Symbol:       "S",
			Prices:       trending(60+i*20, 0.001*float64(i-6)),
			Fundamentals: snapshot(),
		})
	}

	a := New(nil)
	batch, err := a.AnalyzeBatch(context.Background(), inputs, 0)
	require.NoError(t, err)

	for i, in := range inputs {
		want, err := a.Analyze(in)
		require.NoError(t, err)
		assert.Equal(t, want.Recommendation, batch.Items[i].Result.Recommendation, "item %d", i)
	}
}

func TestAnalyzeBatchErrors(t *testing.T) {
	a := New(nil)

	_, err := a.AnalyzeBatch(context.Background(), nil, 4)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.AnalyzeBatch(ctx, []Input{{Symbol: "X"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
