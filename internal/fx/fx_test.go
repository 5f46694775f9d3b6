package fx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockscore/internal/config"
)

type fakeSource struct {
	mu    sync.Mutex
	rates map[string]map[string]float64
	err   error
	calls int
}

func (f *fakeSource) Rates(_ context.Context, base string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rates[base]
	if !ok {
		return nil, fmt.Errorf("no table for %s", base)
	}
	return r, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return l
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// ── Rate ──

func TestRateIdentity(t *testing.T) {
	src := &fakeSource{}
	c := New(src)

	q, err := c.Rate(context.Background(), "usd", "USD")
	require.NoError(t, err)
	assert.True(t, q.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, OriginIdentity, q.Origin)
	assert.Equal(t, "USD/USD", q.Pair)
	assert.Zero(t, src.calls)
}

func TestRateLiveThenCache(t *testing.T) {
	src := &fakeSource{rates: map[string]map[string]float64{
		"USD": {"CAD": 1.37, "EUR": 0.92},
	}}
	c := New(src)
	ctx := context.Background()

	q, err := c.Rate(ctx, "USD", "CAD")
	require.NoError(t, err)
	assert.Equal(t, OriginLive, q.Origin)
	assert.Equal(t, "1.37", q.Rate.String())

	q, err = c.Rate(ctx, "USD", "CAD")
	require.NoError(t, err)
	assert.Equal(t, OriginCache, q.Origin)

	// The whole table was cached by the first fetch.
	q, err = c.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, OriginCache, q.Origin)
	assert.Equal(t, 1, src.calls)
}

func TestRateLowerCaseSourceCodes(t *testing.T) {
	src := &fakeSource{rates: map[string]map[string]float64{
		"USD": {"cad": 1.37, " eur": 0.92},
	}}
	c := New(src)

	q, err := c.Rate(context.Background(), "USD", "CAD")
	require.NoError(t, err)
	assert.Equal(t, OriginLive, q.Origin)
	assert.True(t, q.Rate.Equal(decimal.NewFromFloat(1.37)))

	q, err = c.Rate(context.Background(), "usd", "eur")
	require.NoError(t, err)
	assert.Equal(t, OriginCache, q.Origin)
	assert.True(t, q.Rate.Equal(decimal.NewFromFloat(0.92)))
	assert.Equal(t, 1, src.calls)
}

func TestRateCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	src := &fakeSource{rates: map[string]map[string]float64{"USD": {"CAD": 1.37}}}
	c := New(src, WithCacheTTL(time.Hour), WithClock(clock))
	ctx := context.Background()

	_, err := c.Rate(ctx, "USD", "CAD")
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	q, _ := c.Rate(ctx, "USD", "CAD")
	assert.Equal(t, OriginCache, q.Origin)

	now = now.Add(time.Minute)
	q, _ = c.Rate(ctx, "USD", "CAD")
	assert.Equal(t, OriginLive, q.Origin)
	assert.Equal(t, 2, src.calls)
}

func TestRateFallback(t *testing.T) {
	src := &fakeSource{err: errors.New("network down")}
	c := New(src,
		WithFallbackRates(map[string]float64{"usd_cad": 1.35}),
		WithLogger(quietLogger()),
	)

	q, err := c.Rate(context.Background(), "USD", "CAD")
	require.NoError(t, err)
	assert.Equal(t, OriginFallback, q.Origin)
	assert.Equal(t, "1.35", q.Rate.String())
}

func TestRateUnavailable(t *testing.T) {
	src := &fakeSource{err: errors.New("network down")}
	c := New(src, WithLogger(quietLogger()))

	_, err := c.Rate(context.Background(), "USD", "JPY")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateUnavailable)
	assert.ErrorContains(t, err, "network down")
}

func TestRateMissingTarget(t *testing.T) {
	src := &fakeSource{rates: map[string]map[string]float64{"USD": {"CAD": 1.37}}}
	c := New(src)

	_, err := c.Rate(context.Background(), "USD", "XYZ")
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestRateInvalidCurrency(t *testing.T) {
	c := New(&fakeSource{})
	for _, pair := range [][2]string{{"US", "CAD"}, {"USD", "C4D"}, {"", "USD"}} {
		_, err := c.Rate(context.Background(), pair[0], pair[1])
		assert.ErrorIs(t, err, ErrInvalidCurrency, "pair %v", pair)
	}
}

func TestClearCache(t *testing.T) {
	src := &fakeSource{rates: map[string]map[string]float64{"USD": {"CAD": 1.37}}}
	c := New(src)
	ctx := context.Background()

	_, _ = c.Rate(ctx, "USD", "CAD")
	c.ClearCache()
	q, err := c.Rate(ctx, "USD", "CAD")
	require.NoError(t, err)
	assert.Equal(t, OriginLive, q.Origin)
}

// ── Convert ──

func TestConvert(t *testing.T) {
	src := &fakeSource{rates: map[string]map[string]float64{"USD": {"CAD": 1.25}}}
	c := New(src)
	ctx := context.Background()

	out, q, err := c.Convert(ctx, decimal.RequireFromString("100.40"), "USD", "CAD")
	require.NoError(t, err)
	assert.Equal(t, "125.5", out.String())
	assert.Equal(t, OriginLive, q.Origin)

	out, _, err = c.Convert(ctx, decimal.Zero, "USD", "XYZ")
	require.NoError(t, err)
	assert.True(t, out.IsZero())
	assert.Equal(t, 1, src.calls)
}

// ── HTTP source ──

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/latest/USD":
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"base":"USD","rates":{"USD":1,"CAD":1.36}}`)
		case "/latest/EMPTY":
			fmt.Fprint(w, `{"base":"EMPTY","rates":{}}`)
		default:
			http.Error(w, "unknown base", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/latest/{from}", "secret", time.Second, 600)
	ctx := context.Background()

	rates, err := src.Rates(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.36, rates["CAD"])

	_, err = src.Rates(ctx, "EMPTY")
	assert.ErrorContains(t, err, "empty rate table")

	_, err = src.Rates(ctx, "GBP")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestNewFromConfigFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.FXConfig{
		Endpoint:          srv.URL + "/{from}",
		CacheTTL:          60,
		TimeoutSec:        1,
		RequestsPerMinute: 600,
		FallbackRates:     map[string]float64{"CAD_USD": 0.74},
	}
	c := NewFromConfig(cfg, quietLogger())

	q, err := c.Rate(context.Background(), "CAD", "USD")
	require.NoError(t, err)
	assert.Equal(t, OriginFallback, q.Origin)
	assert.Equal(t, "0.74", q.Rate.String())
}

// ── Display helpers ──

func TestCurrencyInfo(t *testing.T) {
	assert.Equal(t, Info{"CAD", "Canadian Dollar", "Canada", "C$"}, CurrencyInfo("cad"))
	assert.Equal(t, Info{"XYZ", "XYZ", "Unknown", "XYZ"}, CurrencyInfo("XYZ"))
	assert.Equal(t, "£", Symbol("GBP"))
	assert.Equal(t, "USD/CAD", FormatPair("usd", "cad"))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"0", "USD", "$0.00"},
		{"12.5", "EUR", "€12.50"},
		{"1234.567", "CAD", "C$1,234.57"},
		{"1000000", "USD", "$1,000,000.00"},
		{"-999.5", "GBP", "-£999.50"},
	}
	for _, tt := range tests {
		got := FormatAmount(decimal.RequireFromString(tt.amount), tt.code)
		if got != tt.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
}
