// Package fx converts amounts between currencies for display. It is a
// collaborator of the scoring core, never called by it: the converter owns
// its rate cache, takes its rate source by injection and reports whether a
// rate came from the live source, the cache or the fallback table.
package fx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/seenimoa/stockscore/internal/config"
	"github.com/seenimoa/stockscore/internal/infra"
)

// DefaultCacheTTL is how long a fetched rate is reused.
const DefaultCacheTTL = time.Hour

// ErrRateUnavailable is returned when neither the source nor the fallback
// table can price a pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ErrInvalidCurrency is returned for codes that are not three letters.
var ErrInvalidCurrency = errors.New("invalid currency code")

// Origin tells where a quoted rate came from.
type Origin string

const (
	OriginIdentity Origin = "identity"
	OriginLive     Origin = "live"
	OriginCache    Origin = "cache"
	OriginFallback Origin = "fallback"
)

// Quote is an exchange rate for one pair.
type Quote struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Pair   string          `json:"pair"`
	Rate   decimal.Decimal `json:"rate"`
	Origin Origin          `json:"origin"`
}

// Converter prices currency pairs. It is safe for concurrent use.
type Converter struct {
	source   RateSource
	cache    *infra.Cache[string, float64]
	fallback map[string]float64
	log      logrus.FieldLogger
	now      func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithFallbackRates sets the table used when the source fails, keyed by
// "FROM_TO".
func WithFallbackRates(rates map[string]float64) Option {
	return func(c *Converter) {
		c.fallback = make(map[string]float64, len(rates))
		for k, v := range rates {
			c.fallback[strings.ToUpper(k)] = v
		}
	}
}

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Converter) {
		c.cache = infra.NewCache[string, float64](ttl)
	}
}

// WithLogger routes fallback warnings to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Converter) {
		c.log = logger
	}
}

// WithClock replaces the cache clock. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// New creates a Converter reading rates from source.
func New(source RateSource, opts ...Option) *Converter {
	c := &Converter{
		source:   source,
		cache:    infra.NewCache[string, float64](DefaultCacheTTL),
		fallback: map[string]float64{},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.now != nil {
		c.cache.WithClock(c.now)
	}
	return c
}

// NewFromConfig wires an HTTPSource and the configured cache and fallback
// table.
func NewFromConfig(cfg config.FXConfig, logger logrus.FieldLogger) *Converter {
	src := NewHTTPSource(cfg.Endpoint, cfg.APIKey, cfg.Timeout(), cfg.RequestsPerMinute)
	opts := []Option{WithFallbackRates(cfg.FallbackRates)}
	if ttl := cfg.CacheDuration(); ttl > 0 {
		opts = append(opts, WithCacheTTL(ttl))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	return New(src, opts...)
}

// Rate quotes from→to. A pair of identical currencies is 1 without a
// lookup. When the source fails the fallback table is used and the quote
// is marked OriginFallback; with no fallback entry the source error is
// returned wrapped in ErrRateUnavailable.
func (c *Converter) Rate(ctx context.Context, from, to string) (Quote, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{From: from, To: to, Pair: FormatPair(from, to)}

	if from == to {
		q.Rate, q.Origin = decimal.NewFromInt(1), OriginIdentity
		return q, nil
	}

	key := from + "_" + to
	if r, ok := c.cache.Get(key); ok {
		q.Rate, q.Origin = decimal.NewFromFloat(r), OriginCache
		return q, nil
	}

	r, fetchErr := c.fetch(ctx, from, to)
	if fetchErr == nil {
		q.Rate, q.Origin = decimal.NewFromFloat(r), OriginLive
		return q, nil
	}

	if fb, ok := c.fallback[key]; ok {
		c.log.WithError(fetchErr).WithField("pair", q.Pair).Warn("using fallback exchange rate")
		q.Rate, q.Origin = decimal.NewFromFloat(fb), OriginFallback
		return q, nil
	}

	return Quote{}, fmt.Errorf("%w: %s: %v", ErrRateUnavailable, q.Pair, fetchErr)
}

// fetch loads the rate table for from and caches every pair in it.
func (c *Converter) fetch(ctx context.Context, from, to string) (float64, error) {
	if c.source == nil {
		return 0, errors.New("no rate source configured")
	}
	rates, err := c.source.Rates(ctx, from)
	if err != nil {
		return 0, err
	}

	var r float64
	for code, v := range rates {
		if v <= 0 {
			continue
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		c.cache.Set(from+"_"+code, v)
		if code == to {
			r = v
		}
	}

	if r <= 0 {
		return 0, fmt.Errorf("currency %s not found in rates for %s", to, from)
	}
	return r, nil
}

// Convert multiplies amount by the from→to rate. A zero amount converts to
// zero without a lookup.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, Quote, error) {
	if amount.IsZero() {
		return decimal.Zero, Quote{}, nil
	}
	q, err := c.Rate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, Quote{}, err
	}
	return amount.Mul(q.Rate), q, nil
}

// ClearCache drops every cached rate.
func (c *Converter) ClearCache() {
	c.cache.Flush()
}

func normalizePair(from, to string) (string, string, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	for _, code := range []string{from, to} {
		if len(code) != 3 || strings.IndexFunc(code, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return from, to, nil
}
