package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestCacheGetSet(t *testing.T) {
	c := NewCache[string, float64](time.Hour)

	_, ok := c.Get("USD_CAD")
	require.False(t, ok, "expected miss on empty cache")

	c.Set("USD_CAD", 1.35)
	v, ok := c.Get("USD_CAD")
	assert.True(t, ok)
	assert.Equal(t, 1.35, v)
}

func TestCacheExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache[string, int](time.Hour).WithClock(clock.Now)

	c.Set("k", 1)
	clock.Advance(59 * time.Minute)
	_, ok := c.Get("k")
	require.True(t, ok, "expected hit before TTL")

	clock.Advance(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "expected miss at TTL")

	c.Cleanup()
	assert.Zero(t, c.Len(), "cleanup should drop the expired entry")
}

func TestCacheCustomTTLAndInvalidate(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache[string, int](time.Hour).WithClock(clock.Now)

	c.SetWithTTL("short", 1, time.Second)
	c.Set("long", 2)
	clock.Advance(2 * time.Second)

	_, ok := c.Get("short")
	assert.False(t, ok, "short entry should expire")
	_, ok = c.Get("long")
	assert.True(t, ok, "long entry should survive")

	c.Invalidate("long")
	_, ok = c.Get("long")
	assert.False(t, ok, "invalidated entry should be gone")

	c.Set("a", 1)
	c.Flush()
	assert.Zero(t, c.Len())
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	require.True(t, rl.Allow())
	require.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "bucket should be empty")
}

func TestRateLimiterWaitCancelled(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}

func TestPerMinute(t *testing.T) {
	rl := PerMinute(60)
	assert.Equal(t, 60, rl.maxTokens)
	assert.Equal(t, time.Second, rl.refillRate)
}
