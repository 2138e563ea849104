package ratelimiter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/ratelimiter"
	"github.com/dmitrymomot/fundalert/pkg/redis"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

var testConfig = ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second}

func TestNewBucket_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
	}{
		{name: "zero capacity", cfg: ratelimiter.Config{RefillRate: 1, RefillInterval: time.Second}},
		{name: "zero rate", cfg: ratelimiter.Config{Capacity: 1, RefillInterval: time.Second}},
		{name: "sub millisecond interval", cfg: ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Microsecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), tt.cfg)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}
}

func TestBucket_Memory(t *testing.T) {
	t.Parallel()

	clk := newClock()
	b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithClock(clk.Now)), testConfig)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 2; i >= 0; i-- {
		res, err := b.Allow(ctx, "user")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := b.Allow(ctx, "user")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Equal(t, time.Second, res.RetryAfter(clk.Now()))

	other, err := b.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, other.Allowed(), "buckets are per key")

	// The rejected request still took a token, so two intervals are needed.
	clk.Advance(1500 * time.Millisecond)
	res, err = b.Status(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)

	clk.Advance(time.Second)
	res, err = b.Allow(ctx, "user")
	require.NoError(t, err)
	assert.True(t, res.Allowed())

	clk.Advance(time.Hour)
	res, err = b.Status(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining, "refill is capped at capacity")

	_, err = b.AllowN(ctx, "user", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)

	_, err = b.AllowN(ctx, "user", 3)
	require.NoError(t, err)
	require.NoError(t, b.Reset(ctx, "user"))
	res, err = b.Status(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Remaining)
}

func TestMemoryStore_SweepsStaleBuckets(t *testing.T) {
	t.Parallel()

	clk := newClock()
	s := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clk.Now), ratelimiter.WithStaleAfter(time.Minute))
	ctx := context.Background()

	_, _, err := s.ConsumeTokens(ctx, "a", 1, testConfig)
	require.NoError(t, err)
	_, _, err = s.ConsumeTokens(ctx, "b", 1, testConfig)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	clk.Advance(2 * time.Minute)
	_, _, err = s.ConsumeTokens(ctx, "c", 1, testConfig)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
		Capacity: 50, RefillRate: 1, RefillInterval: time.Hour,
	})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(context.Background(), "shared")
			if err == nil && res.Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestKeyFuncs(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	assert.Empty(t, ratelimiter.ByAPIKey("X-API-Key")(req))
	assert.Equal(t, "ip:10.0.0.1", ratelimiter.ByClientIP()(req))

	req.Header.Set("X-Forwarded-For", "bogus, 203.0.113.7, 10.0.0.2")
	assert.Equal(t, "ip:10.0.0.1", ratelimiter.ByClientIP()(req), "untrusted header ignored")
	assert.Equal(t, "ip:203.0.113.7", ratelimiter.ByClientIP("X-Forwarded-For")(req))

	req.Header.Set("X-API-Key", "secret-key")
	key := ratelimiter.ByAPIKey("X-API-Key")(req)
	assert.NotContains(t, key, "secret-key")
	assert.Equal(t, key, ratelimiter.FirstOf(ratelimiter.ByAPIKey("X-API-Key"), ratelimiter.ByClientIP())(req))

	req.RemoteAddr = "not-an-address"
	assert.Empty(t, ratelimiter.ByClientIP()(req))
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ConsumeTokens(ctx context.Context, key string, tokens int, cfg ratelimiter.Config) (int, time.Time, error) {
	args := m.Called(ctx, key, tokens, cfg)
	return args.Int(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockStore) Reset(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	do := func(h http.Handler, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("limits per key", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithClock(clk.Now)), testConfig)
		require.NoError(t, err)
		h := ratelimiter.Middleware(b, ratelimiter.ByAPIKey("X-API-Key"), ratelimiter.WithMiddlewareClock(clk.Now))(ok)

		for range 3 {
			assert.Equal(t, http.StatusNoContent, do(h, "k1").Code)
		}
		rec := do(h, "k1")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "too_many_requests", body.Error.Code)

		assert.Equal(t, http.StatusNoContent, do(h, "k2").Code)
		assert.Equal(t, http.StatusNoContent, do(h, "").Code, "no key, no limit")
	})

	t.Run("store failure lets requests through", func(t *testing.T) {
		t.Parallel()
		store := &MockStore{}
		store.On("ConsumeTokens", mock.Anything, mock.Anything, 1, testConfig).
			Return(0, time.Time{}, ratelimiter.ErrStoreUnavailable)
		b, err := ratelimiter.NewBucket(store, testConfig)
		require.NoError(t, err)
		h := ratelimiter.Middleware(b, ratelimiter.ByAPIKey("X-API-Key"), ratelimiter.WithLogger(logger.Discard()))(ok)

		assert.Equal(t, http.StatusNoContent, do(h, "k1").Code)
		store.AssertExpectations(t)
	})
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	b, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client, "test:rl:"+uuid.NewString()+":"), ratelimiter.Config{
		Capacity: 2, RefillRate: 1, RefillInterval: time.Hour,
	})
	require.NoError(t, err)

	for _, want := range []int{1, 0, -1} {
		res, err := b.Allow(ctx, "user")
		require.NoError(t, err)
		assert.Equal(t, want, res.Remaining)
	}
	require.NoError(t, b.Reset(ctx, "user"))
	res, err := b.Status(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining)
}
