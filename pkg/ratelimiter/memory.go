package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// DefaultStaleAfter is how long an untouched bucket is kept by MemoryStore.
const DefaultStaleAfter = time.Hour

type bucketState struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryStore keeps buckets in process. Stale buckets are swept on access
// once per sweep interval, so no goroutine is needed.
type MemoryStore struct {
	mu         sync.Mutex
	buckets    map[string]*bucketState
	now        func() time.Time
	staleAfter time.Duration
	lastSweep  time.Time
}

type MemoryOption func(*MemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) { m.now = now }
}

func WithStaleAfter(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		if d > 0 {
			m.staleAfter = d
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		buckets:    make(map[string]*bucketState),
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.now()
	return m
}

func (m *MemoryStore) ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (int, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	b, ok := m.buckets[key]
	if !ok {
		b = &bucketState{tokens: cfg.Capacity, lastRefill: now}
		m.buckets[key] = b
	}
	refill(b, cfg, now)
	b.tokens -= tokens
	b.lastAccess = now
	return b.tokens, b.lastRefill.Add(cfg.RefillInterval), nil
}

func (m *MemoryStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.buckets, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of tracked buckets.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

func (m *MemoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.staleAfter {
		return
	}
	m.lastSweep = now
	for key, b := range m.buckets {
		if now.Sub(b.lastAccess) > m.staleAfter {
			delete(m.buckets, key)
		}
	}
}

// refill adds the tokens earned by whole intervals since the last refill.
// The partial interval is carried over.
func refill(b *bucketState, cfg Config, now time.Time) {
	intervals := int64(now.Sub(b.lastRefill) / cfg.RefillInterval)
	if intervals <= 0 {
		return
	}
	// Enough intervals to fill the bucket from empty, avoiding overflow.
	limit := int64(cfg.Capacity/cfg.RefillRate + 1)
	b.tokens = min(b.tokens+int(min(intervals, limit))*cfg.RefillRate, cfg.Capacity)
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * cfg.RefillInterval)
}
