package cache

import (
	"context"
	"slices"
	"time"
)

// DefaultLocalSize is the capacity used by NewLocal for a non-positive size.
const DefaultLocalSize = 1024

// Local is an in-process byte cache backed by LRU. It satisfies the
// store.Cache interface.
type Local struct {
	lru *LRU[string, []byte]
}

func NewLocal(size int) *Local {
	if size <= 0 {
		size = DefaultLocalSize
	}
	return &Local{lru: NewLRU[string, []byte](size)}
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	l.lru.Set(key, slices.Clone(value), ttl)
	return nil
}

func (l *Local) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		l.lru.Remove(k)
	}
	return nil
}

// Len reports the number of cached entries.
func (l *Local) Len() int {
	return l.lru.Len()
}
