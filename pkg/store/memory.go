package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

// Memory is an in-process Store. Users are stored as documents, so callers
// never share state with the store or with each other.
type Memory struct {
	mu             sync.RWMutex
	docs           map[string]Document
	keys           map[string]string
	defaultMinutes int
}

// MemoryOption configures NewMemory.
type MemoryOption func(*Memory)

// WithMemoryDefaultExpiration sets the window given to notifications stored
// without one.
func WithMemoryDefaultExpiration(minutes int) MemoryOption {
	return func(m *Memory) { m.defaultMinutes = minutes }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		docs:           make(map[string]Document),
		keys:           make(map[string]string),
		defaultMinutes: notifications.DefaultExpirationMinutes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, id string) (*user.User, error) {
	m.mu.RLock()
	d, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return d.User(m.defaultMinutes)
}

func (m *Memory) GetByAPIKey(ctx context.Context, key string) (*user.User, error) {
	m.mu.RLock()
	id, ok := m.keys[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.Get(ctx, id)
}

func (m *Memory) List(_ context.Context) ([]*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*user.User, 0, len(m.docs))
	for _, id := range slices.Sorted(maps.Keys(m.docs)) {
		u, err := m.docs[id].User(m.defaultMinutes)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *Memory) Put(_ context.Context, u *user.User) error {
	d, err := NextDocument(u)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.docs[u.ID]
	switch {
	case !exists && u.Version != 0:
		return ErrVersionConflict
	case exists && current.Version != u.Version:
		return ErrVersionConflict
	}
	if owner, ok := m.keys[d.APIKey]; ok && owner != d.ID {
		return ErrDuplicateAPIKey
	}
	if exists && current.APIKey != d.APIKey {
		delete(m.keys, current.APIKey)
	}

	m.docs[d.ID] = d
	m.keys[d.APIKey] = d.ID
	u.Version = d.Version
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(m.docs, id)
	delete(m.keys, d.APIKey)
	return nil
}
