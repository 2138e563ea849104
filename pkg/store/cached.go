package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

// Cache is a byte oriented key value cache with per key expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	userKeyPrefix   = "user:"
	apiKeyKeyPrefix = "user_api_key:"

	DefaultCacheTTL = 5 * time.Minute
)

// Cached is a read-through Store decorator. Reads by id and by API key are
// served from the cache when present; writes go to the underlying store and
// then drop the cached entries. Cache failures never fail a call.
type Cached struct {
	next           Store
	cache          Cache
	ttl            time.Duration
	defaultMinutes int
	logger         *slog.Logger
}

// CachedOption configures NewCached.
type CachedOption func(*Cached)

func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(l *slog.Logger) CachedOption {
	return func(c *Cached) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithCacheDefaultExpiration(minutes int) CachedOption {
	return func(c *Cached) { c.defaultMinutes = minutes }
}

func NewCached(next Store, cache Cache, opts ...CachedOption) *Cached {
	c := &Cached{
		next:           next,
		cache:          cache,
		ttl:            DefaultCacheTTL,
		defaultMinutes: notifications.DefaultExpirationMinutes,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) Get(ctx context.Context, id string) (*user.User, error) {
	if u, ok := c.lookup(ctx, userKeyPrefix+id); ok {
		return u, nil
	}
	u, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, u)
	return u, nil
}

func (c *Cached) GetByAPIKey(ctx context.Context, key string) (*user.User, error) {
	raw, ok, err := c.cache.Get(ctx, apiKeyKeyPrefix+key)
	if err != nil {
		c.warn(ctx, "api key cache read failed", err)
	}
	if ok {
		if u, err := c.Get(ctx, string(raw)); err == nil && u.APIKey == key {
			return u, nil
		}
	}
	u, err := c.next.GetByAPIKey(ctx, key)
	if err != nil {
		return nil, err
	}
	c.remember(ctx, u)
	return u, nil
}

// List always reads through.
func (c *Cached) List(ctx context.Context) ([]*user.User, error) {
	return c.next.List(ctx)
}

func (c *Cached) Put(ctx context.Context, u *user.User) error {
	stale := c.staleKeys(ctx, u.ID)
	if err := c.next.Put(ctx, u); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			c.forget(ctx, stale...)
		}
		return err
	}
	c.forget(ctx, append(stale, apiKeyKeyPrefix+u.APIKey)...)
	return nil
}

func (c *Cached) Delete(ctx context.Context, id string) error {
	stale := c.staleKeys(ctx, id)
	err := c.next.Delete(ctx, id)
	c.forget(ctx, stale...)
	return err
}

// Invalidate drops any cached copy of the user with id. It never fails;
// cache errors are logged.
func (c *Cached) Invalidate(ctx context.Context, id string) {
	c.forget(ctx, c.staleKeys(ctx, id)...)
}

// staleKeys lists the cache keys that describe the currently cached version
// of the user with id.
func (c *Cached) staleKeys(ctx context.Context, id string) []string {
	keys := []string{userKeyPrefix + id}
	raw, ok, err := c.cache.Get(ctx, userKeyPrefix+id)
	if err != nil || !ok {
		return keys
	}
	var d Document
	if json.Unmarshal(raw, &d) == nil && d.APIKey != "" {
		keys = append(keys, apiKeyKeyPrefix+d.APIKey)
	}
	return keys
}

func (c *Cached) lookup(ctx context.Context, key string) (*user.User, bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.warn(ctx, "user cache read failed", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		c.warn(ctx, "cached user is unreadable", err)
		c.forget(ctx, key)
		return nil, false
	}
	u, err := d.User(c.defaultMinutes)
	if err != nil {
		c.warn(ctx, "cached user is corrupt", err)
		c.forget(ctx, key)
		return nil, false
	}
	return u, true
}

func (c *Cached) remember(ctx context.Context, u *user.User) {
	raw, err := json.Marshal(NewDocument(u))
	if err != nil {
		c.warn(ctx, "user cannot be cached", err)
		return
	}
	if err := c.cache.Set(ctx, userKeyPrefix+u.ID, raw, c.ttl); err != nil {
		c.warn(ctx, "user cache write failed", err)
		return
	}
	if err := c.cache.Set(ctx, apiKeyKeyPrefix+u.APIKey, []byte(u.ID), c.ttl); err != nil {
		c.warn(ctx, "api key cache write failed", err)
	}
}

func (c *Cached) forget(ctx context.Context, keys ...string) {
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.warn(ctx, "user cache invalidation failed", err)
	}
}

func (c *Cached) warn(ctx context.Context, msg string, err error) {
	c.logger.LogAttrs(ctx, slog.LevelWarn, msg, logger.Component("store.cached"), logger.Error(err))
}
