// Package cache provides a generic, thread-safe LRU cache with optional per
// entry expiry, and Local, a byte cache built on it.
//
// Entries leave the cache when it is over capacity (least recently used
// first), when their ttl has passed, or when removed explicitly. Expired
// entries are dropped on the next access rather than by a background sweep.
//
// # Usage
//
//	c := cache.NewLRU[string, *user.User](128)
//	c.Set("u-1", u, 5*time.Minute)
//	if u, ok := c.Get("u-1"); ok {
//		// use u
//	}
//
// Local adapts the LRU to the store.Cache interface so it can sit in front
// of a user store when Redis is not configured:
//
//	users := store.NewCached(mongoStore, cache.NewLocal(cfg.UserCacheSize))
package cache
