// Package ratelimiter throttles API callers with token buckets.
//
// A Bucket holds the limits and a Store keeps the per key state.
// MemoryStore serves a single instance and RedisStore shares buckets
// between instances. Middleware applies a bucket to HTTP requests keyed by
// a KeyFunc such as ByAPIKey or ByClientIP and answers 429 with Retry-After
// once the bucket is empty.
//
//	b, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client, "fundalert:rl:"), cfg)
//	r.Use(ratelimiter.Middleware(b, ratelimiter.FirstOf(ratelimiter.ByAPIKey("X-API-Key"), ratelimiter.ByClientIP())))
package ratelimiter
