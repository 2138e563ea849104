// Package store persists User aggregates.
//
// Every backend implements Store with the same optimistic concurrency rule:
// Put succeeds only when the caller's Version equals the stored one, then
// increments it. A Version of zero inserts. Callers that lose the race get
// ErrVersionConflict and are expected to re-read and re-apply their change.
//
// Backends:
//
//   - NewMemory keeps documents in process. Tests and STORE_DRIVER=memory use it.
//   - mongostore keeps one document per user in a MongoDB collection.
//   - pgstore keeps one jsonb row per user in PostgreSQL.
//
// NewCached wraps any Store with a read-through Cache. pkg/cache and
// pkg/redis both provide a Cache.
package store
