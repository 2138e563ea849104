// Package mongostore is the MongoDB backend of store.Store.
//
// Each user is a single document keyed by its id. Writes use the stored
// version as part of the replace filter, so a writer holding a stale copy
// matches nothing and gets store.ErrVersionConflict.
package mongostore
