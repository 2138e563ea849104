// Package pgstore is the PostgreSQL backend of store.Store.
//
// A user is one row: the whole aggregate as jsonb plus the id, api_key and
// version columns needed for lookups and for the compare-and-swap update
//
//	UPDATE users SET ... WHERE id = $1 AND version = $5
//
// which affects no row when another writer got there first.
//
// The schema ships embedded in the binary; call Migrate once at startup.
package pgstore
