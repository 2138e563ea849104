package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

const (
	queryGet         = `SELECT document FROM users WHERE id = $1`
	queryGetByAPIKey = `SELECT document FROM users WHERE api_key = $1`
	queryList        = `SELECT document FROM users ORDER BY id`
	queryInsert      = `INSERT INTO users (id, api_key, version, document) VALUES ($1, $2, $3, $4)`
	queryUpdate      = `UPDATE users SET api_key = $2, version = $3, document = $4, updated_at = now() WHERE id = $1 AND version = $5`
	queryDelete      = `DELETE FROM users WHERE id = $1`
)

// Store keeps each user as a jsonb document next to its id, api key and
// version columns.
type Store struct {
	pool           *pgxpool.Pool
	defaultMinutes int
}

// Option configures New.
type Option func(*Store)

// WithDefaultExpiration sets the window given to notifications stored
// without one.
func WithDefaultExpiration(minutes int) Option {
	return func(s *Store) { s.defaultMinutes = minutes }
}

// New returns a store over pool. The schema must have been applied with
// Migrate.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, defaultMinutes: notifications.DefaultExpirationMinutes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, id string) (*user.User, error) {
	return s.getOne(ctx, queryGet, id)
}

func (s *Store) GetByAPIKey(ctx context.Context, key string) (*user.User, error) {
	return s.getOne(ctx, queryGetByAPIKey, key)
}

func (s *Store) List(ctx context.Context) ([]*user.User, error) {
	rows, err := s.pool.Query(ctx, queryList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		u, err := s.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) Put(ctx context.Context, u *user.User) error {
	d, err := store.NextDocument(u)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode user %q: %w", u.ID, err)
	}

	if u.Version == 0 {
		_, err = s.pool.Exec(ctx, queryInsert, d.ID, d.APIKey, d.Version, raw)
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == primaryKeyConstraint {
				return store.ErrVersionConflict
			}
			return store.ErrDuplicateAPIKey
		}
		if err != nil {
			return err
		}
		u.Version = d.Version
		return nil
	}

	tag, err := s.pool.Exec(ctx, queryUpdate, d.ID, d.APIKey, d.Version, raw, u.Version)
	if _, ok := uniqueViolation(err); ok {
		return store.ErrDuplicateAPIKey
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrVersionConflict
	}
	u.Version = d.Version
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, queryDelete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *Store) getOne(ctx context.Context, query string, arg string) (*user.User, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, query, arg).Scan(&raw)
	if isNotFound(err) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.decode(raw)
}

func (s *Store) decode(raw []byte) (*user.User, error) {
	var d store.Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrCorruptDocument, err)
	}
	return d.User(s.defaultMinutes)
}
