package store

import (
	"context"

	"github.com/dmitrymomot/fundalert/pkg/user"
)

// Store loads and saves users.
type Store interface {
	// Get returns the user with id or ErrUserNotFound.
	Get(ctx context.Context, id string) (*user.User, error)
	// GetByAPIKey returns the user owning key or ErrUserNotFound.
	GetByAPIKey(ctx context.Context, key string) (*user.User, error)
	// List returns every stored user ordered by id.
	List(ctx context.Context) ([]*user.User, error)
	// Put saves u when u.Version matches the stored version and bumps
	// u.Version on success.
	Put(ctx context.Context, u *user.User) error
	// Delete removes the user with id or returns ErrUserNotFound.
	Delete(ctx context.Context, id string) error
}
