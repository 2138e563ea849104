package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/fundalert/pkg/handler"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

// APIKeyHeader carries a user's API key.
const APIKeyHeader = "X-API-Key"

var userKey = handler.NewContextKey("user")

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(ctx context.Context) *user.User {
	return handler.ContextValue[*user.User](ctx, userKey)
}

// Authenticate resolves the caller from the X-API-Key header or, when the
// header is absent, from the id_user attribute of a pushed envelope.
// Unknown callers get 401.
func Authenticate(users store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := authenticate(r, users)
			if err != nil {
				handler.RenderError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func authenticate(r *http.Request, users store.Store) (*user.User, error) {
	var (
		u   *user.User
		err error
	)
	if key := r.Header.Get(APIKeyHeader); key != "" {
		u, err = users.GetByAPIKey(r.Context(), key)
	} else if env, ok := pubsub.FromContext(r.Context()); ok && env.UserID() != "" {
		u, err = users.Get(r.Context(), env.UserID())
	} else {
		return nil, handler.ErrUnauthorized
	}
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, handler.ErrUnauthorized
	}
	return u, err
}

// RequireAdmin answers 403 unless the authenticated user is an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r.Context())
		if u == nil {
			handler.RenderError(w, r, handler.ErrUnauthorized)
			return
		}
		if !u.IsAdmin {
			handler.RenderError(w, r, handler.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
