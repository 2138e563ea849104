package api

import (
	"net/http"

	"github.com/dmitrymomot/fundalert/pkg/handler"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

type createUserRequest struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	IsAdmin           bool   `json:"is_admin"`
	ExpirationMinutes *int   `json:"expiration_minutes,omitempty"`
}

func (a *API) createUser(ctx handler.Context, req createUserRequest) handler.Response {
	opts := append([]user.Option(nil), a.userOpts...)
	if req.IsAdmin {
		opts = append(opts, user.WithAdmin())
	}
	if req.ExpirationMinutes != nil {
		opts = append(opts, user.WithExpirationMinutes(*req.ExpirationMinutes))
	}
	u, err := user.New(req.Email, req.Name, opts...)
	if err != nil {
		return handler.JSONError(httpError(err))
	}
	if err := a.users.Put(ctx, u); err != nil {
		return handler.JSONError(httpError(err))
	}
	view := newUserView(u)
	view.APIKey = u.APIKey
	return handler.JSON(view, handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) listUsers(ctx handler.Context, _ struct{}) handler.Response {
	users, err := a.users.List(ctx)
	if err != nil {
		return handler.JSONError(httpError(err))
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	return handler.JSON(views, handler.WithJSONMeta(map[string]any{"total": len(views)}))
}
