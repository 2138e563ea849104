package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/fundalert/pkg/binder"
	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/credentials"
	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/filter"
	"github.com/dmitrymomot/fundalert/pkg/handler"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

var (
	pathParams handler.Bind = binder.Path(chi.URLParam)
	jsonBody   handler.Bind = binder.JSON()
)

type idRequest struct {
	ID string `path:"id"`
}

type putChannelRequest struct {
	ID string `path:"id" json:"-"`
	channel.Record
}

type putFilterRequest struct {
	ID string `path:"id" json:"-"`
	filter.Record
}

type putCredentialsRequest struct {
	AccountID int64  `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (a *API) getMe(ctx handler.Context, _ struct{}) handler.Response {
	return handler.JSON(newUserView(CurrentUser(ctx)))
}

func (a *API) putCredentials(ctx handler.Context, req putCredentialsRequest) handler.Response {
	u := CurrentUser(ctx)
	creds, err := credentials.New(a.sealer, u.ID, req.AccountID, req.Email, req.Password)
	if err != nil {
		return handler.JSONError(httpError(err))
	}
	if _, err := a.update(ctx, u, event.UserCredentialsUpdated, func(u *user.User) error {
		u.SetCredentials(creds)
		return nil
	}); err != nil {
		return handler.JSONError(httpError(err))
	}
	return handler.Empty()
}

func (a *API) putChannel(ctx handler.Context, req putChannelRequest) handler.Response {
	rec := req.Record
	rec.ID = req.ID
	cfg, err := channel.Decode(rec)
	if err != nil {
		return handler.JSONError(httpError(err))
	}
	if _, err := a.update(ctx, CurrentUser(ctx), event.UserChannelsUpdated, func(u *user.User) error {
		u.PutChannel(cfg)
		return nil
	}); err != nil {
		return handler.JSONError(httpError(err))
	}
	return handler.JSON(cfg.Record())
}

func (a *API) deleteChannel(ctx handler.Context, req idRequest) handler.Response {
	if _, err := a.update(ctx, CurrentUser(ctx), event.UserChannelsUpdated, func(u *user.User) error {
		return u.RemoveChannel(req.ID)
	}); err != nil {
		return handler.JSONError(httpError(err))
	}
	return handler.Empty()
}

func (a *API) putFilter(ctx handler.Context, req putFilterRequest) handler.Response {
	rec := req.Record
	rec.ID = req.ID
	cfg, err := filter.Decode(rec)
	if err != nil {
		return handler.JSONError(httpError(err))
	}
	if _, err := a.update(ctx, CurrentUser(ctx), event.UserFiltersUpdated, func(u *user.User) error {
		return u.PutFilter(cfg)
	}); err != nil {
		return handler.JSONError(httpError(err))
	}
	return handler.JSON(cfg.Record())
}

func (a *API) deleteFilter(ctx handler.Context, req idRequest) handler.Response {
	if _, err := a.update(ctx, CurrentUser(ctx), event.UserFiltersUpdated, func(u *user.User) error {
		return u.RemoveFilter(req.ID)
	}); err != nil {
		return handler.JSONError(httpError(err))
	}
	return handler.Empty()
}

func (a *API) dismissNotification(ctx handler.Context, req idRequest) handler.Response {
	if _, err := a.update(ctx, CurrentUser(ctx), event.UserNotificationsUpdated, func(u *user.User) error {
		return u.DismissNotification(req.ID)
	}); err != nil {
		return handler.JSONError(httpError(err))
	}
	return handler.Empty()
}
