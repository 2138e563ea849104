// Package handler provides typed HTTP handlers.
//
// A HandlerFunc receives a Context and a request value filled by binders,
// and returns a Response that renders itself:
//
//	h := func(ctx handler.Context, req PutChannelRequest) handler.Response {
//		return handler.JSON(view)
//	}
//	r.Put("/me/channels/{id}", handler.Wrap(h,
//		handler.WithBinders(binder.Path(chi.URLParam), binder.JSON()),
//	))
//
// Errors returned through JSONError or raised by binders are rendered as
// JSON with a status derived from the error: HTTPError carries its own code
// and validator.ValidationErrors maps to 422.
package handler
