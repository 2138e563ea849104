package handler

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/fundalert/pkg/binder"
)

// HandlerFunc handles a bound request of type R.
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response renders itself to w.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind fills v from r. Binders that do not apply to r return
// binder.ErrBinderNotApplicable and are skipped.
type Bind func(r *http.Request, v any) error

// ErrorHandler renders binding and rendering errors.
type ErrorHandler func(ctx Context, err error)

type options struct {
	binders []Bind
	onError ErrorHandler
}

type Option func(*options)

// WithBinders appends binders, applied in order.
func WithBinders(binders ...Bind) Option {
	return func(o *options) { o.binders = append(o.binders, binders...) }
}

// WithErrorHandler replaces the default handler, which only renders.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

// Wrap converts h to an http.HandlerFunc. The request value is built by
// running every binder on a zero R.
func Wrap[R any](h HandlerFunc[R], opts ...Option) http.HandlerFunc {
	o := options{onError: func(ctx Context, err error) {
		RenderError(ctx.ResponseWriter(), ctx.Request(), err)
	}}
	for _, opt := range opts {
		opt(&o)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range o.binders {
			err := bind(r, &req)
			if err == nil || errors.Is(err, binder.ErrBinderNotApplicable) {
				continue
			}
			o.onError(ctx, err)
			return
		}

		resp := h(ctx, req)
		if resp == nil {
			o.onError(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			o.onError(ctx, err)
		}
	}
}
