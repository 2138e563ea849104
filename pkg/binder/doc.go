// Package binder fills request structs from HTTP requests.
//
// JSON decodes the body strictly: the content type must be
// application/json, unknown fields are rejected and the body is size
// limited. Path copies router parameters into fields tagged `path:"name"`:
//
//	type PutFilterRequest struct {
//		ID     string               `path:"id" json:"-"`
//		Filter filter.Configuration `json:"filter"`
//	}
//
//	handler.Wrap(h, handler.WithBinders(
//		binder.Path(chi.URLParam),
//		binder.JSON(),
//	))
package binder
