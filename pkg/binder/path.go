package binder

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
)

// Path returns a binder copying router parameters into fields tagged
// `path:"name"`. extractor is the router's lookup, e.g. chi.URLParam.
// String and signed integer fields are supported.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return ErrInvalidTarget
		}
		rv = rv.Elem()
		rt := rv.Type()

		for i := range rt.NumField() {
			name := rt.Field(i).Tag.Get("path")
			if name == "" || name == "-" {
				continue
			}
			raw := extractor(r, name)
			if raw == "" {
				continue
			}
			field := rv.Field(i)
			switch field.Kind() {
			case reflect.String:
				field.SetString(raw)
			case reflect.Int, reflect.Int32, reflect.Int64:
				n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
				if err != nil {
					return fmt.Errorf("%w: %s: %v", ErrFailedToParsePath, name, err)
				}
				field.SetInt(n)
			default:
				return fmt.Errorf("%w: %s: unsupported field kind %s", ErrFailedToParsePath, name, field.Kind())
			}
		}
		return nil
	}
}
