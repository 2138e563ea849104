package pubsub

import (
	"bytes"
	"io"
	"net/http"
)

// MaxBodySize bounds the push body read by Middleware.
const MaxBodySize = 1 << 20

// Middleware unwraps push envelopes. When the body is an envelope, the
// request continues with the decoded payload as its body and the envelope in
// its context. Any other body is passed through untouched.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
		_ = r.Body.Close()
		if err != nil {
			http.Error(w, "cannot read body", http.StatusBadRequest)
			return
		}
		if len(body) > MaxBodySize {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}

		env, err := Decode(body)
		if err != nil {
			setBody(r, body)
			next.ServeHTTP(w, r)
			return
		}
		payload, err := env.Payload()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		r = r.WithContext(WithEnvelope(r.Context(), env))
		setBody(r, payload)
		next.ServeHTTP(w, r)
	})
}

func setBody(r *http.Request, b []byte) {
	r.Body = io.NopCloser(bytes.NewReader(b))
	r.ContentLength = int64(len(b))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
}
