package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fundalert/pkg/pubsub"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// Middleware resolves the request id. It must run after pubsub.Middleware
// to pick up envelope message ids.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := resolve(r)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

func resolve(r *http.Request) string {
	if id := r.Header.Get(Header); valid(id) {
		return id
	}
	if env, ok := pubsub.FromContext(r.Context()); ok && valid(env.Message.MessageID) {
		return env.Message.MessageID
	}
	return uuid.NewString()
}

func valid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
