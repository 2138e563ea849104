package ratelimiter

import (
	"hash/fnv"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/handler"
	"github.com/dmitrymomot/fundalert/pkg/logger"
)

// KeyFunc names the bucket of a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// ByAPIKey keys requests by a hash of the given header, so raw keys never
// reach the store.
func ByAPIKey(header string) KeyFunc {
	return func(r *http.Request) string {
		v := r.Header.Get(header)
		if v == "" {
			return ""
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(v))
		return "key:" + strconv.FormatUint(h.Sum64(), 36)
	}
}

// ByClientIP keys requests by client address. The first valid address in
// the trusted headers wins, then the connection address. Only pass headers
// set by a proxy you control.
func ByClientIP(trustedHeaders ...string) KeyFunc {
	return func(r *http.Request) string {
		for _, name := range trustedHeaders {
			for part := range strings.SplitSeq(r.Header.Get(name), ",") {
				if ip := parseIP(part); ip != "" {
					return "ip:" + ip
				}
			}
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := parseIP(host); ip != "" {
			return "ip:" + ip
		}
		return ""
	}
}

// FirstOf returns the first non-empty key.
func FirstOf(keys ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, fn := range keys {
			if k := fn(r); k != "" {
				return k
			}
		}
		return ""
	}
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

type middlewareOptions struct {
	logger *slog.Logger
	now    func() time.Time
}

type MiddlewareOption func(*middlewareOptions)

func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(o *middlewareOptions) { o.logger = l }
}

func WithMiddlewareClock(now func() time.Time) MiddlewareOption {
	return func(o *middlewareOptions) { o.now = now }
}

// Middleware limits requests with b. Requests are let through when the
// store fails.
func Middleware(b *Bucket, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			res, err := b.Allow(r.Context(), k)
			if err != nil {
				o.logger.LogAttrs(r.Context(), slog.LevelWarn, "rate limiter unavailable, request allowed",
					logger.Component("ratelimiter"), logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if !res.Allowed() {
				// Round up so a client never retries before the refill.
				wait := res.RetryAfter(o.now())
				h.Set("Retry-After", strconv.Itoa(int((wait+time.Second-1)/time.Second)))
				handler.RenderError(w, r, handler.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
