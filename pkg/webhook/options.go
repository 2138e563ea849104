package webhook

import (
	"log/slog"
	"net/http"
	"time"
)

// Option configures NewSender.
type Option func(*Sender)

// WithHTTPClient replaces the default pooled client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(s *Sender) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithSigningSecret signs every request with HMAC-SHA256. See Verify.
func WithSigningSecret(secret string) Option {
	return func(s *Sender) { s.secret = secret }
}

// WithMaxRetries sets how many times a failed attempt is repeated. Zero
// disables retries.
func WithMaxRetries(n int) Option {
	return func(s *Sender) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(s *Sender) {
		if b != nil {
			s.backoff = b
		}
	}
}

// WithTimeout bounds a single attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCircuitBreakers gives every endpoint host its own breaker.
func WithCircuitBreakers(failureThreshold, successThreshold int, recoveryTimeout time.Duration) Option {
	return func(s *Sender) {
		s.breakers = &breakers{newBreak: func() *CircuitBreaker {
			cb := NewCircuitBreaker(failureThreshold, successThreshold, recoveryTimeout)
			cb.now = s.now
			return cb
		}}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the time source used for signatures and breakers.
func WithClock(now func() time.Time) Option {
	return func(s *Sender) {
		if now != nil {
			s.now = now
		}
	}
}

// SendOption adjusts a single Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	headers    http.Header
	deliveryID string
	noRetry    bool
}

// WithHeader adds a request header.
func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) {
		if key != "" && value != "" {
			o.headers.Set(key, value)
		}
	}
}

// WithDeliveryID sets the X-Fundalert-Delivery header so receivers can
// deduplicate retries.
func WithDeliveryID(id string) SendOption {
	return func(o *sendOptions) { o.deliveryID = id }
}

// WithNoRetry makes a single attempt.
func WithNoRetry() SendOption {
	return func(o *sendOptions) { o.noRetry = true }
}
