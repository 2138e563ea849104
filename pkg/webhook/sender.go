package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/logger"
)

const (
	defaultUserAgent = "fundalert-notifier/1.0"
	maxErrorBody     = 64 << 10
)

// Result describes a finished Send.
type Result struct {
	StatusCode int
	Attempts   int
	Duration   time.Duration
}

// Sender posts JSON payloads with retries, optional HMAC signing and
// optional per-host circuit breaking. It is safe for concurrent use.
type Sender struct {
	client     *http.Client
	userAgent  string
	secret     string
	maxRetries int
	backoff    Backoff
	timeout    time.Duration
	breakers   *breakers
	logger     *slog.Logger
	now        func() time.Time
}

func NewSender(opts ...Option) *Sender {
	s := &Sender{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:  defaultUserAgent,
		maxRetries: 3,
		backoff:    DefaultBackoff(),
		timeout:    10 * time.Second,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send marshals data to JSON and POSTs it to target. 4xx answers other than
// 408, 425 and 429 are permanent and end the retries early.
func (s *Sender) Send(ctx context.Context, target string, data any, opts ...SendOption) (Result, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return s.SendRaw(ctx, target, payload, opts...)
}

// SendRaw is Send for an already encoded JSON payload.
func (s *Sender) SendRaw(ctx context.Context, target string, payload []byte, opts ...SendOption) (Result, error) {
	u, err := parseTarget(target)
	if err != nil {
		return Result{}, err
	}
	if len(payload) == 0 {
		return Result{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	o := sendOptions{headers: make(http.Header)}
	for _, opt := range opts {
		opt(&o)
	}
	retries := s.maxRetries
	if o.noRetry {
		retries = 0
	}

	cb := s.breakers.get(u.Host)
	if cb != nil && !cb.Allow() {
		return Result{}, ErrCircuitOpen
	}

	start := s.now()
	res := Result{}
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return res, errors.Join(lastErr, ctx.Err())
			case <-time.After(s.backoff.Next(attempt)):
			}
		}

		res.Attempts = attempt + 1
		res.StatusCode, lastErr = s.attempt(ctx, u.String(), payload, o)
		res.Duration = s.now().Sub(start)

		if cb != nil {
			if lastErr == nil {
				cb.Success()
			} else {
				cb.Failure()
			}
		}
		if lastErr == nil {
			return res, nil
		}

		s.logger.LogAttrs(ctx, slog.LevelDebug, "webhook attempt failed",
			slog.String("host", u.Host),
			logger.Attempt(res.Attempts),
			slog.Int("status", res.StatusCode),
			logger.Error(lastErr))

		if permanentStatus(res.StatusCode) {
			return res, fmt.Errorf("%w: %w", ErrPermanentFailure, lastErr)
		}
		if cb != nil && cb.State() == CircuitOpen {
			return res, errors.Join(ErrCircuitOpen, lastErr)
		}
	}

	return res, fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, res.Attempts, lastErr)
}

func (s *Sender) attempt(ctx context.Context, target string, payload []byte, o sendOptions) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	for k, v := range o.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)
	if o.deliveryID != "" {
		req.Header.Set(HeaderDelivery, o.deliveryID)
	}
	if s.secret != "" {
		SetSignature(req.Header, s.secret, payload, s.now())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return 0, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.ReplaceAll(strings.TrimSpace(string(body)), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		return resp.StatusCode, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, msg)
}

func parseTarget(target string) (*url.URL, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return u, nil
}

func permanentStatus(code int) bool {
	if code < 400 || code >= 500 {
		return false
	}
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
