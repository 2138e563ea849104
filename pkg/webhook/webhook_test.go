package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/webhook"
)

func fastSender(opts ...webhook.Option) *webhook.Sender {
	return webhook.NewSender(append([]webhook.Option{
		webhook.WithBackoff(webhook.FixedBackoff(time.Millisecond)),
		webhook.WithMaxRetries(2),
	}, opts...)...)
}

func TestSender_Success(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := fastSender(webhook.WithSigningSecret("secret"))
	res, err := s.Send(context.Background(), srv.URL, map[string]int{"id": 1},
		webhook.WithDeliveryID("investment.repaid-1"),
		webhook.WithHeader("X-Extra", "yes"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, res.Attempts)

	assert.JSONEq(t, `{"id":1}`, string(gotBody))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "investment.repaid-1", gotHeader.Get(webhook.HeaderDelivery))
	assert.Equal(t, "yes", gotHeader.Get("X-Extra"))
	assert.NoError(t, webhook.Verify("secret", gotBody, gotHeader, time.Minute, time.Now()))
}

func TestSender_RetriesTemporaryFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res, err := fastSender().Send(context.Background(), srv.URL, "hello")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSender_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		attempts int32
		wantErr  error
	}{
		{name: "permanent 4xx stops", status: http.StatusNotFound, attempts: 1, wantErr: webhook.ErrPermanentFailure},
		{name: "rate limit is retried", status: http.StatusTooManyRequests, attempts: 3, wantErr: webhook.ErrDeliveryFailed},
		{name: "server error is retried", status: http.StatusInternalServerError, attempts: 3, wantErr: webhook.ErrDeliveryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			res, err := fastSender().Send(context.Background(), srv.URL, "x")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.attempts, calls.Load())
			assert.Equal(t, tt.status, res.StatusCode)
		})
	}
}

func TestSender_InvalidInput(t *testing.T) {
	t.Parallel()

	s := fastSender()
	for _, target := range []string{"", "ftp://example.com", "https://", "://bad"} {
		_, err := s.Send(context.Background(), target, "x")
		assert.ErrorIs(t, err, webhook.ErrInvalidURL, target)
		assert.True(t, webhook.IsPermanent(err))
	}
	_, err := s.Send(context.Background(), "https://example.com", func() {})
	assert.ErrorIs(t, err, webhook.ErrInvalidPayload)
}

func TestSender_CircuitBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := fastSender(webhook.WithCircuitBreakers(2, 1, time.Hour))
	_, err := s.Send(context.Background(), srv.URL, "x")
	require.ErrorIs(t, err, webhook.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load(), "breaker stops the retries once open")

	_, err = s.Send(context.Background(), srv.URL, "x")
	require.ErrorIs(t, err, webhook.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := webhook.NewSender(webhook.WithBackoff(webhook.FixedBackoff(time.Hour)))
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := s.Send(ctx, srv.URL, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
