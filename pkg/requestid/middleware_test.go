package requestid_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
	"github.com/dmitrymomot/fundalert/pkg/requestid"
)

func serve(t *testing.T, h func(http.Handler) http.Handler, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	h(next).ServeHTTP(rec, req)
	return seen, rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	plain := requestid.Middleware
	withEnvelope := func(next http.Handler) http.Handler {
		return pubsub.Middleware(requestid.Middleware(next))
	}

	t.Run("keeps a valid header", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(requestid.Header, "req-123")

		id, rec := serve(t, plain, req)
		assert.Equal(t, "req-123", id)
		assert.Equal(t, "req-123", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces an invalid header", func(t *testing.T) {
		t.Parallel()
		for _, bad := range []string{"with space", "<script>", strings.Repeat("a", 129)} {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set(requestid.Header, bad)

			id, _ := serve(t, plain, req)
			_, err := uuid.Parse(id)
			assert.NoError(t, err, bad)
		}
	})

	t.Run("uses the envelope message id", func(t *testing.T) {
		t.Parallel()
		body := `{"message":{"messageId":"1234567890","data":"e30=","attributes":{"event":"funding_request.new"}},"subscription":"events"}`
		req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")

		id, rec := serve(t, withEnvelope, req)
		assert.Equal(t, "1234567890", id)
		assert.Equal(t, "1234567890", rec.Header().Get(requestid.Header))
	})

	t.Run("generates an id", func(t *testing.T) {
		t.Parallel()
		id, _ := serve(t, plain, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatJSON),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	log.InfoContext(requestid.WithContext(context.Background(), "req-1"), "tagged")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	log.InfoContext(context.Background(), "untagged")
	assert.NotContains(t, buf.String(), "request_id")
}
