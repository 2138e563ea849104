package pubsub_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
)

func envelopeJSON(t *testing.T, payload string, attrs map[string]string) []byte {
	t.Helper()
	raw, err := json.Marshal(pubsub.NewEnvelope("projects/p/subscriptions/s", []byte(payload), attrs))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid envelope", func(t *testing.T) {
		raw := envelopeJSON(t, `{"id":1}`, map[string]string{
			pubsub.AttrEvent:  "Funding_Request.Promising",
			pubsub.AttrUserID: "u-1",
		})
		env, err := pubsub.Decode(raw)
		require.NoError(t, err)

		payload, err := env.Payload()
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1}`, string(payload))
		assert.Equal(t, "u-1", env.UserID())
		assert.NotEmpty(t, env.Message.MessageID)
		assert.False(t, env.PublishedAt().IsZero())

		ev, err := env.Event()
		require.NoError(t, err)
		assert.Equal(t, event.FundingRequestPromising, ev)
	})

	t.Run("snake case message id", func(t *testing.T) {
		data := base64.StdEncoding.EncodeToString([]byte("{}"))
		raw := `{"message":{"data":"` + data + `","message_id":"m-1","publishTime":"2024-05-10T12:00:00Z"},"subscription":"s"}`
		env, err := pubsub.Decode([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, "m-1", env.Message.MessageID)
		assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), env.PublishedAt())
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "hello"},
		{name: "plain payload", body: `{"id": 1}`},
		{name: "no subscription", body: `{"message":{"data":"e30=","messageId":"m"}}`},
		{name: "no data", body: `{"message":{"messageId":"m"},"subscription":"s"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pubsub.Decode([]byte(tt.body))
			assert.ErrorIs(t, err, pubsub.ErrNotEnvelope)
		})
	}

	t.Run("missing event attribute", func(t *testing.T) {
		env, err := pubsub.Decode(envelopeJSON(t, "{}", nil))
		require.NoError(t, err)
		_, err = env.Event()
		assert.ErrorIs(t, err, pubsub.ErrMissingAttribute)
		assert.Empty(t, env.UserID())
	})

	t.Run("unknown event attribute", func(t *testing.T) {
		env, err := pubsub.Decode(envelopeJSON(t, "{}", map[string]string{pubsub.AttrEvent: "nope.nope"}))
		require.NoError(t, err)
		_, err = env.Event()
		assert.ErrorIs(t, err, event.ErrUnknownEvent)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var gotBody string
	var gotEnv pubsub.Envelope
	var hasEnv bool
	h := pubsub.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotEnv, hasEnv = pubsub.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("unwraps envelope", func(t *testing.T) {
		raw := envelopeJSON(t, `{"id":5}`, map[string]string{pubsub.AttrEvent: "investment.repaid"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(string(raw))))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.JSONEq(t, `{"id":5}`, gotBody)
		require.True(t, hasEnv)
		assert.Equal(t, "investment.repaid", gotEnv.Attribute(pubsub.AttrEvent))
	})

	t.Run("passes other bodies through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"plain":true}`)))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, `{"plain":true}`, gotBody)
		assert.False(t, hasEnv)
	})

	t.Run("rejects bad base64", func(t *testing.T) {
		body := `{"message":{"data":"!!!","messageId":"m"},"subscription":"s"}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		big := strings.Repeat("x", pubsub.MaxBodySize+1)
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(big)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := pubsub.LoggerExtractor()
	_, ok := extract(context.Background())
	assert.False(t, ok)

	env := pubsub.NewEnvelope("s", []byte("{}"), nil)
	attr, ok := extract(pubsub.WithEnvelope(context.Background(), env))
	require.True(t, ok)
	assert.Equal(t, env.Message.MessageID, attr.Value.String())
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan pubsub.Envelope, 1)
	sub := pubsub.NewSubscriber(client)
	done := make(chan error, 1)
	go func() {
		done <- sub.Run(ctx, "events-test", func(_ context.Context, env pubsub.Envelope) error {
			got <- env
			return nil
		})
	}()

	pub := pubsub.NewPublisher(client)
	var id string
	require.Eventually(t, func() bool {
		id, err = pub.PublishJSON(ctx, "events-test", map[string]int{"id": 1}, map[string]string{pubsub.AttrEvent: "investment.repaid"})
		require.NoError(t, err)
		select {
		case env := <-got:
			return env.Message.MessageID != "" && env.Attribute(pubsub.AttrEvent) == "investment.repaid"
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, id)

	cancel()
	assert.NoError(t, <-done)
}
