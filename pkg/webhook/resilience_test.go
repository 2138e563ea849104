package webhook

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	b := ExponentialBackoff{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}
	assert.Zero(t, b.Next(0))
	assert.Equal(t, 100*time.Millisecond, b.Next(1))
	assert.Equal(t, 200*time.Millisecond, b.Next(2))
	assert.Equal(t, 400*time.Millisecond, b.Next(3))
	assert.Equal(t, time.Second, b.Next(10))

	jittered := ExponentialBackoff{Initial: time.Second, JitterFactor: 0.1}
	for range 50 {
		d := jittered.Next(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}

	assert.Equal(t, 5*time.Millisecond, FixedBackoff(5*time.Millisecond).Next(3))
}

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, 2, time.Minute)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())
	cb.Failure()
	cb.Success()
	cb.Failure()
	assert.Equal(t, CircuitClosed, cb.State(), "a success resets the failure run")

	cb.Failure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(time.Minute)
	assert.True(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())
	cb.Failure()
	assert.Equal(t, CircuitOpen, cb.State(), "a failed probe reopens")

	now = now.Add(time.Minute)
	require.True(t, cb.Allow())
	cb.Success()
	assert.Equal(t, CircuitHalfOpen, cb.State())
	cb.Success()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}

func TestBreakersPerHost(t *testing.T) {
	t.Parallel()

	b := &breakers{newBreak: func() *CircuitBreaker { return NewCircuitBreaker(1, 1, time.Hour) }}
	a := b.get("a.example.com")
	assert.Same(t, a, b.get("a.example.com"))
	assert.NotSame(t, a, b.get("b.example.com"))

	var none *breakers
	assert.Nil(t, none.get("a.example.com"))
}

func TestSignature(t *testing.T) {
	t.Parallel()

	at := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"id":1}`)
	h := http.Header{}
	SetSignature(h, "secret", payload, at)

	tests := []struct {
		name    string
		secret  string
		payload []byte
		now     time.Time
		maxAge  time.Duration
		wantErr bool
	}{
		{name: "valid", secret: "secret", payload: payload, now: at.Add(time.Minute), maxAge: 5 * time.Minute},
		{name: "no freshness check", secret: "secret", payload: payload, now: at.Add(24 * time.Hour)},
		{name: "wrong secret", secret: "other", payload: payload, now: at, maxAge: time.Minute, wantErr: true},
		{name: "tampered payload", secret: "secret", payload: []byte(`{"id":2}`), now: at, wantErr: true},
		{name: "too old", secret: "secret", payload: payload, now: at.Add(10 * time.Minute), maxAge: 5 * time.Minute, wantErr: true},
		{name: "from the future", secret: "secret", payload: payload, now: at.Add(-2 * time.Minute), maxAge: 5 * time.Minute, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.secret, tt.payload, h, tt.maxAge, tt.now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSignature)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.ErrorIs(t, Verify("secret", payload, http.Header{}, 0, at), ErrInvalidSignature)
}
