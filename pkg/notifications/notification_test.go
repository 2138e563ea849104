package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
)

func TestBuildAndParseID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "funding_request.promising-12345", notifications.BuildID(event.FundingRequestPromising, 12345))

	for _, ev := range event.Members() {
		for _, contentID := range []int64{0, 1, 987654321} {
			id := notifications.BuildID(ev, contentID)
			gotEv, gotID, err := notifications.ParseID(id)
			require.NoError(t, err, id)
			assert.Equal(t, ev, gotEv)
			assert.Equal(t, contentID, gotID)
		}
	}

	assert.Panics(t, func() { notifications.BuildID(event.Event{}, 1) })
	assert.Panics(t, func() { notifications.BuildID(event.InvestmentFailed, -1) })
}

func TestSplitID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		id        string
		wantValue string
		wantID    int64
		wantErr   bool
	}{
		{name: "valid", id: "funding_request.promising-12345", wantValue: "funding_request.promising", wantID: 12345},
		{name: "upper case", id: "INVESTMENT.FAILED-7", wantValue: "INVESTMENT.FAILED", wantID: 7},
		{name: "missing dash", id: "funding_request.promising12345", wantErr: true},
		{name: "non numeric", id: "funding_request.promising-abc", wantErr: true},
		{name: "missing dot", id: "funding_request-1", wantErr: true},
		{name: "two dots", id: "user.notifications.updated-1", wantErr: true},
		{name: "leading separator", id: ".funding_request.promising-1", wantErr: true},
		{name: "trailing separator", id: "funding_request.promising-1-", wantErr: true},
		{name: "negative", id: "funding_request.promising--1", wantErr: true},
		{name: "empty", id: "", wantErr: true},
		{name: "at sign", id: "funding@request.promising-1", wantErr: true},
		{name: "slash", id: "funding/request.promising-1", wantErr: true},
		{name: "space", id: "funding request.promising-1", wantErr: true},
		{name: "digit in name", id: "funding_request2.promising-1", wantErr: true},
		{name: "empty action", id: "funding_request.-1", wantErr: true},
		{name: "empty entity", id: ".promising-1", wantErr: true},
		{name: "overflow", id: "investment.failed-99999999999999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, contentID, err := notifications.SplitID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, notifications.ErrInvalidIDFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, tt.wantID, contentID)
		})
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	t.Run("case insensitive", func(t *testing.T) {
		ev, contentID, err := notifications.ParseID("Funding_Request.PROMISING-42")
		require.NoError(t, err)
		assert.Equal(t, event.FundingRequestPromising, ev)
		assert.Equal(t, int64(42), contentID)

		canonical, err := notifications.CanonicalID("Funding_Request.PROMISING-42")
		require.NoError(t, err)
		assert.Equal(t, "funding_request.promising-42", canonical)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, _, err := notifications.ParseID("funding_request.exploded-1")
		assert.ErrorIs(t, err, event.ErrUnknownEvent)
	})
}

func TestHasExpired(t *testing.T) {
	t.Parallel()

	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "inside window", now: sent.Add(59 * time.Minute), want: false},
		{name: "exact boundary", now: sent.Add(60 * time.Minute), want: false},
		{name: "just after", now: sent.Add(60*time.Minute + time.Nanosecond), want: true},
		{name: "well after", now: sent.Add(2 * time.Hour), want: true},
		{name: "before send", now: sent.Add(-time.Minute), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notifications.HasExpired(sent, 60, tt.now))
		})
	}

	t.Run("zero window", func(t *testing.T) {
		assert.False(t, notifications.HasExpired(sent, 0, sent))
		assert.True(t, notifications.HasExpired(sent, 0, sent.Add(time.Second)))
	})
}

func TestNotification(t *testing.T) {
	t.Parallel()

	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	n := notifications.New(event.FundingRequestPromising, 9, sent, 0)
	assert.Equal(t, "funding_request.promising-9", n.ID)
	assert.Equal(t, notifications.DefaultExpirationMinutes, n.ExpirationMinutes)
	assert.Equal(t, sent.Add(time.Hour), n.ExpiresAt())
	assert.False(t, n.HasExpired(sent.Add(time.Hour)))

	later := sent.Add(3 * time.Hour)
	assert.True(t, n.HasExpired(later))
	n.Refresh(later)
	assert.False(t, n.HasExpired(later))

	n.Dismiss()
	assert.True(t, n.Dismissed)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	sent := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		n := notifications.New(event.FundingRequestPromising, 5, sent, 15)
		n.Dismiss()
		got, err := notifications.Decode(n.Record(), 60)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	})

	t.Run("fallback expiration", func(t *testing.T) {
		got, err := notifications.Decode(notifications.Record{ID: "funding_request.promising-5", Date: sent}, 30)
		require.NoError(t, err)
		assert.Equal(t, 30, got.ExpirationMinutes)
	})

	t.Run("normalizes case", func(t *testing.T) {
		got, err := notifications.Decode(notifications.Record{ID: "FUNDING_REQUEST.PROMISING-5", Date: sent}, 30)
		require.NoError(t, err)
		assert.Equal(t, "funding_request.promising-5", got.ID)
	})

	t.Run("corrupt id", func(t *testing.T) {
		_, err := notifications.Decode(notifications.Record{ID: "garbage", Date: sent}, 30)
		assert.ErrorIs(t, err, notifications.ErrCorruptNotificationState)
		assert.ErrorIs(t, err, notifications.ErrInvalidIDFormat)
	})

	t.Run("decode all fails on first corrupt record", func(t *testing.T) {
		records := map[string]notifications.Record{
			"funding_request.promising-1": {ID: "funding_request.promising-1", Date: sent},
			"bad":                         {ID: "funding_request.unknown-2", Date: sent},
		}
		_, err := notifications.DecodeAll(records, 60)
		assert.ErrorIs(t, err, notifications.ErrCorruptNotificationState)
		assert.ErrorIs(t, err, event.ErrUnknownEvent)
	})

	t.Run("decode all uses map key when id missing", func(t *testing.T) {
		got, err := notifications.DecodeAll(map[string]notifications.Record{
			"funding_request.promising-1": {Date: sent},
		}, 60)
		require.NoError(t, err)
		require.Contains(t, got, "funding_request.promising-1")
	})
}
