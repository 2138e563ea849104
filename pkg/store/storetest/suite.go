// Package storetest holds the behaviour every store.Store must show. Backend
// packages call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/credentials"
	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/filter"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/secrets"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

// NewUser builds a user with every persisted part populated.
func NewUser(t testing.TB) *user.User {
	t.Helper()

	u, err := user.New("investor@example.com", "Investor")
	require.NoError(t, err)

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	cipher, err := secrets.NewCipher(key)
	require.NoError(t, err)
	creds, err := credentials.New(cipher, u.ID, 42, "investor@example.com", "hunter2")
	require.NoError(t, err)
	u.SetCredentials(creds)

	hook, err := channel.NewWebhook("https://example.com/hook",
		channel.WithID("hook"),
		channel.WithDisabledEvents(event.InvestmentRepaid))
	require.NoError(t, err)
	u.PutChannel(hook)

	phone, err := channel.NewWhatsApp("+56912345678",
		channel.WithID("phone"),
		channel.WithEnabledEvents(event.FundingRequestPromising))
	require.NoError(t, err)
	u.PutChannel(phone)

	score := decimal.RequireFromString("0.75")
	months := 3
	f, err := filter.New(filter.Configuration{
		ID:                "f1",
		Name:              "safe",
		IgnoreDicom:       true,
		MinimumScore:      &score,
		MinimumDuration:   &months,
		TargetCreditTypes: []funding.CreditType{funding.CreditTypeFactoring},
	})
	require.NoError(t, err)
	require.NoError(t, u.PutFilter(f))

	u.RecordNotification(event.FundingRequestPromising, funding.Request{ID: 7}, now)
	u.Balance = &user.Balance{Amount: 1500, UpdatedAt: now}
	u.Portfolio = &user.InvestmentPortfolio{
		UpdatedAt:   now,
		Investments: map[int64]funding.Investment{9: {ID: 9, Amount: 100000, InvestmentDate: now}},
	}
	return u
}

// AssertSameUser compares the persisted parts of two users.
func AssertSameUser(t testing.TB, want, got *user.User) {
	t.Helper()
	assert.Equal(t, store.NewDocument(want), store.NewDocument(got))
}

// Run exercises s. newStore must return an empty store on every call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("insert and read back", func(t *testing.T) {
		s := newStore(t)
		u := NewUser(t)
		require.NoError(t, s.Put(ctx, u))
		assert.Equal(t, int64(1), u.Version)

		got, err := s.Get(ctx, u.ID)
		require.NoError(t, err)
		AssertSameUser(t, u, got)

		byKey, err := s.GetByAPIKey(ctx, u.APIKey)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byKey.ID)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		_, err = s.GetByAPIKey(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "missing"), store.ErrUserNotFound)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		s := newStore(t)
		u := NewUser(t)
		require.NoError(t, s.Put(ctx, u))

		a, err := s.Get(ctx, u.ID)
		require.NoError(t, err)
		b, err := s.Get(ctx, u.ID)
		require.NoError(t, err)

		a.Name = "First"
		require.NoError(t, s.Put(ctx, a))
		b.Name = "Second"
		assert.ErrorIs(t, s.Put(ctx, b), store.ErrVersionConflict)

		got, err := s.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "First", got.Name)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("second insert conflicts", func(t *testing.T) {
		s := newStore(t)
		u := NewUser(t)
		require.NoError(t, s.Put(ctx, u))

		dup := *u
		dup.Version = 0
		assert.ErrorIs(t, s.Put(ctx, &dup), store.ErrVersionConflict)
	})

	t.Run("update of missing user conflicts", func(t *testing.T) {
		s := newStore(t)
		u := NewUser(t)
		u.Version = 3
		assert.ErrorIs(t, s.Put(ctx, u), store.ErrVersionConflict)
	})

	t.Run("invalid user is rejected", func(t *testing.T) {
		s := newStore(t)
		u := NewUser(t)
		u.Email = "nope"
		assert.ErrorIs(t, s.Put(ctx, u), store.ErrInvalidUserInput)
	})

	t.Run("list and delete", func(t *testing.T) {
		s := newStore(t)
		first, second := NewUser(t), NewUser(t)
		require.NoError(t, s.Put(ctx, first))
		require.NoError(t, s.Put(ctx, second))

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		require.NoError(t, s.Delete(ctx, first.ID))
		_, err = s.Get(ctx, first.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		_, err = s.GetByAPIKey(ctx, first.APIKey)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := newStore(t)
		u := NewUser(t)
		require.NoError(t, s.Put(ctx, u))

		const writers = 8
		var wins, conflicts atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := range writers {
			cp, err := s.Get(ctx, u.ID)
			require.NoError(t, err)
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				cp.RecordNotification(event.FundingRequestPromising, funding.Request{ID: int64(100 + i)}, now)
				switch err := s.Put(ctx, cp); {
				case err == nil:
					wins.Add(1)
				case assert.ErrorIs(t, err, store.ErrVersionConflict):
					conflicts.Add(1)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load(), "exactly one writer of the same version wins")
		assert.Equal(t, int32(writers-1), conflicts.Load())
	})
}
