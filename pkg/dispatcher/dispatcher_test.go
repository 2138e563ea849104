package dispatcher_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/delivery"
	"github.com/dmitrymomot/fundalert/pkg/dispatcher"
	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/filter"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, cfg channel.Configuration, p delivery.Payload) error {
	return m.Called(ctx, cfg, p).Error(0)
}

func byID(id string) any {
	return mock.MatchedBy(func(cfg channel.Configuration) bool { return cfg.ID() == id })
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func seed(t *testing.T, s store.Store, name string, channels ...channel.Configuration) *user.User {
	t.Helper()
	u, err := user.New(name+"@example.com", name, user.WithID(name))
	require.NoError(t, err)
	for _, c := range channels {
		u.PutChannel(c)
	}
	require.NoError(t, s.Put(context.Background(), u))
	return u
}

func hook(t *testing.T, id string, opts ...channel.Option) channel.Configuration {
	t.Helper()
	c, err := channel.NewWebhook("https://example.com/"+id, append([]channel.Option{channel.WithID(id)}, opts...)...)
	require.NoError(t, err)
	return c
}

func newDispatcher(s store.Store, d delivery.Deliverer, c *clock, opts ...dispatcher.Option) *dispatcher.Dispatcher {
	opts = append([]dispatcher.Option{
		dispatcher.WithLogger(logger.Discard()),
		dispatcher.WithClock(c.Now),
	}, opts...)
	return dispatcher.New(s, d, opts...)
}

func TestDispatch_ActiveChannelsOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	seed(t, s, "ana",
		hook(t, "a"),
		hook(t, "b", channel.WithEnabled(false)),
		hook(t, "c", channel.WithSubscription(channel.OnlyEvents(event.InvestmentFailed))),
		hook(t, "d", channel.WithSubscription(channel.AllEvents(event.InvestmentConfirmed))),
	)

	m := &MockDeliverer{}
	m.On("Deliver", mock.Anything, byID("a"), mock.MatchedBy(func(p delivery.Payload) bool {
		return p.Event == "investment.confirmed" && p.ContentID == 9 && p.UserID == "ana"
	})).Return(nil).Once()

	d := newDispatcher(s, m, &clock{now: t0})
	res, err := d.Dispatch(ctx, "ana", event.InvestmentConfirmed, funding.Investment{ID: 9})
	require.NoError(t, err)
	assert.Equal(t, dispatcher.StatusDelivered, res.Status)
	assert.Equal(t, []string{"a"}, res.Delivered)
	m.AssertExpectations(t)

	u, err := s.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, u.Notifications, "non recurring events are not recorded")
}

func TestDispatch_RecurringIsSentOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	seed(t, s, "ana", hook(t, "a"))
	m := &MockDeliverer{}
	m.On("Deliver", mock.Anything, byID("a"), mock.Anything).Return(nil).Once()
	c := &clock{now: t0}
	d := newDispatcher(s, m, c)
	fr := funding.Request{ID: 7}

	res, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, fr)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.StatusDelivered, res.Status)
	assert.Equal(t, "funding_request.promising-7", res.NotificationID)

	c.Set(t0.Add(30 * time.Minute))
	res, err = d.Dispatch(ctx, "ana", event.FundingRequestPromising, fr)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.StatusSuppressed, res.Status)
	m.AssertExpectations(t)

	u, err := s.Get(ctx, "ana")
	require.NoError(t, err)
	n, ok := u.Notification(res.NotificationID)
	require.True(t, ok)
	assert.True(t, n.Date.Equal(t0))
}

func TestDispatch_NoChannels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	seed(t, s, "ana", hook(t, "a", channel.WithEnabled(false)))
	m := &MockDeliverer{}

	d := newDispatcher(s, m, &clock{now: t0})
	res, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, funding.Request{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, dispatcher.StatusNoChannels, res.Status)
	m.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)

	u, err := s.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, u.Notifications)
}

func TestDispatch_UnknownUser(t *testing.T) {
	t.Parallel()

	d := newDispatcher(store.NewMemory(), &MockDeliverer{}, &clock{now: t0})
	_, err := d.Dispatch(context.Background(), "ghost", event.InvestmentFailed, funding.Investment{ID: 1})
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestDispatch_InvalidContent(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	seed(t, s, "ana", hook(t, "a"))
	d := newDispatcher(s, &MockDeliverer{}, &clock{now: t0})

	_, err := d.Dispatch(context.Background(), "ana", event.InvestmentConfirmed, funding.Investment{ID: -1})
	assert.ErrorIs(t, err, dispatcher.ErrInvalidContent)
	_, err = d.Dispatch(context.Background(), "ana", event.InvestmentConfirmed, nil)
	assert.ErrorIs(t, err, dispatcher.ErrInvalidContent)
}

func TestDispatch_Failures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	t.Run("partial failure still records", func(t *testing.T) {
		ctx := context.Background()
		s := store.NewMemory()
		seed(t, s, "ana", hook(t, "a"), hook(t, "b"))
		m := &MockDeliverer{}
		m.On("Deliver", mock.Anything, byID("a"), mock.Anything).Return(boom)
		m.On("Deliver", mock.Anything, byID("b"), mock.Anything).Return(nil)

		d := newDispatcher(s, m, &clock{now: t0})
		res, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, funding.Request{ID: 1})
		require.NoError(t, err)
		assert.Equal(t, dispatcher.StatusDelivered, res.Status)
		assert.Equal(t, []string{"b"}, res.Delivered)
		assert.ErrorIs(t, res.Failed["a"], boom)

		u, err := s.Get(ctx, "ana")
		require.NoError(t, err)
		assert.Len(t, u.Notifications, 1)
	})

	t.Run("total failure releases a first claim", func(t *testing.T) {
		ctx := context.Background()
		s := store.NewMemory()
		seed(t, s, "ana", hook(t, "a"))
		m := &MockDeliverer{}
		m.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(boom)

		d := newDispatcher(s, m, &clock{now: t0})
		res, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, funding.Request{ID: 1})
		require.ErrorIs(t, err, dispatcher.ErrAllDeliveriesFailed)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, dispatcher.StatusFailed, res.Status)

		u, err := s.Get(ctx, "ana")
		require.NoError(t, err)
		assert.Empty(t, u.Notifications)
	})

	t.Run("total failure restores the previous entry", func(t *testing.T) {
		ctx := context.Background()
		s := store.NewMemory()
		seed(t, s, "ana", hook(t, "a"))
		m := &MockDeliverer{}
		m.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		m.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(boom)
		c := &clock{now: t0}
		d := newDispatcher(s, m, c)
		fr := funding.Request{ID: 1}

		_, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, fr)
		require.NoError(t, err)

		c.Set(t0.Add(2 * time.Hour))
		_, err = d.Dispatch(ctx, "ana", event.FundingRequestPromising, fr)
		require.ErrorIs(t, err, dispatcher.ErrAllDeliveriesFailed)

		u, err := s.Get(ctx, "ana")
		require.NoError(t, err)
		n, ok := u.Notification(notifications.BuildID(event.FundingRequestPromising, 1))
		require.True(t, ok)
		assert.True(t, n.Date.Equal(t0))
	})
}

// racingStore commits a competing write right before the first Put so the
// dispatcher's claim hits a version conflict.
type racingStore struct {
	store.Store
	once sync.Once
	race func()
}

func (r *racingStore) Put(ctx context.Context, u *user.User) error {
	r.once.Do(r.race)
	return r.Store.Put(ctx, u)
}

func TestDispatch_ClaimConflictRetries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	seed(t, mem, "ana", hook(t, "a"))
	s := &racingStore{Store: mem, race: func() {
		u, err := mem.Get(ctx, "ana")
		require.NoError(t, err)
		u.Name = "Renamed"
		require.NoError(t, mem.Put(ctx, u))
	}}
	m := &MockDeliverer{}
	m.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	d := newDispatcher(s, m, &clock{now: t0})
	res, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, funding.Request{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, dispatcher.StatusDelivered, res.Status)

	u, err := mem.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	assert.Len(t, u.Notifications, 1)
}

func TestDispatch_ClaimConflictGivesUp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	seed(t, mem, "ana", hook(t, "a"))
	s := &racingStore{Store: mem, race: func() {
		u, err := mem.Get(ctx, "ana")
		require.NoError(t, err)
		require.NoError(t, mem.Put(ctx, u))
	}}
	m := &MockDeliverer{}

	d := newDispatcher(s, m, &clock{now: t0}, dispatcher.WithMaxConflictRetries(0))
	_, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, funding.Request{ID: 3})
	require.ErrorIs(t, err, dispatcher.ErrClaimFailed)
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	m.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_ConcurrentSendsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	seed(t, s, "ana", hook(t, "a"))
	var sent atomic.Int32
	d := newDispatcher(s, delivery.DelivererFunc(func(context.Context, channel.Configuration, delivery.Payload) error {
		sent.Add(1)
		return nil
	}), &clock{now: t0})

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(ctx, "ana", event.FundingRequestPromising, funding.Request{ID: 5})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), sent.Load())
}

func withFilter(t *testing.T, s store.Store, u *user.User, score string) {
	t.Helper()
	threshold := decimal.RequireFromString(score)
	f, err := filter.New(filter.Configuration{ID: "f", MinimumScore: &threshold})
	require.NoError(t, err)
	require.NoError(t, u.PutFilter(f))
	require.NoError(t, s.Put(context.Background(), u))
}

func TestDispatchAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	ana := seed(t, s, "ana", hook(t, "a"))
	ben := seed(t, s, "ben", hook(t, "b"))
	seed(t, s, "cid", hook(t, "c"))
	withFilter(t, s, ana, "0.5")
	withFilter(t, s, ben, "0.9")

	m := &MockDeliverer{}
	m.On("Deliver", mock.Anything, byID("a"), mock.Anything).Return(nil).Once()
	d := newDispatcher(s, m, &clock{now: t0}, dispatcher.WithConcurrency(2))

	fr := funding.Request{ID: 11, Score: decimal.RequireFromString("0.7")}
	sum, err := d.DispatchAll(ctx, event.FundingRequestPromising, fr)
	require.NoError(t, err)
	assert.Equal(t, dispatcher.Summary{Users: 1, Delivered: 1}, sum)
	m.AssertExpectations(t)

	t.Run("other events reach everyone", func(t *testing.T) {
		m := &MockDeliverer{}
		m.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
		d := newDispatcher(s, m, &clock{now: t0})
		sum, err := d.DispatchAll(ctx, event.FundingRequestAvailable, fr)
		require.NoError(t, err)
		assert.Equal(t, 3, sum.Delivered)
		m.AssertExpectations(t)
	})
}

type invalidator struct {
	mu  sync.Mutex
	ids []string
}

func (i *invalidator) Invalidate(_ context.Context, id string) {
	i.mu.Lock()
	i.ids = append(i.ids, id)
	i.mu.Unlock()
}

func envelope(t *testing.T, ev event.Event, userID string, content any) pubsub.Envelope {
	t.Helper()
	data, err := json.Marshal(content)
	require.NoError(t, err)
	attrs := map[string]string{pubsub.AttrEvent: ev.Value()}
	if userID != "" {
		attrs[pubsub.AttrUserID] = userID
	}
	return pubsub.NewEnvelope("projects/test/subscriptions/notifier", data, attrs)
}

func TestHandleMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewMemory()
	ana := seed(t, s, "ana", hook(t, "a"))
	seed(t, s, "ben", hook(t, "b"))
	withFilter(t, s, ana, "0.5")

	t.Run("targeted", func(t *testing.T) {
		m := &MockDeliverer{}
		m.On("Deliver", mock.Anything, byID("b"), mock.MatchedBy(func(p delivery.Payload) bool {
			return p.ContentID == 4 && p.Event == "investment.failed"
		})).Return(nil).Once()
		d := newDispatcher(s, m, &clock{now: t0})

		err := d.HandleMessage(ctx, envelope(t, event.InvestmentFailed, "ben", funding.Investment{ID: 4}))
		require.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("public broadcast", func(t *testing.T) {
		m := &MockDeliverer{}
		m.On("Deliver", mock.Anything, byID("a"), mock.Anything).Return(nil).Once()
		d := newDispatcher(s, m, &clock{now: t0})

		fr := funding.Request{ID: 20, Score: decimal.RequireFromString("0.8")}
		require.NoError(t, d.Handler()(ctx, envelope(t, event.FundingRequestPromising, "", fr)))
		m.AssertExpectations(t)
	})

	t.Run("private without user", func(t *testing.T) {
		d := newDispatcher(s, &MockDeliverer{}, &clock{now: t0})
		err := d.HandleMessage(ctx, envelope(t, event.InvestmentFailed, "", funding.Investment{ID: 4}))
		assert.ErrorIs(t, err, dispatcher.ErrMissingUser)
	})

	t.Run("invalid content", func(t *testing.T) {
		d := newDispatcher(s, &MockDeliverer{}, &clock{now: t0})
		err := d.HandleMessage(ctx, envelope(t, event.InvestmentFailed, "ben", "not an object"))
		assert.ErrorIs(t, err, funding.ErrInvalidContent)
	})

	t.Run("negative content id", func(t *testing.T) {
		d := newDispatcher(s, &MockDeliverer{}, &clock{now: t0})
		env := envelope(t, event.InvestmentConfirmed, "ana", map[string]any{"id": -1})
		assert.NotPanics(t, func() {
			assert.ErrorIs(t, d.HandleMessage(ctx, env), funding.ErrInvalidContent)
		})
	})

	t.Run("missing event", func(t *testing.T) {
		d := newDispatcher(s, &MockDeliverer{}, &clock{now: t0})
		env := pubsub.NewEnvelope("sub", []byte(`{}`), map[string]string{pubsub.AttrUserID: "ben"})
		assert.ErrorIs(t, d.HandleMessage(ctx, env), pubsub.ErrMissingAttribute)
	})

	t.Run("user change invalidates cache", func(t *testing.T) {
		inv := &invalidator{}
		d := newDispatcher(s, &MockDeliverer{}, &clock{now: t0}, dispatcher.WithInvalidator(inv))
		require.NoError(t, d.HandleMessage(ctx, envelope(t, event.UserChannelsUpdated, "ana", map[string]string{"id": "ana"})))
		assert.Equal(t, []string{"ana"}, inv.ids)
	})
}
