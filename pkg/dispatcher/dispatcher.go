package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/async"
	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/delivery"
	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

const (
	DefaultMaxConflictRetries = 3
	DefaultConcurrency        = 8
)

// Status is the outcome of a dispatch to one user.
type Status string

const (
	StatusDelivered  Status = "delivered"
	StatusSuppressed Status = "suppressed"
	StatusNoChannels Status = "no_channels"
	StatusFailed     Status = "failed"
)

// Result describes a dispatch to one user.
type Result struct {
	UserID         string
	NotificationID string
	Status         Status
	// Delivered holds the ids of the channels that accepted the payload.
	Delivered []string
	// Failed maps channel id to its delivery error.
	Failed map[string]error
}

// Summary aggregates the results of DispatchAll.
type Summary struct {
	Users      int
	Delivered  int
	Suppressed int
	NoChannels int
	Failed     int
}

func (s *Summary) add(r Result) {
	switch r.Status {
	case StatusDelivered:
		s.Delivered++
	case StatusSuppressed:
		s.Suppressed++
	case StatusNoChannels:
		s.NoChannels++
	case StatusFailed:
		s.Failed++
	}
}

// Invalidator drops cached copies of a user.
type Invalidator interface {
	Invalidate(ctx context.Context, id string)
}

// Dispatcher delivers events to users' channels.
type Dispatcher struct {
	users       store.Store
	deliverer   delivery.Deliverer
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
	baseURL     string
	retries     int
	concurrency int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithBaseURL sets the marketplace URL linked from funding request payloads.
func WithBaseURL(u string) Option {
	return func(d *Dispatcher) { d.baseURL = u }
}

// WithMaxConflictRetries bounds how often a claim is retried after a
// version conflict.
func WithMaxConflictRetries(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.retries = n
		}
	}
}

// WithConcurrency bounds how many users DispatchAll serves at once.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithInvalidator sets what HandleMessage calls for user change events.
func WithInvalidator(inv Invalidator) Option {
	return func(d *Dispatcher) { d.invalidator = inv }
}

// New creates a dispatcher. A nil deliverer only logs.
func New(users store.Store, deliverer delivery.Deliverer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		users:       users,
		deliverer:   deliverer,
		logger:      slog.Default(),
		now:         time.Now,
		retries:     DefaultMaxConflictRetries,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.deliverer == nil {
		d.deliverer = delivery.NewNoOp(d.logger)
	}
	return d
}

// Dispatch sends ev about content to the user with userID.
//
// A suppressed event or a user without an active channel is not an error.
// When every channel fails the error wraps ErrAllDeliveriesFailed and the
// notification is left as it was before the claim.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, ev event.Event, content event.Content) (Result, error) {
	// Stores keep millisecond precision; the claim must compare equal after
	// a round trip.
	now := d.now().UTC().Truncate(time.Millisecond)
	res := Result{UserID: userID}
	if ev.IsZero() || content == nil || content.ContentID() < 0 {
		return res, ErrInvalidContent
	}
	res.NotificationID = notifications.BuildID(ev, content.ContentID())

	payload, err := delivery.NewPayload(userID, ev, content, now, d.baseURL)
	if err != nil {
		return res, err
	}

	var (
		targets []channel.Configuration
		prev    *notifications.Notification
		claim   notifications.Notification
		claimed bool
	)
	for attempt := 0; ; attempt++ {
		u, err := d.users.Get(ctx, userID)
		if err != nil {
			return res, err
		}
		if !u.ShouldNotify(ev, content, now) {
			res.Status = StatusSuppressed
			return res, nil
		}
		targets = activeChannels(u, ev)
		if len(targets) == 0 {
			res.Status = StatusNoChannels
			return res, nil
		}
		if !ev.IsRecurring() {
			break
		}

		prev = nil
		if n, ok := u.Notifications[res.NotificationID]; ok {
			prev = &n
		}
		claim, claimed = u.RecordNotification(ev, content, now)
		err = d.users.Put(ctx, u)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt >= d.retries {
			return res, errors.Join(ErrClaimFailed, err)
		}
		d.logger.LogAttrs(ctx, slog.LevelDebug, "notification claim conflicted, retrying",
			logger.UserID(userID),
			logger.NotificationID(res.NotificationID),
			logger.Attempt(attempt+1),
		)
	}

	errs := d.deliver(ctx, targets, payload, &res)
	if len(res.Delivered) > 0 {
		res.Status = StatusDelivered
		return res, nil
	}

	res.Status = StatusFailed
	if claimed {
		if err := d.release(context.WithoutCancel(ctx), userID, claim, prev); err != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "failed to release notification claim",
				logger.UserID(userID),
				logger.NotificationID(claim.ID),
				logger.Error(err),
			)
		}
	}
	return res, errors.Join(append([]error{ErrAllDeliveriesFailed}, errs...)...)
}

// deliver sends payload to every target concurrently and records the
// outcome per channel in res.
func (d *Dispatcher) deliver(ctx context.Context, targets []channel.Configuration, p delivery.Payload, res *Result) []error {
	futures := make([]*async.Future[struct{}], len(targets))
	for i, cfg := range targets {
		futures[i] = async.Go(ctx, cfg, func(ctx context.Context, cfg channel.Configuration) (struct{}, error) {
			return struct{}{}, d.deliverer.Deliver(ctx, cfg, p)
		})
	}

	var errs []error
	for i, out := range async.Settle(futures...) {
		cfg := targets[i]
		if out.Err == nil {
			res.Delivered = append(res.Delivered, cfg.ID())
			continue
		}
		if res.Failed == nil {
			res.Failed = make(map[string]error)
		}
		res.Failed[cfg.ID()] = out.Err
		errs = append(errs, fmt.Errorf("channel %s: %w", cfg.ID(), out.Err))
		d.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver notification",
			logger.UserID(res.UserID),
			logger.NotificationID(p.ID),
			logger.ChannelID(cfg.ID()),
			logger.ChannelType(string(cfg.Type())),
			logger.Error(out.Err),
		)
	}
	return errs
}

// release puts back the notification state that preceded claim, unless
// another dispatch has since replaced it.
func (d *Dispatcher) release(ctx context.Context, userID string, claim notifications.Notification, prev *notifications.Notification) error {
	for attempt := 0; ; attempt++ {
		u, err := d.users.Get(ctx, userID)
		if err != nil {
			return err
		}
		cur, ok := u.Notifications[claim.ID]
		if !ok || !cur.Date.Equal(claim.Date) || cur.Dismissed != claim.Dismissed {
			return nil
		}
		u.RestoreNotification(claim.ID, prev)
		err = d.users.Put(ctx, u)
		if err == nil || !errors.Is(err, store.ErrVersionConflict) || attempt >= d.retries {
			return err
		}
	}
}

// DispatchAll sends ev to every user. A promising funding request only
// reaches users with at least one matching filter.
func (d *Dispatcher) DispatchAll(ctx context.Context, ev event.Event, content event.Content) (Summary, error) {
	users, err := d.users.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	targets := make([]*user.User, 0, len(users))
	for _, u := range users {
		if wants(u, ev, content) {
			targets = append(targets, u)
		}
	}

	var (
		mu  sync.Mutex
		sum = Summary{Users: len(targets)}
	)
	err = async.ForEach(ctx, targets, d.concurrency, func(ctx context.Context, u *user.User) error {
		res, err := d.Dispatch(ctx, u.ID, ev, content)
		mu.Lock()
		sum.add(res)
		mu.Unlock()
		if err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
		return nil
	})
	return sum, err
}

func wants(u *user.User, ev event.Event, content event.Content) bool {
	if ev != event.FundingRequestPromising {
		return true
	}
	fr, ok := content.(funding.Request)
	return ok && len(u.MatchingFilters(fr)) > 0
}

func activeChannels(u *user.User, ev event.Event) []channel.Configuration {
	var out []channel.Configuration
	for _, cfg := range u.ChannelList() {
		if channel.Active(cfg, ev) {
			out = append(out, cfg)
		}
	}
	return out
}
