package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/fundalert/pkg/credentials"
	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/handler"
	"github.com/dmitrymomot/fundalert/pkg/httpserver"
	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
	"github.com/dmitrymomot/fundalert/pkg/ratelimiter"
	"github.com/dmitrymomot/fundalert/pkg/requestid"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

// DefaultMaxConflictRetries bounds how often a user update is re-applied
// after a version conflict.
const DefaultMaxConflictRetries = 3

// MessageHandler processes a pushed envelope. *dispatcher.Dispatcher
// implements it.
type MessageHandler interface {
	HandleMessage(ctx context.Context, env pubsub.Envelope) error
}

// Publisher announces user changes. *pubsub.Publisher implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, topic string, content any, attrs map[string]string) (string, error)
}

// API serves the HTTP routes.
type API struct {
	users     store.Store
	sealer    credentials.Sealer
	messages  MessageHandler
	publisher Publisher
	topic     string
	checks    []httpserver.Check
	logger    *slog.Logger
	retries   int
	userOpts  []user.Option
	limiter   *ratelimiter.Bucket
	trusted   []string
}

type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithPublisher publishes user.*_updated events to topic after changes.
func WithPublisher(p Publisher, topic string) Option {
	return func(a *API) {
		a.publisher = p
		a.topic = topic
	}
}

// WithHealthChecks adds readiness checks to GET /healthz.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(a *API) { a.checks = append(a.checks, checks...) }
}

func WithMaxConflictRetries(n int) Option {
	return func(a *API) {
		if n >= 0 {
			a.retries = n
		}
	}
}

// WithRateLimit throttles the authenticated routes per API key, or per
// client address when no key is sent. trustedHeaders name proxy headers
// carrying the client address.
func WithRateLimit(b *ratelimiter.Bucket, trustedHeaders ...string) Option {
	return func(a *API) {
		a.limiter = b
		a.trusted = trustedHeaders
	}
}

// WithUserDefaults applies opts to every user created through POST /users
// before the request fields.
func WithUserDefaults(opts ...user.Option) Option {
	return func(a *API) { a.userOpts = append(a.userOpts, opts...) }
}

// New creates the API. sealer encrypts marketplace passwords and messages
// handles POST /events.
func New(users store.Store, sealer credentials.Sealer, messages MessageHandler, opts ...Option) *API {
	a := &API{
		users:    users,
		sealer:   sealer,
		messages: messages,
		logger:   slog.Default(),
		retries:  DefaultMaxConflictRetries,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes returns the router serving every endpoint.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(pubsub.Middleware)
	r.Use(requestid.Middleware)

	r.Get("/healthz", httpserver.HealthCheckHandler(a.logger, a.checks...))
	r.Post("/events", wrap(a, a.handleEvent))

	r.Group(func(r chi.Router) {
		if a.limiter != nil {
			key := ratelimiter.FirstOf(ratelimiter.ByAPIKey(APIKeyHeader), ratelimiter.ByClientIP(a.trusted...))
			r.Use(ratelimiter.Middleware(a.limiter, key, ratelimiter.WithLogger(a.logger)))
		}
		r.Use(Authenticate(a.users))

		r.Get("/me", wrap(a, a.getMe))
		r.Put("/me/credentials", wrap(a, a.putCredentials, jsonBody))
		r.Put("/me/channels/{id}", wrap(a, a.putChannel, pathParams, jsonBody))
		r.Delete("/me/channels/{id}", wrap(a, a.deleteChannel, pathParams))
		r.Put("/me/filters/{id}", wrap(a, a.putFilter, pathParams, jsonBody))
		r.Delete("/me/filters/{id}", wrap(a, a.deleteFilter, pathParams))
		r.Post("/me/notifications/{id}/dismiss", wrap(a, a.dismissNotification, pathParams))

		r.Route("/users", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/", wrap(a, a.listUsers))
			r.Post("/", wrap(a, a.createUser, jsonBody))
		})
	})
	return r
}

// update applies fn to u and saves it, re-reading and re-applying on a
// version conflict. ev is published once the change is stored.
func (a *API) update(ctx context.Context, u *user.User, ev event.Event, fn func(*user.User) error) (*user.User, error) {
	for attempt := 0; ; attempt++ {
		if err := fn(u); err != nil {
			return nil, err
		}
		err := a.users.Put(ctx, u)
		if err == nil {
			a.publish(ctx, ev, u.ID)
			return u, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt >= a.retries {
			return nil, err
		}
		if u, err = a.users.Get(ctx, u.ID); err != nil {
			return nil, err
		}
	}
}

func (a *API) publish(ctx context.Context, ev event.Event, userID string) {
	if a.publisher == nil {
		return
	}
	attrs := map[string]string{pubsub.AttrEvent: ev.Value(), pubsub.AttrUserID: userID}
	if _, err := a.publisher.PublishJSON(ctx, a.topic, map[string]string{"id": userID}, attrs); err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish user change",
			logger.UserID(userID),
			logger.Event(ev.Value()),
			logger.Error(err),
		)
	}
}

// wrap adapts an API handler to http.HandlerFunc with logging error
// handling and the given binders.
func wrap[R any](a *API, h handler.HandlerFunc[R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithErrorHandler(handler.NewErrorHandler(a.logger)),
		handler.WithBinders(binders...),
	)
}
