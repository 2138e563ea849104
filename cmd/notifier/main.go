// Command notifier runs the fundalert notification service: the HTTP API,
// the push endpoint for marketplace events and, optionally, a Redis
// subscriber for the same events.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fundalert/pkg/api"
	"github.com/dmitrymomot/fundalert/pkg/cache"
	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/config"
	"github.com/dmitrymomot/fundalert/pkg/delivery"
	"github.com/dmitrymomot/fundalert/pkg/dispatcher"
	"github.com/dmitrymomot/fundalert/pkg/httpserver"
	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
	"github.com/dmitrymomot/fundalert/pkg/ratelimiter"
	"github.com/dmitrymomot/fundalert/pkg/redis"
	"github.com/dmitrymomot/fundalert/pkg/requestid"
	"github.com/dmitrymomot/fundalert/pkg/secrets"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/store/mongostore"
	"github.com/dmitrymomot/fundalert/pkg/store/pgstore"
	"github.com/dmitrymomot/fundalert/pkg/user"
	"github.com/dmitrymomot/fundalert/pkg/webhook"
)

const serviceName = "fundalert-notifier"

func main() {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		slog.Error("load config", logger.Error(err))
		os.Exit(1)
	}

	log := logger.New(
		logger.WithLevelName(cfg.LogLevel),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithContextExtractors(pubsub.LoggerExtractor(), requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("notifier stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("notifier stopped")
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	cipher, err := secrets.NewCipherFromBase64(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("passwords encryption key: %w", err)
	}

	var rdb *goredis.Client
	if cfg.needsRedis() {
		if rdb, err = redis.Connect(ctx, cfg.Redis); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
	}

	base, checks, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var userCache store.Cache = cache.NewLocal(cfg.UserCacheSize)
	if cfg.UseRedisCache {
		userCache = redis.NewCache(rdb, cfg.Redis.KeyPrefix)
	}
	if rdb != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})
	}
	users := store.NewCached(base, userCache,
		store.WithCacheTTL(cfg.UserCacheTTL),
		store.WithCacheLogger(log.With(logger.Component("user_cache"))),
		store.WithCacheDefaultExpiration(cfg.DefaultExpiration),
	)

	d := dispatcher.New(users, newDeliverer(cfg, log),
		dispatcher.WithLogger(log.With(logger.Component("dispatcher"))),
		dispatcher.WithBaseURL(cfg.MarketplaceURL),
		dispatcher.WithConcurrency(cfg.DispatchWorkers),
		dispatcher.WithInvalidator(users),
	)

	apiOpts := []api.Option{
		api.WithLogger(log.With(logger.Component("api"))),
		api.WithHealthChecks(checks...),
		api.WithUserDefaults(user.WithExpirationMinutes(cfg.DefaultExpiration)),
	}
	if rdb != nil {
		apiOpts = append(apiOpts, api.WithPublisher(pubsub.NewPublisher(rdb), cfg.EventsTopic))
	}
	if cfg.RateLimit.Enabled {
		var limits ratelimiter.Store = ratelimiter.NewMemoryStore()
		if rdb != nil {
			limits = ratelimiter.NewRedisStore(rdb, cfg.Redis.KeyPrefix+"ratelimit:")
		}
		bucket, err := ratelimiter.NewBucket(limits, cfg.RateLimit)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithRateLimit(bucket, cfg.TrustedProxyHeaders...))
	}
	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	routes := api.New(users, cipher, d, apiOpts...).Routes()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, routes) })
	if cfg.Subscribe {
		sub := pubsub.NewSubscriber(rdb, pubsub.WithSubscriberLogger(log.With(logger.Component("subscriber"))))
		g.Go(func() error { return sub.Run(ctx, cfg.EventsTopic, d.Handler()) })
	}
	return g.Wait()
}

// openStore connects the configured user store. The returned func releases
// its connections.
func openStore(ctx context.Context, cfg appConfig, log *slog.Logger) (store.Store, []httpserver.Check, func(), error) {
	switch cfg.StoreDriver {
	case driverMongo:
		client, err := mongostore.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mongodb: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		s, err := mongostore.New(ctx, coll, mongostore.WithDefaultExpiration(cfg.DefaultExpiration))
		if err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("mongodb: %w", err)
		}
		return s, []httpserver.Check{{Name: "mongodb", Fn: mongostore.Healthcheck(client)}}, closeFn, nil

	case driverPostgres:
		pool, err := pgstore.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pgstore.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		s := pgstore.New(pool, pgstore.WithDefaultExpiration(cfg.DefaultExpiration))
		return s, []httpserver.Check{{Name: "postgres", Fn: pgstore.Healthcheck(pool)}}, pool.Close, nil

	default:
		log.Warn("using the in-memory user store, data is lost on restart")
		return store.NewMemory(store.WithMemoryDefaultExpiration(cfg.DefaultExpiration)), nil, func() {}, nil
	}
}

// newDeliverer routes each channel type to its transport. WhatsApp falls
// back to logging when the Cloud API is not configured.
func newDeliverer(cfg appConfig, log *slog.Logger) delivery.Deliverer {
	sender := webhook.NewSender(
		webhook.WithSigningSecret(cfg.WebhookSigningSecret),
		webhook.WithTimeout(cfg.WebhookTimeout),
		webhook.WithMaxRetries(cfg.WebhookMaxRetries),
		webhook.WithUserAgent(serviceName),
		webhook.WithLogger(log.With(logger.Component("webhook"))),
	)

	r := delivery.NewRouter().
		Register(channel.TypeWebhook, delivery.NewWebhook(sender)).
		Register(channel.TypeIFTTT, delivery.NewIFTTT(sender, cfg.IFTTTBaseURL))

	if cfg.whatsAppEnabled() {
		cloud := delivery.NewCloudAPI(sender, cfg.WhatsAppBaseURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppToken)
		r.Register(channel.TypeWhatsApp, delivery.NewWhatsApp(cloud))
	} else {
		r.Register(channel.TypeWhatsApp, delivery.NewNoOp(log))
	}
	return r
}
