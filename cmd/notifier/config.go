package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/httpserver"
	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/ratelimiter"
	"github.com/dmitrymomot/fundalert/pkg/redis"
	"github.com/dmitrymomot/fundalert/pkg/store/mongostore"
	"github.com/dmitrymomot/fundalert/pkg/store/pgstore"
)

const (
	driverMemory   = "memory"
	driverMongo    = "mongo"
	driverPostgres = "postgres"
)

type appConfig struct {
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	StoreDriver       string        `env:"STORE_DRIVER" envDefault:"memory"`
	DefaultExpiration int           `env:"DEFAULT_EXPIRATION_MINUTES" envDefault:"60"`
	UserCacheTTL      time.Duration `env:"USER_CACHE_TTL" envDefault:"1m"`
	UserCacheSize     int           `env:"USER_CACHE_SIZE" envDefault:"1000"`
	UseRedisCache     bool          `env:"USER_CACHE_REDIS" envDefault:"false"`

	EventsTopic     string `env:"EVENTS_TOPIC" envDefault:"fundalert.events"`
	Subscribe       bool   `env:"EVENTS_SUBSCRIBE" envDefault:"false"`
	MarketplaceURL  string `env:"MARKETPLACE_BASE_URL" envDefault:"https://app.fundalert.io"`
	DispatchWorkers int    `env:"DISPATCH_CONCURRENCY" envDefault:"8"`

	EncryptionKey string `env:"PASSWORDS_ENCRYPTION_KEY,required"`

	WebhookSigningSecret string        `env:"WEBHOOK_SIGNING_SECRET"`
	WebhookTimeout       time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookMaxRetries    int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`

	IFTTTBaseURL string `env:"IFTTT_BASE_URL"`

	WhatsAppBaseURL       string `env:"WHATSAPP_API_URL"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppToken         string `env:"WHATSAPP_TOKEN"`

	TrustedProxyHeaders []string `env:"TRUSTED_PROXY_HEADERS" envSeparator:","`

	HTTP      httpserver.Config
	RateLimit ratelimiter.Config
	Redis     redis.Config
	Mongo     mongostore.Config
	Postgres  pgstore.Config
}

func (c *appConfig) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case driverMemory, driverMongo, driverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.LogFormat != string(logger.FormatJSON) && c.LogFormat != string(logger.FormatText) {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	if c.DefaultExpiration < 1 {
		errs = append(errs, errors.New("DEFAULT_EXPIRATION_MINUTES must be positive"))
	}
	if c.StoreDriver == driverMongo && c.Mongo.ConnectionURL == "" {
		errs = append(errs, errors.New("MONGODB_URL is required for the mongo driver"))
	}
	if c.StoreDriver == driverPostgres && c.Postgres.ConnectionString == "" {
		errs = append(errs, errors.New("PG_CONN_URL is required for the postgres driver"))
	}
	if c.UserCacheSize <= 0 {
		errs = append(errs, errors.New("USER_CACHE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// needsRedis reports whether any component uses the Redis connection.
func (c *appConfig) needsRedis() bool {
	return c.UseRedisCache || c.Subscribe
}

func (c *appConfig) whatsAppEnabled() bool {
	return c.WhatsAppPhoneNumberID != "" && c.WhatsAppToken != ""
}
