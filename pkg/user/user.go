package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/credentials"
	"github.com/dmitrymomot/fundalert/pkg/filter"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/validator"
)

// MaxNameLength bounds the display name.
const MaxNameLength = 30

// User is the aggregate persisted per account: profile, notification
// history, channels and filters. Version is the optimistic concurrency token
// maintained by the store.
type User struct {
	ID                string
	APIKey            string
	Email             string
	Name              string
	IsAdmin           bool
	Credentials       *credentials.Credentials
	ExpirationMinutes int

	Notifications map[string]notifications.Notification
	Channels      map[string]channel.Configuration
	Filters       map[string]filter.Configuration

	Balance   *Balance
	Portfolio *InvestmentPortfolio

	Version int64
}

// Option configures New.
type Option func(*User)

func WithID(id string) Option {
	return func(u *User) { u.ID = id }
}

func WithAPIKey(key string) Option {
	return func(u *User) { u.APIKey = key }
}

func WithAdmin() Option {
	return func(u *User) { u.IsAdmin = true }
}

func WithExpirationMinutes(m int) Option {
	return func(u *User) { u.ExpirationMinutes = m }
}

// New creates a validated user with a fresh id and API key.
func New(email, name string, opts ...Option) (*User, error) {
	u := &User{
		Email:             strings.TrimSpace(email),
		Name:              strings.TrimSpace(name),
		ExpirationMinutes: notifications.DefaultExpirationMinutes,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.APIKey == "" {
		key, err := GenerateAPIKey()
		if err != nil {
			return nil, err
		}
		u.APIKey = key
	}
	u.ensureMaps()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// GenerateAPIKey returns 32 random bytes hex encoded.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Validate checks the profile fields.
func (u *User) Validate() error {
	err := validator.Apply(
		validator.Required("id", u.ID),
		validator.Required("api_key", u.APIKey),
		validator.Email("email", u.Email),
		validator.Required("name", u.Name),
		validator.MaxLen("name", u.Name, MaxNameLength),
		validator.Min("expiration_minutes", u.ExpirationMinutes, 1),
	)
	if err != nil {
		return errors.Join(ErrInvalidUser, err)
	}
	if u.Credentials != nil {
		if err := u.Credentials.Validate(); err != nil {
			return errors.Join(ErrInvalidUser, validator.Prefix("credentials", err))
		}
	}
	return nil
}

func (u *User) ensureMaps() {
	if u.Notifications == nil {
		u.Notifications = make(map[string]notifications.Notification)
	}
	if u.Channels == nil {
		u.Channels = make(map[string]channel.Configuration)
	}
	if u.Filters == nil {
		u.Filters = make(map[string]filter.Configuration)
	}
}

// expiration returns the user's window, falling back to the default.
func (u *User) expiration() int {
	if u.ExpirationMinutes > 0 {
		return u.ExpirationMinutes
	}
	return notifications.DefaultExpirationMinutes
}

// SetCredentials replaces the stored marketplace login.
func (u *User) SetCredentials(c credentials.Credentials) {
	u.Credentials = &c
}

// PutChannel adds or replaces a channel by id.
func (u *User) PutChannel(cfg channel.Configuration) {
	u.ensureMaps()
	u.Channels[cfg.ID()] = cfg
}

func (u *User) RemoveChannel(id string) error {
	if _, ok := u.Channels[id]; !ok {
		return ErrChannelNotFound
	}
	delete(u.Channels, id)
	return nil
}

// ChannelList returns the channels ordered by id.
func (u *User) ChannelList() []channel.Configuration {
	out := make([]channel.Configuration, 0, len(u.Channels))
	for _, c := range u.Channels {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b channel.Configuration) int { return strings.Compare(a.ID(), b.ID()) })
	return out
}

// PutFilter adds or replaces a filter by id. A filter equal to another one
// already stored under a different id is rejected.
func (u *User) PutFilter(cfg filter.Configuration) error {
	u.ensureMaps()
	for id, existing := range u.Filters {
		if id != cfg.ID && filter.Equal(existing, cfg) {
			return ErrDuplicateFilter
		}
	}
	u.Filters[cfg.ID] = cfg
	return nil
}

func (u *User) RemoveFilter(id string) error {
	if _, ok := u.Filters[id]; !ok {
		return ErrFilterNotFound
	}
	delete(u.Filters, id)
	return nil
}

// FilterList returns the filters ordered by id.
func (u *User) FilterList() []filter.Configuration {
	out := make([]filter.Configuration, 0, len(u.Filters))
	for _, f := range u.Filters {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b filter.Configuration) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// MatchingFilters returns the user's filters that fr satisfies.
func (u *User) MatchingFilters(fr funding.Request) []filter.Configuration {
	var out []filter.Configuration
	for _, f := range u.FilterList() {
		if f.Match(fr) {
			out = append(out, f)
		}
	}
	return out
}

// Balance is the cached account balance.
type Balance struct {
	Amount    int64
	UpdatedAt time.Time
}

// BalanceExpirationMinutes is how long a cached balance is trusted.
const BalanceExpirationMinutes = 5

func (b Balance) HasExpired(now time.Time) bool {
	return notifications.HasExpired(b.UpdatedAt, BalanceExpirationMinutes, now)
}

// InvestmentPortfolio is the cached list of the user's investments.
type InvestmentPortfolio struct {
	UpdatedAt   time.Time
	Investments map[int64]funding.Investment
}

// PortfolioExpirationMinutes is how long a cached portfolio is trusted.
const PortfolioExpirationMinutes = 30

func (p InvestmentPortfolio) HasExpired(now time.Time) bool {
	return notifications.HasExpired(p.UpdatedAt, PortfolioExpirationMinutes, now)
}
