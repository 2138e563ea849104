package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/credentials"
	"github.com/dmitrymomot/fundalert/pkg/filter"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

// Document is the persisted shape of a user shared by every backend.
// Collections are stored as lists ordered by id so that no backend has to
// deal with dotted map keys.
type Document struct {
	ID                string                   `json:"id" bson:"_id"`
	APIKey            string                   `json:"api_key" bson:"api_key"`
	Email             string                   `json:"email" bson:"email"`
	Name              string                   `json:"name" bson:"name"`
	IsAdmin           bool                     `json:"is_admin" bson:"is_admin"`
	Credentials       *credentials.Credentials `json:"credentials,omitempty" bson:"credentials,omitempty"`
	ExpirationMinutes int                      `json:"expiration_minutes" bson:"expiration_minutes"`
	Notifications     []notifications.Record   `json:"notifications" bson:"notifications"`
	Channels          []channel.Record         `json:"channels" bson:"channels"`
	Filters           []filter.Record          `json:"filters" bson:"filters"`
	Balance           *BalanceRecord           `json:"balance,omitempty" bson:"balance,omitempty"`
	Portfolio         *PortfolioRecord         `json:"portfolio,omitempty" bson:"portfolio,omitempty"`
	Version           int64                    `json:"version" bson:"version"`
}

type BalanceRecord struct {
	Amount    int64     `json:"amount" bson:"amount"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

type PortfolioRecord struct {
	UpdatedAt   time.Time            `json:"updated_at" bson:"updated_at"`
	Investments []funding.Investment `json:"investments" bson:"investments"`
}

// NewDocument flattens u into its persisted shape.
func NewDocument(u *user.User) Document {
	d := Document{
		ID:                u.ID,
		APIKey:            u.APIKey,
		Email:             u.Email,
		Name:              u.Name,
		IsAdmin:           u.IsAdmin,
		Credentials:       copyCredentials(u.Credentials),
		ExpirationMinutes: u.ExpirationMinutes,
		Notifications:     make([]notifications.Record, 0, len(u.Notifications)),
		Channels:          make([]channel.Record, 0, len(u.Channels)),
		Filters:           make([]filter.Record, 0, len(u.Filters)),
		Version:           u.Version,
	}
	for _, id := range slices.Sorted(maps.Keys(u.Notifications)) {
		d.Notifications = append(d.Notifications, u.Notifications[id].Record())
	}
	for _, c := range u.ChannelList() {
		d.Channels = append(d.Channels, c.Record())
	}
	for _, f := range u.FilterList() {
		d.Filters = append(d.Filters, f.Record())
	}
	if u.Balance != nil {
		d.Balance = &BalanceRecord{Amount: u.Balance.Amount, UpdatedAt: u.Balance.UpdatedAt}
	}
	if u.Portfolio != nil {
		p := &PortfolioRecord{UpdatedAt: u.Portfolio.UpdatedAt}
		for _, id := range slices.Sorted(maps.Keys(u.Portfolio.Investments)) {
			p.Investments = append(p.Investments, u.Portfolio.Investments[id])
		}
		d.Portfolio = p
	}
	return d
}

// User rebuilds the aggregate. Notifications without an expiration take
// defaultMinutes. Any undecodable notification, channel or filter fails the
// whole read, as do two entries sharing an id (notification ids compared
// case-insensitively); corrupt notification history is reported with
// notifications.ErrCorruptNotificationState in the chain.
func (d Document) User(defaultMinutes int) (*user.User, error) {
	minutes := d.ExpirationMinutes
	if minutes <= 0 {
		minutes = defaultMinutes
	}

	notes := make(map[string]notifications.Record, len(d.Notifications))
	for _, r := range d.Notifications {
		key := strings.ToLower(r.ID)
		if _, dup := notes[key]; dup {
			return nil, d.corrupt(fmt.Errorf("%w: duplicate notification %q", notifications.ErrCorruptNotificationState, r.ID))
		}
		notes[key] = r
	}
	decodedNotes, err := notifications.DecodeAll(notes, minutes)
	if err != nil {
		return nil, d.corrupt(err)
	}

	chans := make(map[string]channel.Record, len(d.Channels))
	for _, r := range d.Channels {
		if _, dup := chans[r.ID]; dup {
			return nil, d.corrupt(fmt.Errorf("duplicate channel %q", r.ID))
		}
		chans[r.ID] = r
	}
	decodedChans, err := channel.DecodeAll(chans)
	if err != nil {
		return nil, d.corrupt(err)
	}

	filters := make(map[string]filter.Record, len(d.Filters))
	for _, r := range d.Filters {
		if _, dup := filters[r.ID]; dup {
			return nil, d.corrupt(fmt.Errorf("duplicate filter %q", r.ID))
		}
		filters[r.ID] = r
	}
	decodedFilters, err := filter.DecodeAll(filters)
	if err != nil {
		return nil, d.corrupt(err)
	}

	u := &user.User{
		ID:                d.ID,
		APIKey:            d.APIKey,
		Email:             d.Email,
		Name:              d.Name,
		IsAdmin:           d.IsAdmin,
		Credentials:       copyCredentials(d.Credentials),
		ExpirationMinutes: minutes,
		Notifications:     decodedNotes,
		Channels:          decodedChans,
		Filters:           decodedFilters,
		Version:           d.Version,
	}
	if d.Balance != nil {
		u.Balance = &user.Balance{Amount: d.Balance.Amount, UpdatedAt: d.Balance.UpdatedAt}
	}
	if d.Portfolio != nil {
		p := &user.InvestmentPortfolio{
			UpdatedAt:   d.Portfolio.UpdatedAt,
			Investments: make(map[int64]funding.Investment, len(d.Portfolio.Investments)),
		}
		for _, inv := range d.Portfolio.Investments {
			p.Investments[inv.ID] = inv
		}
		u.Portfolio = p
	}
	return u, nil
}

func copyCredentials(c *credentials.Credentials) *credentials.Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func (d Document) corrupt(err error) error {
	return errors.Join(ErrCorruptDocument, fmt.Errorf("user %q: %w", d.ID, err))
}

// NextDocument validates u and returns the document to write, carrying the
// next version. u itself is not touched.
func NextDocument(u *user.User) (Document, error) {
	if u == nil {
		return Document{}, ErrInvalidUserInput
	}
	if err := u.Validate(); err != nil {
		return Document{}, errors.Join(ErrInvalidUserInput, err)
	}
	d := NewDocument(u)
	d.Version = u.Version + 1
	return d, nil
}
