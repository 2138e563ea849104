package api

import (
	"slices"
	"strings"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/filter"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

// UserView is the JSON form of a user. Passwords are never rendered and the
// API key only when a user is created.
type UserView struct {
	ID                string                 `json:"id"`
	Email             string                 `json:"email"`
	Name              string                 `json:"name"`
	IsAdmin           bool                   `json:"is_admin"`
	APIKey            string                 `json:"api_key,omitempty"`
	ExpirationMinutes int                    `json:"expiration_minutes"`
	Credentials       *CredentialsView       `json:"credentials,omitempty"`
	Channels          []channel.Record       `json:"channels"`
	Filters           []filter.Record        `json:"filters"`
	Notifications     []notifications.Record `json:"notifications"`
	Version           int64                  `json:"version"`
}

type CredentialsView struct {
	AccountID int64  `json:"id"`
	Email     string `json:"email"`
}

func newUserView(u *user.User) UserView {
	v := UserView{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		IsAdmin:           u.IsAdmin,
		ExpirationMinutes: u.ExpirationMinutes,
		Channels:          make([]channel.Record, 0, len(u.Channels)),
		Filters:           make([]filter.Record, 0, len(u.Filters)),
		Notifications:     make([]notifications.Record, 0, len(u.Notifications)),
		Version:           u.Version,
	}
	if u.Credentials != nil {
		v.Credentials = &CredentialsView{AccountID: u.Credentials.AccountID, Email: u.Credentials.Email}
	}
	for _, c := range u.ChannelList() {
		v.Channels = append(v.Channels, c.Record())
	}
	for _, f := range u.FilterList() {
		v.Filters = append(v.Filters, f.Record())
	}
	for _, n := range u.Notifications {
		v.Notifications = append(v.Notifications, n.Record())
	}
	slices.SortFunc(v.Notifications, func(a, b notifications.Record) int { return strings.Compare(a.ID, b.ID) })
	return v
}
