package notifications

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

// DefaultExpirationMinutes is the re-notification window used when a user
// has not configured one.
const DefaultExpirationMinutes = 60

// Notification records that a recurring event was sent to a user for a given
// piece of content.
type Notification struct {
	ID                string
	Event             event.Event
	ContentID         int64
	Date              time.Time
	ExpirationMinutes int
	Dismissed         bool
}

// New creates a notification for ev and contentID sent at date.
// Non-positive expiration falls back to DefaultExpirationMinutes.
func New(ev event.Event, contentID int64, date time.Time, expirationMinutes int) Notification {
	if expirationMinutes <= 0 {
		expirationMinutes = DefaultExpirationMinutes
	}
	return Notification{
		ID:                BuildID(ev, contentID),
		Event:             ev,
		ContentID:         contentID,
		Date:              date,
		ExpirationMinutes: expirationMinutes,
	}
}

// HasExpired reports whether now lies strictly after date plus the window.
// At exactly date+minutes the notification is still active.
func HasExpired(date time.Time, minutes int, now time.Time) bool {
	return now.After(date.Add(time.Duration(minutes) * time.Minute))
}

func (n Notification) HasExpired(now time.Time) bool {
	return HasExpired(n.Date, n.ExpirationMinutes, now)
}

// ExpiresAt returns the last instant at which the notification is active.
func (n Notification) ExpiresAt() time.Time {
	return n.Date.Add(time.Duration(n.ExpirationMinutes) * time.Minute)
}

// Refresh restarts the expiration window at now.
func (n *Notification) Refresh(now time.Time) {
	n.Date = now
}

// Dismiss suppresses any further notification for this id.
func (n *Notification) Dismiss() {
	n.Dismissed = true
}

// Record is the persisted shape of a notification. Event and content id are
// derived from ID on decode.
type Record struct {
	ID                string    `json:"id" bson:"id"`
	Date              time.Time `json:"date" bson:"date"`
	ExpirationMinutes int       `json:"expiration_minutes" bson:"expiration_minutes"`
	Dismissed         bool      `json:"dismissed" bson:"dismissed"`
}

func (n Notification) Record() Record {
	return Record{
		ID:                n.ID,
		Date:              n.Date,
		ExpirationMinutes: n.ExpirationMinutes,
		Dismissed:         n.Dismissed,
	}
}

// Decode rebuilds a notification from its persisted record. A record whose id
// cannot be parsed yields ErrCorruptNotificationState. A missing expiration
// takes fallbackMinutes.
func Decode(rec Record, fallbackMinutes int) (Notification, error) {
	ev, contentID, err := ParseID(rec.ID)
	if err != nil {
		return Notification{}, errors.Join(ErrCorruptNotificationState, fmt.Errorf("notification %q: %w", rec.ID, err))
	}
	minutes := rec.ExpirationMinutes
	if minutes <= 0 {
		minutes = fallbackMinutes
	}
	n := New(ev, contentID, rec.Date, minutes)
	n.Dismissed = rec.Dismissed
	return n, nil
}

// DecodeAll decodes a persisted notification map keyed by id. The first
// corrupt record fails the whole decode.
func DecodeAll(records map[string]Record, fallbackMinutes int) (map[string]Notification, error) {
	out := make(map[string]Notification, len(records))
	for key, rec := range records {
		if rec.ID == "" {
			rec.ID = key
		}
		n, err := Decode(rec, fallbackMinutes)
		if err != nil {
			return nil, err
		}
		out[n.ID] = n
	}
	return out, nil
}
