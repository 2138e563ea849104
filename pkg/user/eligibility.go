package user

import (
	"time"

	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
)

// ShouldNotify decides whether ev about content may be sent to u at now.
// Non-recurring events always pass. A recurring event passes when it was
// never sent for this content, or when the last send has expired and was
// not dismissed. It does not modify u.
func (u *User) ShouldNotify(ev event.Event, content event.Content, now time.Time) bool {
	if !ev.IsRecurring() {
		return true
	}
	n, ok := u.Notifications[notifications.BuildID(ev, content.ContentID())]
	if !ok {
		return true
	}
	return n.HasExpired(now) && !n.Dismissed
}

// RecordNotification upserts the history entry for a recurring event sent at
// now. The window restarts at now and takes the user's current expiration.
// Non-recurring events are not recorded and report false.
func (u *User) RecordNotification(ev event.Event, content event.Content, now time.Time) (notifications.Notification, bool) {
	if !ev.IsRecurring() {
		return notifications.Notification{}, false
	}
	u.ensureMaps()
	id := notifications.BuildID(ev, content.ContentID())
	n, ok := u.Notifications[id]
	if !ok {
		n = notifications.New(ev, content.ContentID(), now, u.expiration())
	} else {
		n.Refresh(now)
		n.ExpirationMinutes = u.expiration()
	}
	u.Notifications[id] = n
	return n, true
}

// Notification looks up a history entry; id case is ignored.
func (u *User) Notification(id string) (notifications.Notification, bool) {
	canonical, err := notifications.CanonicalID(id)
	if err != nil {
		return notifications.Notification{}, false
	}
	n, ok := u.Notifications[canonical]
	return n, ok
}

// DismissNotification stops re-notification for id.
func (u *User) DismissNotification(id string) error {
	canonical, err := notifications.CanonicalID(id)
	if err != nil {
		return err
	}
	n, ok := u.Notifications[canonical]
	if !ok {
		return ErrNotificationNotFound
	}
	n.Dismiss()
	u.Notifications[canonical] = n
	return nil
}

// RestoreNotification puts back a previous history entry, or removes id when
// prev is nil.
func (u *User) RestoreNotification(id string, prev *notifications.Notification) {
	u.ensureMaps()
	if prev == nil {
		delete(u.Notifications, id)
		return
	}
	u.Notifications[id] = *prev
}

// PruneNotifications drops expired, non-dismissed entries and reports how
// many were removed. Dismissed entries are kept so they keep suppressing.
func (u *User) PruneNotifications(now time.Time) int {
	removed := 0
	for id, n := range u.Notifications {
		if !n.Dismissed && n.HasExpired(now) {
			delete(u.Notifications, id)
			removed++
		}
	}
	return removed
}
