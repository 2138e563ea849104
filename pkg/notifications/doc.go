// Package notifications identifies sent notifications and tracks their
// re-notification window.
//
// A notification id is "<event value>-<content id>", for example
// "funding_request.promising-12345". It is the key under which a user's
// notification history stores the last send of a recurring event for a piece
// of content:
//
//	id := notifications.BuildID(event.FundingRequestPromising, 12345)
//	ev, contentID, err := notifications.ParseID(id)
//
// Ids are parsed case-insensitively and always rebuilt in canonical lower
// case, so histories written with mixed-case ids converge on one key.
//
// HasExpired uses a strict comparison: a notification sent at T with a window
// of M minutes is still active at exactly T+M and expired one instant later.
//
// Persisted records that no longer parse are reported as
// ErrCorruptNotificationState instead of being dropped.
package notifications
