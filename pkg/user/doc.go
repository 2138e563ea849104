// Package user holds the User aggregate and the notification eligibility
// rules.
//
// ShouldNotify is a pure decision over the user's notification history:
//
//	if u.ShouldNotify(event.FundingRequestPromising, fr, now) {
//	    // deliver, then
//	    u.RecordNotification(event.FundingRequestPromising, fr, now)
//	    // and persist u with a version check
//	}
//
// Recording and persisting are the caller's job. Concurrent writers are
// serialised by the store's version check, not here.
package user
