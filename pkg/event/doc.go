// Package event defines the closed set of domain events the notifier reacts to.
//
// Every event has a dotted value of the form "<resource>.<state>", the kind of
// content it refers to, and a recurring flag. Recurring events may fire many
// times for the same piece of content and are de-duplicated per user by the
// notification history; non-recurring events are always delivered.
//
// The taxonomy is fixed at build time. Lookups through Resolve are
// case-insensitive and Members preserves declaration order:
//
//	ev, err := event.Resolve("FUNDING_REQUEST.Promising")
//	if errors.Is(err, event.ErrUnknownEvent) {
//	    // reject
//	}
//	ev == event.FundingRequestPromising // true
package event
