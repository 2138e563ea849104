package channel

import (
	"fmt"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

// Mode selects how a Subscription decides which events a channel receives.
type Mode int

const (
	// ModeAll receives every event except those in the disabled set.
	ModeAll Mode = iota
	// ModeExplicit receives only the events in the enabled set.
	ModeExplicit
)

// Subscription is a channel's event filter.
type Subscription struct {
	mode     Mode
	enabled  map[event.Event]struct{}
	disabled map[event.Event]struct{}
}

// AllEvents subscribes to every event except the given ones.
func AllEvents(except ...event.Event) Subscription {
	return Subscription{mode: ModeAll, disabled: toSet(except)}
}

// OnlyEvents subscribes to exactly the given events.
func OnlyEvents(events ...event.Event) Subscription {
	return Subscription{mode: ModeExplicit, enabled: toSet(events)}
}

// NewSubscription builds a subscription from its persisted parts. A disabled
// set is only meaningful with all events enabled; combining it with an
// explicit enabled set is rejected.
func NewSubscription(all bool, enabled, disabled []event.Event) (Subscription, error) {
	if all {
		return AllEvents(disabled...), nil
	}
	if len(disabled) > 0 {
		return Subscription{}, fmt.Errorf("%w: disabled events require all events to be enabled", ErrInvalidChannelConfiguration)
	}
	return OnlyEvents(enabled...), nil
}

func (s Subscription) Mode() Mode { return s.mode }

// Allows reports whether ev passes the filter.
func (s Subscription) Allows(ev event.Event) bool {
	if s.mode == ModeExplicit {
		_, ok := s.enabled[ev]
		return ok
	}
	_, off := s.disabled[ev]
	return !off
}

// Enabled lists the explicit allow-list in taxonomy order. Empty in ModeAll.
func (s Subscription) Enabled() []event.Event { return ordered(s.enabled) }

// Disabled lists the deny-list in taxonomy order. Empty in ModeExplicit.
func (s Subscription) Disabled() []event.Event { return ordered(s.disabled) }

func toSet(events []event.Event) map[event.Event]struct{} {
	set := make(map[event.Event]struct{}, len(events))
	for _, ev := range events {
		if !ev.IsZero() {
			set[ev] = struct{}{}
		}
	}
	return set
}

func ordered(set map[event.Event]struct{}) []event.Event {
	if len(set) == 0 {
		return nil
	}
	out := make([]event.Event, 0, len(set))
	for _, ev := range event.Members() {
		if _, ok := set[ev]; ok {
			out = append(out, ev)
		}
	}
	return out
}
