package event

import (
	"fmt"
	"regexp"

	"golang.org/x/text/cases"
)

// ContentKind names the shape of the payload an event carries.
type ContentKind string

const (
	KindFundingRequest ContentKind = "funding_request"
	KindInvestment     ContentKind = "investment"
	KindMovement       ContentKind = "movement"
	KindUser           ContentKind = "user"
)

// Content is a payload an event refers to. ContentID must be stable for the
// lifetime of the underlying object.
type Content interface {
	ContentID() int64
	ContentKind() ContentKind
}

type definition struct {
	resource  string
	state     string
	kind      ContentKind
	recurring bool
	public    bool
}

// Event is a member of the closed event taxonomy. The zero value is not a
// valid event; obtain events from the exported variables or Resolve.
// Events are comparable and safe to use as map keys.
type Event struct {
	def *definition
}

func define(resource, state string, kind ContentKind, recurring, public bool) Event {
	return Event{def: &definition{
		resource:  resource,
		state:     state,
		kind:      kind,
		recurring: recurring,
		public:    public,
	}}
}

// Value returns the canonical dotted value, e.g. "funding_request.promising".
func (e Event) Value() string {
	if e.def == nil {
		return ""
	}
	return e.def.resource + "." + e.def.state
}

func (e Event) String() string { return e.Value() }

func (e Event) Resource() string {
	if e.def == nil {
		return ""
	}
	return e.def.resource
}

func (e Event) State() string {
	if e.def == nil {
		return ""
	}
	return e.def.state
}

// Content returns the kind of payload the event refers to.
func (e Event) Content() ContentKind {
	if e.def == nil {
		return ""
	}
	return e.def.kind
}

// IsRecurring reports whether the event may fire repeatedly for the same
// content and therefore needs de-duplication.
func (e Event) IsRecurring() bool {
	return e.def != nil && e.def.recurring
}

// IsPublic reports whether the event may be forwarded to external channels
// that are not tied to a user's private data.
func (e Event) IsPublic() bool {
	return e.def != nil && e.def.public
}

func (e Event) IsZero() bool { return e.def == nil }

func (e Event) MarshalText() ([]byte, error) {
	if e.def == nil {
		return nil, ErrUnknownEvent
	}
	return []byte(e.Value()), nil
}

func (e *Event) UnmarshalText(b []byte) error {
	ev, err := Resolve(string(b))
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

var (
	valuePattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)
	// (?i) would admit Unicode folds such as U+017F for 's'.
	lookupPattern = regexp.MustCompile(`^[a-zA-Z_]+\.[a-zA-Z_]+$`)
)

// fold produces the lookup key for a value. A Caser is stateful, so a new
// one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// registry is an immutable, ordered set of events with a folded-key index.
type registry struct {
	members []Event
	index   map[string]Event
}

func newRegistry(members ...Event) *registry {
	r := &registry{
		members: members,
		index:   make(map[string]Event, len(members)),
	}
	for _, ev := range members {
		if !valuePattern.MatchString(ev.Value()) {
			panic(fmt.Sprintf("event: malformed value %q", ev.Value()))
		}
		key := fold(ev.Value())
		if _, dup := r.index[key]; dup {
			panic(fmt.Sprintf("event: duplicate value %q", ev.Value()))
		}
		r.index[key] = ev
	}
	return r
}

// resolve accepts ASCII values only; case is ignored.
func (r *registry) resolve(value string) (Event, error) {
	if !lookupPattern.MatchString(value) {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, value)
	}
	if ev, ok := r.index[fold(value)]; ok {
		return ev, nil
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, value)
}
