package channel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

// Type discriminates channel variants.
type Type string

const (
	TypeWebhook  Type = "WEBHOOK"
	TypeIFTTT    Type = "IFTTT"
	TypeWhatsApp Type = "WHATSAPP"
)

// ParseType resolves a channel type ignoring case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := decoders[t]; !ok {
		return "", fmt.Errorf("%w: unknown channel type %q", ErrInvalidChannelConfiguration, s)
	}
	return t, nil
}

// Configuration is a destination a user receives notifications on.
// Implemented by *Webhook, *IFTTT and *WhatsApp only.
type Configuration interface {
	ID() string
	Type() Type
	Enabled() bool
	Subscription() Subscription
	Record() Record
	sealed()
}

// EventEnabled reports whether cfg is subscribed to ev. It does not consider
// whether the channel itself is enabled.
func EventEnabled(cfg Configuration, ev event.Event) bool {
	return cfg.Subscription().Allows(ev)
}

// Active reports whether cfg is enabled and subscribed to ev.
func Active(cfg Configuration, ev event.Event) bool {
	return cfg.Enabled() && EventEnabled(cfg, ev)
}

// Option configures the fields every channel shares.
type Option func(*base)

func WithID(id string) Option {
	return func(b *base) { b.id = id }
}

func WithEnabled(enabled bool) Option {
	return func(b *base) { b.enabled = enabled }
}

// WithSubscription replaces the default all-events subscription.
func WithSubscription(s Subscription) Option {
	return func(b *base) { b.subscription = s }
}

// WithEnabledEvents restricts the channel to the given events.
func WithEnabledEvents(events ...event.Event) Option {
	return func(b *base) {
		b.subscription = OnlyEvents(events...)
		b.explicit = true
	}
}

// WithDisabledEvents excludes events from an all-events subscription.
// Combined with WithEnabledEvents the constructor fails.
func WithDisabledEvents(events ...event.Event) Option {
	return func(b *base) { b.disabled = append(b.disabled, events...) }
}

type base struct {
	id           string
	enabled      bool
	subscription Subscription
	explicit     bool
	disabled     []event.Event
}

func newBase(opts []Option) (base, error) {
	b := base{enabled: true, subscription: AllEvents()}
	for _, opt := range opts {
		opt(&b)
	}
	if b.id == "" {
		b.id = uuid.NewString()
	}
	if len(b.disabled) > 0 {
		if b.explicit || b.subscription.Mode() == ModeExplicit {
			return base{}, fmt.Errorf("%w: disabled events require all events to be enabled", ErrInvalidChannelConfiguration)
		}
		b.subscription = AllEvents(append(b.subscription.Disabled(), b.disabled...)...)
	}
	return b, nil
}

func (b *base) ID() string                 { return b.id }
func (b *base) Enabled() bool              { return b.enabled }
func (b *base) Subscription() Subscription { return b.subscription }
func (b *base) sealed()                    {}

// SetEnabled toggles delivery on the channel.
func (b *base) SetEnabled(enabled bool) { b.enabled = enabled }

func (b *base) record(t Type) Record {
	enabled, all := b.enabled, b.subscription.Mode() == ModeAll
	r := Record{
		ID:        b.id,
		Type:      t,
		Enabled:   &enabled,
		AllEvents: &all,
	}
	r.EnabledEvents = values(b.subscription.Enabled())
	r.DisabledEvents = values(b.subscription.Disabled())
	return r
}

func values(events []event.Event) []string {
	if len(events) == 0 {
		return nil
	}
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Value()
	}
	return out
}

func invalid(err error) error {
	return errors.Join(ErrInvalidChannelConfiguration, err)
}
