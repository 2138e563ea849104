package channel

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

// Record is the persisted shape of a channel configuration. Variant fields
// are empty for the other variants. A nil Enabled means enabled. A nil
// AllEvents means all events unless EnabledEvents is set.
type Record struct {
	ID             string   `json:"id" bson:"id"`
	Type           Type     `json:"type" bson:"type"`
	Enabled        *bool    `json:"enabled" bson:"enabled"`
	AllEvents      *bool    `json:"all_events" bson:"all_events"`
	EnabledEvents  []string `json:"enabled_events,omitempty" bson:"enabled_events,omitempty"`
	DisabledEvents []string `json:"disabled_events,omitempty" bson:"disabled_events,omitempty"`

	URL         string `json:"url,omitempty" bson:"url,omitempty"`
	Key         string `json:"key,omitempty" bson:"key,omitempty"`
	EventName   string `json:"event,omitempty" bson:"event,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty" bson:"phone_number,omitempty"`
}

type decoder func(r Record, opts []Option) (Configuration, error)

// decoders maps each discriminant to its validating constructor.
var decoders = map[Type]decoder{
	TypeWebhook: func(r Record, opts []Option) (Configuration, error) {
		return NewWebhook(r.URL, opts...)
	},
	TypeIFTTT: func(r Record, opts []Option) (Configuration, error) {
		return NewIFTTT(r.Key, r.EventName, opts...)
	},
	TypeWhatsApp: func(r Record, opts []Option) (Configuration, error) {
		return NewWhatsApp(r.PhoneNumber, opts...)
	},
}

// Decode validates a persisted record and builds the matching variant.
func Decode(r Record) (Configuration, error) {
	t, err := ParseType(string(r.Type))
	if err != nil {
		return nil, err
	}
	enabled, err := event.ResolveAll(r.EnabledEvents)
	if err != nil {
		return nil, invalid(fmt.Errorf("enabled_events: %w", err))
	}
	disabled, err := event.ResolveAll(r.DisabledEvents)
	if err != nil {
		return nil, invalid(fmt.Errorf("disabled_events: %w", err))
	}
	all := len(enabled) == 0
	if r.AllEvents != nil {
		all = *r.AllEvents
	}
	sub, err := NewSubscription(all, enabled, disabled)
	if err != nil {
		return nil, err
	}
	on := true
	if r.Enabled != nil {
		on = *r.Enabled
	}
	cfg, err := decoders[t](r, []Option{
		WithID(r.ID),
		WithEnabled(on),
		WithSubscription(sub),
	})
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", r.ID, err)
	}
	return cfg, nil
}

// DecodeAll decodes a persisted channel map keyed by id.
func DecodeAll(records map[string]Record) (map[string]Configuration, error) {
	out := make(map[string]Configuration, len(records))
	var errs []error
	for key, r := range records {
		if r.ID == "" {
			r.ID = key
		}
		cfg, err := Decode(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[cfg.ID()] = cfg
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
