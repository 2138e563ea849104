package channel

import (
	"github.com/dmitrymomot/fundalert/pkg/validator"
)

// MaxWebhookURLLength bounds the stored webhook URL.
const MaxWebhookURLLength = 2000

// Webhook posts notifications as signed JSON to a user-owned https endpoint.
type Webhook struct {
	base
	url string
}

// NewWebhook validates url and builds a webhook channel.
func NewWebhook(url string, opts ...Option) (*Webhook, error) {
	if err := validator.Apply(
		validator.HTTPSURL("url", url),
		validator.PublicHost("url", url),
		validator.MaxLen("url", url, MaxWebhookURLLength),
	); err != nil {
		return nil, invalid(err)
	}
	b, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	return &Webhook{base: b, url: url}, nil
}

func (w *Webhook) Type() Type  { return TypeWebhook }
func (w *Webhook) URL() string { return w.url }
func (w *Webhook) Record() Record {
	r := w.record(TypeWebhook)
	r.URL = w.url
	return r
}

// IFTTT triggers an IFTTT maker applet.
type IFTTT struct {
	base
	key       string
	eventName string
}

// NewIFTTT validates the maker key and applet event name. Both may contain
// '-' and '_' besides letters and digits.
func NewIFTTT(key, eventName string, opts ...Option) (*IFTTT, error) {
	if err := validator.Apply(
		validator.Alphanumeric("key", key, "-_"),
		validator.Alphanumeric("event", eventName, "-_"),
	); err != nil {
		return nil, invalid(err)
	}
	b, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	return &IFTTT{base: b, key: key, eventName: eventName}, nil
}

func (c *IFTTT) Type() Type        { return TypeIFTTT }
func (c *IFTTT) Key() string       { return c.key }
func (c *IFTTT) EventName() string { return c.eventName }
func (c *IFTTT) Record() Record {
	r := c.record(TypeIFTTT)
	r.Key = c.key
	r.EventName = c.eventName
	return r
}

// WhatsApp sends template messages to a phone number.
type WhatsApp struct {
	base
	phoneNumber string
}

// NewWhatsApp validates phone as E.164 and builds a WhatsApp channel.
func NewWhatsApp(phone string, opts ...Option) (*WhatsApp, error) {
	if err := validator.Apply(validator.E164Phone("phone_number", phone)); err != nil {
		return nil, invalid(err)
	}
	b, err := newBase(opts)
	if err != nil {
		return nil, err
	}
	return &WhatsApp{base: b, phoneNumber: phone}, nil
}

func (c *WhatsApp) Type() Type          { return TypeWhatsApp }
func (c *WhatsApp) PhoneNumber() string { return c.phoneNumber }
func (c *WhatsApp) Record() Record {
	r := c.record(TypeWhatsApp)
	r.PhoneNumber = c.phoneNumber
	return r
}
