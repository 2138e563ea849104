package delivery

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/webhook"
)

// Poster is the part of webhook.Sender used here.
type Poster interface {
	Send(ctx context.Context, target string, data any, opts ...webhook.SendOption) (webhook.Result, error)
}

// Webhook posts the payload as JSON to the channel URL.
type Webhook struct {
	poster Poster
}

func NewWebhook(p Poster) *Webhook {
	return &Webhook{poster: p}
}

func (d *Webhook) Deliver(ctx context.Context, cfg channel.Configuration, p Payload) error {
	hook, ok := cfg.(*channel.Webhook)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelMismatch, cfg.Type())
	}
	_, err := d.poster.Send(ctx, hook.URL(), p, webhook.WithDeliveryID(p.ID))
	return err
}

// IFTTTBaseURL is the maker webhooks endpoint.
const IFTTTBaseURL = "https://maker.ifttt.com"

// IFTTT triggers a maker applet. value1 carries the event, value2 the
// content id and value3 the marketplace link or the raw content.
type IFTTT struct {
	poster  Poster
	baseURL string
}

// NewIFTTT uses IFTTTBaseURL when baseURL is empty.
func NewIFTTT(p Poster, baseURL string) *IFTTT {
	if baseURL == "" {
		baseURL = IFTTTBaseURL
	}
	return &IFTTT{poster: p, baseURL: baseURL}
}

type iftttBody struct {
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
	Value3 string `json:"value3"`
}

// TriggerURL returns the maker URL for an applet event and key.
func (d *IFTTT) TriggerURL(eventName, key string) string {
	return fmt.Sprintf("%s/trigger/%s/with/key/%s", d.baseURL, url.PathEscape(eventName), url.PathEscape(key))
}

func (d *IFTTT) Deliver(ctx context.Context, cfg channel.Configuration, p Payload) error {
	c, ok := cfg.(*channel.IFTTT)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelMismatch, cfg.Type())
	}
	body := iftttBody{
		Value1: p.Event,
		Value2: fmt.Sprint(p.ContentID),
		Value3: p.URL,
	}
	if body.Value3 == "" {
		body.Value3 = string(p.Content)
	}
	_, err := d.poster.Send(ctx, d.TriggerURL(c.EventName(), c.Key()), body)
	return err
}
