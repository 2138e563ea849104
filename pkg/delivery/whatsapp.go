package delivery

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/webhook"
)

// WhatsAppClient sends a text message to an E.164 phone number.
type WhatsAppClient interface {
	SendText(ctx context.Context, phone, text string) error
}

// WhatsApp sends Payload.Text to the channel phone number.
type WhatsApp struct {
	client WhatsAppClient
}

func NewWhatsApp(c WhatsAppClient) *WhatsApp {
	return &WhatsApp{client: c}
}

func (d *WhatsApp) Deliver(ctx context.Context, cfg channel.Configuration, p Payload) error {
	c, ok := cfg.(*channel.WhatsApp)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelMismatch, cfg.Type())
	}
	if d.client == nil {
		return ErrWhatsAppNotEnabled
	}
	return d.client.SendText(ctx, c.PhoneNumber(), p.Text())
}

// CloudAPIBaseURL is the Graph API root used by CloudAPI.
const CloudAPIBaseURL = "https://graph.facebook.com/v19.0"

// CloudAPI is a WhatsAppClient over the WhatsApp Cloud API messages
// endpoint.
type CloudAPI struct {
	poster        Poster
	baseURL       string
	phoneNumberID string
	token         string
}

// NewCloudAPI sends from phoneNumberID using the bearer token. An empty
// baseURL means CloudAPIBaseURL.
func NewCloudAPI(p Poster, baseURL, phoneNumberID, token string) *CloudAPI {
	if baseURL == "" {
		baseURL = CloudAPIBaseURL
	}
	return &CloudAPI{poster: p, baseURL: baseURL, phoneNumberID: phoneNumberID, token: token}
}

type cloudMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (c *CloudAPI) SendText(ctx context.Context, phone, text string) error {
	msg := cloudMessage{MessagingProduct: "whatsapp", To: phone, Type: "text"}
	msg.Text.Body = text
	_, err := c.poster.Send(ctx, c.baseURL+"/"+c.phoneNumberID+"/messages", msg,
		webhook.WithHeader("Authorization", "Bearer "+c.token))
	return err
}
