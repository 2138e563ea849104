package pubsub

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fundalert/pkg/event"
)

// Attribute names set by publishers.
const (
	AttrUserID = "id_user"
	AttrEvent  = "event"
)

// Message is the wrapped message of a push envelope. Data holds the
// base64 encoded payload.
type Message struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId"`
	PublishTime string            `json:"publish_time,omitempty"`
}

// UnmarshalJSON accepts both the camel and snake case spellings of the
// message id and publish time.
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data             string            `json:"data"`
		Attributes       map[string]string `json:"attributes"`
		MessageID        string            `json:"messageId"`
		MessageIDSnake   string            `json:"message_id"`
		PublishTime      string            `json:"publish_time"`
		PublishTimeCamel string            `json:"publishTime"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = Message{
		Data:        raw.Data,
		Attributes:  raw.Attributes,
		MessageID:   raw.MessageID,
		PublishTime: raw.PublishTime,
	}
	if m.MessageID == "" {
		m.MessageID = raw.MessageIDSnake
	}
	if m.PublishTime == "" {
		m.PublishTime = raw.PublishTimeCamel
	}
	return nil
}

// Envelope is a message pushed to the service together with the
// subscription it was delivered through.
type Envelope struct {
	Message      Message `json:"message"`
	Subscription string  `json:"subscription"`
}

// NewEnvelope wraps payload for subscription with a fresh message id.
func NewEnvelope(subscription string, payload []byte, attrs map[string]string) Envelope {
	return Envelope{
		Message: Message{
			Data:        base64.StdEncoding.EncodeToString(payload),
			Attributes:  attrs,
			MessageID:   uuid.NewString(),
			PublishTime: time.Now().UTC().Format(time.RFC3339Nano),
		},
		Subscription: subscription,
	}
}

// Decode parses body as an envelope. Anything that is not JSON or lacks the
// message data, message id or subscription reports ErrNotEnvelope.
func Decode(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, errors.Join(ErrNotEnvelope, err)
	}
	if env.Message.Data == "" || env.Message.MessageID == "" || env.Subscription == "" {
		return Envelope{}, ErrNotEnvelope
	}
	return env, nil
}

// Payload returns the decoded message data.
func (e Envelope) Payload() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(e.Message.Data)
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return b, nil
}

// Attribute returns the named attribute or "".
func (e Envelope) Attribute(name string) string {
	return e.Message.Attributes[name]
}

// UserID is the id_user attribute, empty for broadcast events.
func (e Envelope) UserID() string {
	return e.Attribute(AttrUserID)
}

// Event resolves the event attribute.
func (e Envelope) Event() (event.Event, error) {
	v := e.Attribute(AttrEvent)
	if v == "" {
		return event.Event{}, fmt.Errorf("%w: %s", ErrMissingAttribute, AttrEvent)
	}
	return event.Resolve(v)
}

// PublishedAt parses the publish time. The zero time is returned when it is
// missing or unreadable.
func (e Envelope) PublishedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Message.PublishTime)
	if err != nil {
		return time.Time{}
	}
	return t
}
