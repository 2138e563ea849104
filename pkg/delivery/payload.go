package delivery

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/notifications"
)

// Payload is what a channel receives for one notification.
type Payload struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	UserID    string          `json:"id_user"`
	ContentID int64           `json:"content_id"`
	Content   json.RawMessage `json:"content"`
	URL       string          `json:"url,omitempty"`
	Date      time.Time       `json:"date"`
}

// NewPayload renders content for ev. baseURL, when set, is used to link
// funding requests to the marketplace.
func NewPayload(userID string, ev event.Event, content event.Content, at time.Time, baseURL string) (Payload, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return Payload{}, fmt.Errorf("encode %s content: %w", ev, err)
	}
	p := Payload{
		ID:        notifications.BuildID(ev, content.ContentID()),
		Event:     ev.Value(),
		UserID:    userID,
		ContentID: content.ContentID(),
		Content:   raw,
		Date:      at.UTC(),
	}
	if fr, ok := content.(funding.Request); ok && baseURL != "" {
		p.URL = fr.URL(baseURL)
	}
	return p, nil
}

// Text is the one line human readable form used by chat channels.
func (p Payload) Text() string {
	s := fmt.Sprintf("%s #%d", p.Event, p.ContentID)
	if p.URL != "" {
		s += " " + p.URL
	}
	return s
}
