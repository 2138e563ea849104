package dispatcher

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/fundalert/pkg/event"
	"github.com/dmitrymomot/fundalert/pkg/funding"
	"github.com/dmitrymomot/fundalert/pkg/logger"
	"github.com/dmitrymomot/fundalert/pkg/pubsub"
)

// HandleMessage dispatches the event carried by env. The event comes from
// the event attribute and the content from the message data. A message with
// an id_user attribute targets that user; otherwise public events go to
// every user. User change events only drop the user's cached copy.
func (d *Dispatcher) HandleMessage(ctx context.Context, env pubsub.Envelope) error {
	ev, err := env.Event()
	if err != nil {
		return err
	}
	userID := env.UserID()

	if ev.Content() == event.KindUser {
		if userID == "" {
			return ErrMissingUser
		}
		if d.invalidator != nil {
			d.invalidator.Invalidate(ctx, userID)
		}
		return nil
	}

	data, err := env.Payload()
	if err != nil {
		return err
	}
	content, err := funding.Decode(ev.Content(), data)
	if err != nil {
		return err
	}

	if userID != "" {
		_, err := d.Dispatch(ctx, userID, ev, content)
		return err
	}
	if !ev.IsPublic() {
		return ErrMissingUser
	}

	sum, err := d.DispatchAll(ctx, ev, content)
	d.logger.LogAttrs(ctx, slog.LevelInfo, "event dispatched",
		logger.Event(ev.Value()),
		logger.ContentID(content.ContentID()),
		slog.Int("users", sum.Users),
		slog.Int("delivered", sum.Delivered),
		slog.Int("suppressed", sum.Suppressed),
		slog.Int("failed", sum.Failed),
	)
	return err
}

// Handler adapts HandleMessage to a pubsub subscriber.
func (d *Dispatcher) Handler() pubsub.Handler {
	return d.HandleMessage
}
