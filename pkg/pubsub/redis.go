package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/fundalert/pkg/logger"
)

// Handler processes one delivered envelope.
type Handler func(ctx context.Context, env Envelope) error

// Publisher publishes envelopes on Redis channels named after the topic.
type Publisher struct {
	client redis.UniversalClient
}

func NewPublisher(client redis.UniversalClient) *Publisher {
	return &Publisher{client: client}
}

// Publish wraps payload in an envelope and publishes it on topic. It
// returns the message id.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	env := NewEnvelope(topic, payload, attrs)
	raw, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	if err := p.client.Publish(ctx, topic, raw).Err(); err != nil {
		return "", err
	}
	return env.Message.MessageID, nil
}

// PublishJSON marshals content and publishes it.
func (p *Publisher) PublishJSON(ctx context.Context, topic string, content any, attrs map[string]string) (string, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, topic, payload, attrs)
}

// Subscriber delivers envelopes published on a topic to a Handler.
type Subscriber struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// SubscriberOption configures NewSubscriber.
type SubscriberOption func(*Subscriber)

func WithSubscriberLogger(l *slog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSubscriber(client redis.UniversalClient, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run subscribes to topic and calls h for every message until ctx is done.
// Messages are handled one at a time; handler errors and undecodable
// messages are logged and skipped. Run returns nil when ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context, topic string, h Handler) error {
	sub := s.client.Subscribe(ctx, topic)
	defer func() {
		if err := sub.Close(); err != nil {
			s.logger.WarnContext(ctx, "failed to close subscription", logger.Error(err))
		}
	}()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	s.logger.InfoContext(ctx, "subscribed", slog.String("topic", topic))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ErrSubscriberStopped
			}
			s.handle(ctx, msg, h)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, msg *redis.Message, h Handler) {
	env, err := Decode([]byte(msg.Payload))
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "dropping undecodable message",
			slog.String("topic", msg.Channel), logger.Error(err))
		return
	}
	ctx = WithEnvelope(ctx, env)
	if err := safeCall(ctx, h, env); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "message handler failed",
			slog.String("topic", msg.Channel), logger.MessageID(env.Message.MessageID), logger.Error(err))
	}
}

// safeCall runs h and returns a panic as ErrHandlerPanic.
func safeCall(ctx context.Context, h Handler, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(ctx, env)
}
