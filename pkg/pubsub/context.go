package pubsub

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/fundalert/pkg/logger"
)

type contextKey struct{}

func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext returns the envelope stored by Middleware.
func FromContext(ctx context.Context) (Envelope, bool) {
	if ctx == nil {
		return Envelope{}, false
	}
	env, ok := ctx.Value(contextKey{}).(Envelope)
	return env, ok
}

// LoggerExtractor adds the message id of the envelope in ctx to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if env, ok := FromContext(ctx); ok {
			return logger.MessageID(env.Message.MessageID), true
		}
		return slog.Attr{}, false
	}
}
