// Package logger builds the *slog.Logger used across the notifier.
//
// New assembles a handler from functional options: output format, level,
// static attributes and ContextExtractor callbacks that pull request-scoped
// values (push message id, dispatch id) out of a context.Context every time a
// record is handled.
//
// Attribute helpers in attr.go keep key names consistent between packages.
// Helpers that accept optional values return an empty slog.Attr for nil input,
// which slog drops silently.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "notifier"),
//	    logger.WithContextValue("message_id", pubsub.MessageIDKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "notification delivered",
//	    logger.UserID(u.ID),
//	    logger.NotificationID(id),
//	    logger.ChannelID(ch.ID()),
//	)
package logger
