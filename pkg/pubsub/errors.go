package pubsub

import "errors"

var (
	ErrNotEnvelope       = errors.New("body is not a push envelope")
	ErrInvalidPayload    = errors.New("envelope data is not valid base64")
	ErrMissingAttribute  = errors.New("envelope attribute missing")
	ErrSubscriberStopped = errors.New("subscriber channel closed")
	ErrHandlerPanic      = errors.New("message handler panicked")
)
