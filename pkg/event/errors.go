package event

import "errors"

var ErrUnknownEvent = errors.New("unknown event")
