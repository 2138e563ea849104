package notifications

import "errors"

var (
	ErrInvalidIDFormat          = errors.New("invalid notification id format")
	ErrCorruptNotificationState = errors.New("corrupt notification state")
)
