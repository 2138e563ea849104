package user

import "errors"

var (
	ErrInvalidUser          = errors.New("invalid user")
	ErrDuplicateFilter      = errors.New("an equal filter already exists")
	ErrFilterNotFound       = errors.New("filter not found")
	ErrChannelNotFound      = errors.New("channel not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
