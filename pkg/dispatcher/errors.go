package dispatcher

import "errors"

var (
	ErrAllDeliveriesFailed = errors.New("every channel failed to deliver")
	ErrMissingUser         = errors.New("private event without a target user")
	ErrClaimFailed         = errors.New("notification could not be claimed")
	ErrInvalidContent      = errors.New("content cannot be dispatched")
)
