package channel

import "errors"

var ErrInvalidChannelConfiguration = errors.New("invalid channel configuration")
