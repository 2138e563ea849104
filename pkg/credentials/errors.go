package credentials

import "errors"

var ErrInvalidCredentials = errors.New("invalid credentials")
