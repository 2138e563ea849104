package mongostore

import "errors"

var (
	ErrFailedToConnect   = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
	ErrEmptyURL          = errors.New("empty mongo connection URL, set MONGODB_URL")
)
