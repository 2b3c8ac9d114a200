package mongo

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("mongo: empty connection URL, set MONGODB_URL")
	ErrInvalidURL         = errors.New("mongo: invalid connection URL")
	ErrNotReady           = errors.New("mongo: server did not answer in time")
	ErrHealthcheckFailed  = errors.New("mongo: healthcheck failed")
)
