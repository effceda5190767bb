package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoCredentials = errors.New("no storage configured")
)
