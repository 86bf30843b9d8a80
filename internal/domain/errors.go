package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrService      = errors.New("service reported an error")
	ErrTransport    = errors.New("transport failure")
	ErrConflict     = errors.New("uniqueness conflict")
	ErrBusy         = errors.New("request already in flight")
	ErrInvalidState = errors.New("action not allowed in current state")
)
