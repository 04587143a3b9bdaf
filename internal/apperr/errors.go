package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrSessionNotFound = errors.New("session not found")
)
