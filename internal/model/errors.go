package model

import "errors"

// Errors returned by snapshot mutations. Callers match them with errors.Is;
// the wrapped message carries the detail shown to the actor.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidOperation = errors.New("invalid operation")
)
