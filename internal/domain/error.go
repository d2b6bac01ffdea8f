package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("record not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAIUnavailable   = errors.New("inference unavailable")
	ErrStorage         = errors.New("storage failure")
)
