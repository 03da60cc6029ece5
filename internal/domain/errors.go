package domain

import "errors"

var (
	// ErrNotFound is returned when a fund (or its data) does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a write collides with a uniqueness constraint
	ErrDuplicate = errors.New("already exists")

	// ErrInvalidArgument is returned for caller mistakes (bad sort field, out-of-range days, ...)
	ErrInvalidArgument = errors.New("invalid argument")
)
