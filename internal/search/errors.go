package search

import "errors"

// Search errors.
var (
	// ErrEmptyPattern is returned when compiling an empty pattern.
	ErrEmptyPattern = errors.New("empty search pattern")

	// ErrInvalidPattern wraps a regular expression compile failure.
	ErrInvalidPattern = errors.New("invalid search pattern")
)
