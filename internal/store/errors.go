package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned by backends that enforce uniqueness or
// no-overlap rules at write time.
var ErrConflict = errors.New("conflicting record")

// StatusError reports a non-success HTTP status from the data store.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("data store %s %s: unexpected status %d", e.Method, e.Path, e.Code)
}
