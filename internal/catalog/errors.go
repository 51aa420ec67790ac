package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity does not exist or its identifier is malformed.
var ErrNotFound = errors.New("not found")

// BackendError reports that a lookup could not be answered because the
// store failed. Callers that only care about presence can treat it like
// ErrNotFound.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError reports whether err carries a *BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
