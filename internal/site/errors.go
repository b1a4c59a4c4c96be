package site

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a tenant, page or record that is unknown to the store.
// An inactive tenant and a tenant key mismatch produce the same message, the
// distinction is only kept in Reason for logging.
type NotFoundError struct {
	Resource string
	Key      string
	Reason   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(resource, key, reason string) error {
	return &NotFoundError{Resource: resource, Key: key, Reason: reason}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
