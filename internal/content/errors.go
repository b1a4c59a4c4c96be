package content

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument is returned when a site document cannot be loaded.
	ErrInvalidDocument = errors.New("invalid site document")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("content store closed")
	// ErrInvariant marks a consistency problem reported by Validate.
	ErrInvariant = errors.New("document invariant violated")
)

// DocumentError describes why a site document was rejected.
type DocumentError struct {
	Source string
	Reason string
	Err    error
}

func (e *DocumentError) Error() string {
	msg := "invalid site document"
	if e.Source != "" {
		msg += " " + e.Source
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DocumentError) Unwrap() error { return e.Err }

func (e *DocumentError) Is(target error) bool { return target == ErrInvalidDocument }

func withSource(err error, source string) error {
	var docErr *DocumentError
	if errors.As(err, &docErr) && docErr.Source == "" {
		docErr.Source = source
	}
	return err
}
