// Package errors defines the error taxonomy shared by the core and
// its ports. Callers retry transient errors with bounded backoff and
// surface everything else.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = fmt.Errorf("not found")
	ErrNotMember   = fmt.Errorf("sender is not a member of the group")
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)

// transientError marks a port failure as temporary. The core never
// retries by itself; the caller of the port owns the retry policy.
type transientError struct {
	err error
}

func (t transientError) Error() string { return fmt.Sprintf("transient: %v", t.err) }
func (t transientError) Unwrap() error { return t.err }

// Transient wraps err as a temporary failure.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsTransient reports whether err (or anything it wraps) was marked
// transient by a port implementation.
func IsTransient(err error) bool {
	var t transientError
	return errors.As(err, &t)
}
