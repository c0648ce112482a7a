package normalize

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is the kind every ValidationError unwraps to.
var ErrInvalidRecord = errors.New("invalid activity record")

// ValidationError rejects a single raw record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRecord, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
