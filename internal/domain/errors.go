package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("only the organizer can modify this event")
	// ErrStore matches every *StoreError through errors.Is.
	ErrStore = errors.New("store error")
)

// StoreError wraps a failed remote or local store call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// ValidationError is a caller-supplied field failing a local precondition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
