package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError indicates that the requested change is not allowed in the
// record's current state (e.g. role re-selection on an approved account).
// It is user-visible and not retryable with the same input.
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error {
	return &ConflictError{msg: msg}
}

func (err ConflictError) Error() string { return err.msg }

// NotFoundError indicates that the referenced record does not exist.
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{msg: msg}
}

func (err NotFoundError) Error() string { return err.msg }

// RateLimitError indicates that an anti-abuse cap was hit; the caller may
// retry later.
type RateLimitError struct {
	msg string
}

func NewRateLimitError(msg string) error {
	return &RateLimitError{msg: msg}
}

func (err RateLimitError) Error() string { return err.msg }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
