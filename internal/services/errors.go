package services

import (
	"errors"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrEmptyBatch = errors.New("no valid rows in upload")
	ErrNotFound   = errors.New("not found")
)

// ValidationError is returned for rejected input. Details carries per-row or
// per-field messages for display.
type ValidationError struct {
	Code    string
	Message string
	Details []string
	Err     error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = ErrValidation.Error()
	}
	if len(e.Details) > 0 {
		return msg + ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(code, message string, details ...string) *ValidationError {
	return &ValidationError{Code: code, Message: message, Details: details}
}
