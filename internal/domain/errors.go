package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrProgramNotFound signals a missing program.
	ErrProgramNotFound = errors.New("program not found")
	// ErrChatNotFound signals a missing chat session.
	ErrChatNotFound = errors.New("chat not found")
	// ErrEmailNotFound signals a missing email log record.
	ErrEmailNotFound = errors.New("email not found")
	// ErrProgramExists signals a create with an id that is already taken.
	ErrProgramExists = errors.New("program already exists")
	// ErrInvalidArgument signals a request that failed validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrResponderError signals a generative responder failure.
	ErrResponderError = errors.New("responder error")
	// ErrScrapeFailed signals that a program page could not be fetched or parsed.
	ErrScrapeFailed = errors.New("scrape failed")
	// ErrDeliveryFailed signals that an email provider rejected or dropped a message.
	ErrDeliveryFailed = errors.New("email delivery failed")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// ValidationError wraps ErrInvalidArgument with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidArgument.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
