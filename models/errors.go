package models

import (
	"errors"
	"fmt"
)

var ErrBadRequest = errors.New("bad request")
var ErrUnautorized = errors.New("unauthorized")
var ErrForbidden = errors.New("forbidden")
var ErrServerError = errors.New("server error")
var ErrNotFoundError = errors.New("not found")
var ErrNotAllowed = errors.New("not acceptable")
var ErrConflict = errors.New("conflict")
var ErrTooManyRequests = errors.New("too many requests")
var ErrUpstream = errors.New("upstream error")

// Order pipeline stages. All of them are server errors for the client; the
// underlying store cause is logged where it happens.
var (
	ErrCustomerWrite = fmt.Errorf("failed to create customer: %w", ErrServerError)
	ErrOrderWrite    = fmt.Errorf("failed to create order: %w", ErrServerError)
	ErrItemWrite     = fmt.Errorf("failed to create order items: %w", ErrServerError)
	ErrCompensation  = fmt.Errorf("failed to roll back order: %w", ErrServerError)
)

// ValidationError is a client-correctable input error bound to one field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrBadRequest
}

// ConflictError carries the message shown to the client for a 409.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// UpstreamError wraps a failure of a third-party API call.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}
