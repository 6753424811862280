package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrWriteConflict    = errors.New("write conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationReason names the authorization or format rule a request failed.
type ValidationReason string

const (
	ReasonBanned               ValidationReason = "banned"
	ReasonBadTitle             ValidationReason = "bad_title"
	ReasonUnauthorizedAction   ValidationReason = "unauthorized_action"
	ReasonNoDomains            ValidationReason = "no_domains"
	ReasonUnauthorizedWildcard ValidationReason = "unauthorized_wildcard"
	ReasonMalformed            ValidationReason = "malformed"
)

// ValidationError is a terminal rejection of a request. It is never retried.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

// NewValidationError builds a ValidationError with a formatted detail.
func NewValidationError(reason ValidationReason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// WriteConflictError reports that a list file changed between read and write.
// It is transient: the request stays open and is retried on the next run.
type WriteConflictError struct {
	Path     string
	Expected Version
	Actual   Version
}

func (e *WriteConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("write conflict on %s: expected version %q, found %q", e.Path, e.Expected, e.Actual)
}

func (e *WriteConflictError) Is(target error) bool { return target == ErrWriteConflict }

// StoreUnavailableError wraps a transport or I/O failure of the list store.
type StoreUnavailableError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreUnavailableError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("store %s %s: unavailable", e.Op, e.Path)
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *StoreUnavailableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// IsTransient reports whether err leaves the request retryable on a later run.
func IsTransient(err error) bool {
	return errors.Is(err, ErrWriteConflict) || errors.Is(err, ErrStoreUnavailable)
}
