package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every pipeline stage
const (
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeNotFound                 = "NOT_FOUND"
	CodeQuantityExceeded         = "QUANTITY_EXCEEDED"
	CodeInvalidProcessTransition = "INVALID_PROCESS_TRANSITION"
	CodeAlreadyDispatched        = "ALREADY_DISPATCHED"
	CodeAlreadyPacked            = "ALREADY_PACKED"
	CodeProductionNotReady       = "PRODUCTION_NOT_READY"
	CodeStorageFailure           = "STORAGE_FAILURE"
	CodeTransactionAborted       = "TRANSACTION_ABORTED"
	CodeInvalidState             = "INVALID_STATE"
	CodeConflict                 = "CONFLICT"
	CodeDuplicateRequest         = "DUPLICATE_REQUEST"
	CodeInternal                 = "INTERNAL_ERROR"
)

// ValidationError describes a single invalid input field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Cause returns the underlying domain error of a wrapping error such as
// TRANSACTION_ABORTED. It returns nil when there is none.
func (e *DomainError) Cause() *DomainError {
	var inner *DomainError
	if e.cause != nil && errors.As(e.cause, &inner) {
		return inner
	}
	return nil
}

// Is matches domain errors by code so sentinel values work with errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// NewValidationError creates a VALIDATION_FAILED error carrying per-field details
func NewValidationError(details ...ValidationError) *DomainError {
	msg := "Validation failed"
	if len(details) == 1 {
		msg = fmt.Sprintf("Validation failed: %s %s", details[0].Field, details[0].Message)
	}
	return &DomainError{
		Code:    CodeValidationFailed,
		Message: msg,
		Details: details,
	}
}

// NewStorageError wraps a document storage failure
func NewStorageError(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodeStorageFailure,
		Message: fmt.Sprintf("Document storage %s failed: %v", op, err),
		cause:   err,
	}
}

// WrapTransactionAborted reports that a multi-write operation was rolled back
// because of err. A nil err yields nil. An error that is already
// TRANSACTION_ABORTED is returned unchanged.
func WrapTransactionAborted(err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) && de.Code == CodeTransactionAborted {
		return err
	}
	return &DomainError{
		Code:    CodeTransactionAborted,
		Message: fmt.Sprintf("Transaction aborted: %s", err.Error()),
		cause:   err,
	}
}

// IsCode reports whether err is a domain error with the given code.
// A TRANSACTION_ABORTED error also matches the code of its cause.
func IsCode(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	if de.Code == code {
		return true
	}
	if inner := de.Cause(); inner != nil {
		return inner.Code == code
	}
	return false
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput      = NewDomainError(CodeValidationFailed, "Invalid input provided")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConflict          = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrDuplicateRequest  = NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already processed")
	ErrAlreadyDispatched = NewDomainError(CodeAlreadyDispatched, "Bundle has already been dispatched")
	ErrAlreadyPacked     = NewDomainError(CodeAlreadyPacked, "Bundle has already been packed")
)
