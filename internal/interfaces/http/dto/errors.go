package dto

import (
	"errors"
	"net/http"

	"github.com/erp/production/internal/domain/shared"
)

// Request-level error codes raised by the transport before a service runs
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeRouteNotFound is used for unknown routes
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input errors -> 400 Bad Request
	shared.CodeValidationFailed: http.StatusBadRequest,
	ErrCodeBadRequest:           http.StatusBadRequest,
	ErrCodeInvalidJSON:          http.StatusBadRequest,
	ErrCodeRequestTooLarge:      http.StatusRequestEntityTooLarge,

	// Resource errors
	shared.CodeNotFound:         http.StatusNotFound,
	ErrCodeRouteNotFound:        http.StatusNotFound,
	shared.CodeConflict:         http.StatusConflict,
	shared.CodeDuplicateRequest: http.StatusConflict,

	// Pipeline rule errors -> 422 Unprocessable Entity
	shared.CodeQuantityExceeded:         http.StatusUnprocessableEntity,
	shared.CodeInvalidProcessTransition: http.StatusUnprocessableEntity,
	shared.CodeProductionNotReady:       http.StatusUnprocessableEntity,
	shared.CodeInvalidState:             http.StatusUnprocessableEntity,

	// Stage already passed -> 409 Conflict
	shared.CodeAlreadyDispatched: http.StatusConflict,
	shared.CodeAlreadyPacked:     http.StatusConflict,

	// Document store unavailable -> 502 Bad Gateway
	shared.CodeStorageFailure: http.StatusBadGateway,

	// TRANSACTION_ABORTED without a known cause
	shared.CodeTransactionAborted: http.StatusConflict,

	shared.CodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorFromDomain builds the response status and error body for err.
// A TRANSACTION_ABORTED error takes the status of its cause and reports
// the cause code in the body. Errors that are not domain errors become
// a generic 500 so internal messages never leak.
func ErrorFromDomain(err error, requestID string) (int, *ErrorInfo) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, &ErrorInfo{
			Code:      shared.CodeInternal,
			Message:   "An unexpected error occurred",
			RequestID: requestID,
		}
	}

	info := &ErrorInfo{
		Code:      de.Code,
		Message:   de.Message,
		RequestID: requestID,
		Details:   toValidationDetails(de.Details),
	}
	status := GetHTTPStatus(de.Code)
	if de.Code == shared.CodeTransactionAborted {
		if cause := de.Cause(); cause != nil {
			info.Cause = cause.Code
			status = GetHTTPStatus(cause.Code)
			if info.Details == nil {
				info.Details = toValidationDetails(cause.Details)
			}
		}
	}
	return status, info
}

func toValidationDetails(in []shared.ValidationError) []ValidationDetail {
	if len(in) == 0 {
		return nil
	}
	out := make([]ValidationDetail, len(in))
	for i, d := range in {
		out[i] = ValidationDetail{Field: d.Field, Message: d.Message}
	}
	return out
}
