package dto

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/erp/production/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidationFailed, http.StatusBadRequest},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeQuantityExceeded, http.StatusUnprocessableEntity},
		{shared.CodeInvalidProcessTransition, http.StatusUnprocessableEntity},
		{shared.CodeProductionNotReady, http.StatusUnprocessableEntity},
		{shared.CodeAlreadyDispatched, http.StatusConflict},
		{shared.CodeAlreadyPacked, http.StatusConflict},
		{shared.CodeDuplicateRequest, http.StatusConflict},
		{shared.CodeStorageFailure, http.StatusBadGateway},
		{shared.CodeTransactionAborted, http.StatusConflict},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorFromDomain(t *testing.T) {
	t.Run("plain domain error", func(t *testing.T) {
		status, info := ErrorFromDomain(shared.NewDomainError(shared.CodeNotFound, "IWO not found"), "req-1")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, shared.CodeNotFound, info.Code)
		assert.Equal(t, "IWO not found", info.Message)
		assert.Equal(t, "req-1", info.RequestID)
		assert.Empty(t, info.Cause)
	})

	t.Run("validation details are copied", func(t *testing.T) {
		err := shared.NewValidationError(
			shared.ValidationError{Field: "quantity", Message: "must be positive"},
			shared.ValidationError{Field: "steps", Message: "is required"},
		)
		status, info := ErrorFromDomain(err, "")
		assert.Equal(t, http.StatusBadRequest, status)
		require.Len(t, info.Details, 2)
		assert.Equal(t, "quantity", info.Details[0].Field)
	})

	t.Run("aborted transaction takes cause status", func(t *testing.T) {
		cause := shared.NewDomainError(shared.CodeQuantityExceeded, "requested 30, remaining 10")
		status, info := ErrorFromDomain(shared.WrapTransactionAborted(cause), "req-2")
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, shared.CodeTransactionAborted, info.Code)
		assert.Equal(t, shared.CodeQuantityExceeded, info.Cause)
		assert.Contains(t, info.Message, "requested 30, remaining 10")
	})

	t.Run("aborted transaction with opaque cause", func(t *testing.T) {
		status, info := ErrorFromDomain(shared.WrapTransactionAborted(errors.New("deadlock")), "")
		assert.Equal(t, http.StatusConflict, status)
		assert.Empty(t, info.Cause)
	})

	t.Run("non domain error is hidden", func(t *testing.T) {
		status, info := ErrorFromDomain(errors.New("pq: connection refused"), "req-3")
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, shared.CodeInternal, info.Code)
		assert.NotContains(t, info.Message, "pq")
	})
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		pageSize   int
		totalPages int
	}{
		{"exact pages", 40, 20, 2},
		{"partial last page", 41, 20, 3},
		{"empty", 0, 20, 0},
		{"zero page size", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]string{}, tt.total, 1, tt.pageSize)
			assert.True(t, resp.Success)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.totalPages, resp.Meta.TotalPages)
		})
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-9", []ValidationDetail{
		{Field: "qr_id", Message: "This field is required"},
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")

	errBody := decoded["error"].(map[string]any)
	assert.Equal(t, shared.CodeValidationFailed, errBody["code"])
	assert.Equal(t, "req-9", errBody["request_id"])
	assert.Len(t, errBody["details"], 1)
	assert.NotContains(t, errBody, "cause")
}
