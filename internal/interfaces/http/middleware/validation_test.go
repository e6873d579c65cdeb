package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sealInput struct {
	BundleID string `json:"bundle_id" binding:"required,uuid"`
	QRID     string `json:"qr_id" binding:"required,max=8"`
	Quantity int64  `json:"quantity" binding:"gt=0"`
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req sealInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("returns field-indexed errors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"bundle_id":"nope","qr_id":"QR-TOO-LONG-ID"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-v1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, shared.CodeValidationFailed, resp.Error.Code)
		assert.Equal(t, "req-v1", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid UUID format", fields["bundle_id"])
		assert.Equal(t, "Must be at most 8 characters", fields["qr_id"])
		assert.Equal(t, "Must be greater than 0", fields["quantity"])
	})

	t.Run("valid input passes", func(t *testing.T) {
		body := `{"bundle_id":"6f1c2f4e-9a51-4c2f-8f1e-3b2a6c1d9e01","qr_id":"QR-1","quantity":3}`
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type probe struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		OneOf    string `validate:"oneof=Approved Rejected"`
		GTE      int    `validate:"gte=10"`
		Base64   string `validate:"base64"`
	}

	err := validator.New().Struct(probe{Min: "ab", OneOf: "Pending", GTE: 1, Base64: "%%%"})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be one of: Approved Rejected", got["OneOf"])
	assert.Equal(t, "Must be greater than or equal to 10", got["GTE"])
	assert.Equal(t, "Must be base64 encoded", got["Base64"])
}
