package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/interfaces/http/dto"
	"github.com/erp/production/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(*gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/")
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestGetActor(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	assert.Empty(t, getActor(c))

	c.Request.Header.Set(middleware.ActorHeader, "supervisor")
	assert.Equal(t, "supervisor", getActor(c))
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		h.HandleError(c, nil)
		assert.False(t, c.Writer.Written())
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("domain error keeps code and records gin error", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Set(middleware.RequestIDKey, "req-1")

		h.HandleError(c, shared.NewDomainError(shared.CodeInvalidState, "bundle is not sealed"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp, _ := decodeResponse(t, w)
		assert.Equal(t, shared.CodeInvalidState, resp.Error.Code)
		assert.Equal(t, "bundle is not sealed", resp.Error.Message)
		assert.Equal(t, "req-1", resp.Error.RequestID)
		assert.Len(t, c.Errors, 1)
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		h.HandleError(c, shared.NewValidationError(
			shared.ValidationError{Field: "date_to", Message: "must not be before date_from"},
		))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp, _ := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "date_to", resp.Error.Details[0].Field)
	})

	t.Run("wrapped error is still recognized", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		h.HandleError(c, errors.Join(errors.New("loading bundle"), shared.ErrNotFound))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBaseHandler_BindJSON(t *testing.T) {
	type payload struct {
		Name     string `json:"name" binding:"required"`
		Quantity int64  `json:"quantity" binding:"gt=0"`
	}

	tests := []struct {
		name       string
		body       string
		ok         bool
		wantStatus int
		wantCode   string
	}{
		{"valid", `{"name":"SF-1","quantity":3}`, true, http.StatusOK, ""},
		{"empty body", ``, false, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"syntax error", `{"name":}`, false, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"type mismatch", `{"name":"SF-1","quantity":"three"}`, false, http.StatusBadRequest, shared.CodeValidationFailed},
		{"failed rule", `{"name":"SF-1","quantity":0}`, false, http.StatusBadRequest, shared.CodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			h := &BaseHandler{}
			var p payload
			ok := h.BindJSON(c, &p)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.False(t, c.Writer.Written())
				return
			}
			assert.Equal(t, tt.wantStatus, w.Code)
			resp, _ := decodeResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("body over limit", func(t *testing.T) {
		r := gin.New()
		r.Use(middleware.BodyLimit(16))
		h := &BaseHandler{}
		r.POST("/", func(c *gin.Context) {
			var p payload
			if h.BindJSON(c, &p) {
				c.Status(http.StatusNoContent)
			}
		})

		w := doJSON(t, r, http.MethodPost, "/", `{"name":"`+strings.Repeat("x", 64)+`","quantity":1}`)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestBaseHandler_ParseID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, _ := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.ParseID(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "123"}}
	_, ok = h.ParseID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToFilter(t *testing.T) {
	f := toFilter(dto.ListRequest{Page: 3, PageSize: 50, OrderBy: "updated_at", OrderDir: "asc"})
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "updated_at", f.OrderBy)
	assert.Equal(t, "asc", f.OrderDir)

	def := toFilter(dto.ListRequest{})
	assert.Equal(t, shared.DefaultFilter().Page, def.Page)
	assert.Equal(t, shared.DefaultFilter().PageSize, def.PageSize)
}

func TestParseOptionalUUID(t *testing.T) {
	got, err := parseOptionalUUID("job_order_id", "")
	assert.NoError(t, err)
	assert.Nil(t, got)

	id := uuid.New()
	got, err = parseOptionalUUID("job_order_id", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, *got)

	_, err = parseOptionalUUID("job_order_id", "nope")
	assert.True(t, shared.IsCode(err, shared.CodeValidationFailed))
}
