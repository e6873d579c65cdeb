package middleware

import (
	"net/http"
	"time"

	"github.com/erp/production/internal/domain/shared"
	"github.com/erp/production/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxIdempotencyKeyLength bounds the accepted Idempotency-Key header
const MaxIdempotencyKeyLength = 128

// Idempotency rejects a replayed request carrying an Idempotency-Key that was
// already accepted for the same route within ttl. The key is released again
// when the request fails, so a client may retry after an error. Requests
// without the header pass through. A store failure is logged and the request
// proceeds.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if store == nil {
		return passThrough
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
				"Request validation failed",
				getRequestIDFromContext(c),
				[]dto.ValidationDetail{{Field: IdempotencyKeyHeader, Message: "Must be at most 128 characters"}},
			))
			return
		}

		ctx := c.Request.Context()
		scoped := c.Request.Method + " " + c.FullPath() + " " + key

		fresh, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			logger.Warn("Idempotency store unavailable, processing request anyway",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				shared.CodeDuplicateRequest,
				shared.ErrDuplicateRequest.Message,
				getRequestIDFromContext(c),
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, scoped); err != nil {
				logger.Warn("Failed to release idempotency key",
					zap.String("idempotency_key", key),
					zap.Error(err),
				)
			}
		}
	}
}
