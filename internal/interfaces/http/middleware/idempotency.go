package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/infrastructure/logger"
	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	// IdempotencyReleaseKey lets a handler ask for the key to be forgotten
	// after a non-final outcome, such as an unconfirmed partial allocation.
	IdempotencyReleaseKey = "idempotency_release"

	maxIdempotencyKeyLength = 200
)

// Idempotency rejects a repeated Idempotency-Key for the same tenant and route
// within ttl with 409 DUPLICATE_REQUEST. Requests without the header pass through.
// Keys are released when the request fails so the client can retry.
// If the store is unreachable the request proceeds; optimistic locking still
// prevents a document from being applied twice.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortBadRequest(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyStoreKey(c, key)
		fresh, err := store.MarkProcessed(ctx, storeKey, ttl)
		if err != nil {
			logger.L(ctx).Warn("idempotency store unavailable, continuing without it",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithDetails(
				dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed",
				GetRequestID(c),
				map[string]any{"idempotency_key": key},
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest || c.GetBool(IdempotencyReleaseKey) {
			// The request context may already be cancelled by the client
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := store.Release(releaseCtx, storeKey); err != nil {
				logger.L(ctx).Warn("failed to release idempotency key",
					zap.String("idempotency_key", key),
					zap.Error(err),
				)
			}
		}
	}
}

func idempotencyStoreKey(c *gin.Context, key string) string {
	return c.GetString(TenantIDKey) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}
