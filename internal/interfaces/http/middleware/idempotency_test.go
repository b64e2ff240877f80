package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}
func (failingStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Release(context.Context, string) error             { return nil }
func (failingStore) Close() error                                      { return nil }

func idempotentRouter(t *testing.T, store shared.IdempotencyStore, status *int, calls *int) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(RequestID(), Tenant(DefaultTenantConfig()))
	router.POST("/api/v1/receipts/:id/commit", Idempotency(store, time.Hour), func(c *gin.Context) {
		*calls++
		if *status == http.StatusAccepted {
			c.Set(IdempotencyReleaseKey, true)
			c.Status(http.StatusOK)
			return
		}
		c.Status(*status)
	})
	return router
}

func postCommit(router *gin.Engine, tenantID uuid.UUID, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set(TenantHeader, tenantID.String())
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	tenantID := uuid.New()
	path := "/api/v1/receipts/" + uuid.NewString() + "/commit"

	t.Run("duplicate key is rejected", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusOK, 0
		router := idempotentRouter(t, store, &status, &calls)

		first := postCommit(router, tenantID, path, "key-1")
		second := postCommit(router, tenantID, path, "key-1")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Contains(t, second.Body.String(), "DUPLICATE_REQUEST")
		assert.Contains(t, second.Body.String(), `"idempotency_key":"key-1"`)
		assert.Equal(t, 1, calls)
	})

	t.Run("keys are scoped per tenant and path", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusOK, 0
		router := idempotentRouter(t, store, &status, &calls)

		assert.Equal(t, http.StatusOK, postCommit(router, tenantID, path, "key-2").Code)
		assert.Equal(t, http.StatusOK, postCommit(router, uuid.New(), path, "key-2").Code)
		other := "/api/v1/receipts/" + uuid.NewString() + "/commit"
		assert.Equal(t, http.StatusOK, postCommit(router, tenantID, other, "key-2").Code)
		assert.Equal(t, 3, calls)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusUnprocessableEntity, 0
		router := idempotentRouter(t, store, &status, &calls)

		assert.Equal(t, http.StatusUnprocessableEntity, postCommit(router, tenantID, path, "key-3").Code)
		status = http.StatusOK
		assert.Equal(t, http.StatusOK, postCommit(router, tenantID, path, "key-3").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("handler can release a non-final outcome", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusAccepted, 0
		router := idempotentRouter(t, store, &status, &calls)

		postCommit(router, tenantID, path, "key-4")
		status = http.StatusOK
		assert.Equal(t, http.StatusOK, postCommit(router, tenantID, path, "key-4").Code)

		processed, err := store.IsProcessed(context.Background(), tenantID.String()+":POST:"+path+":key-4")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("no header passes through", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		status, calls := http.StatusOK, 0
		router := idempotentRouter(t, store, &status, &calls)

		postCommit(router, tenantID, path, "")
		postCommit(router, tenantID, path, "")
		assert.Equal(t, 2, calls)
	})

	t.Run("store outage does not block the request", func(t *testing.T) {
		status, calls := http.StatusOK, 0
		router := idempotentRouter(t, failingStore{}, &status, &calls)

		assert.Equal(t, http.StatusOK, postCommit(router, tenantID, path, "key-5").Code)
		assert.Equal(t, 1, calls)
	})
}
