package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/leasing/internal/infrastructure/logger"
	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Tenant and acting-user identification
const (
	TenantIDKey       = "tenant_id"
	UserIDKey         = "user_id"
	PermissionsKey    = "user_permissions"
	TenantHeader      = "X-Tenant-ID"
	UserHeader        = "X-User-ID"
	PermissionsHeader = "X-User-Permissions"
)

// TenantConfig holds configuration for the tenant middleware
type TenantConfig struct {
	// SkipPaths do not require a tenant (health checks)
	SkipPaths []string
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/api/v1/health"},
	}
}

// Tenant requires a UUID X-Tenant-ID header and accepts an optional UUID X-User-ID.
// Both are stored in the gin context and on the request-scoped logger.
// The gateway's comma-separated X-User-Permissions list is stored for RequirePermission.
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID, err := uuid.Parse(c.GetHeader(TenantHeader))
		if err != nil || tenantID == uuid.Nil {
			abortBadRequest(c, dto.ErrCodeMissingTenant, "A valid X-Tenant-ID header is required")
			return
		}

		ctx := c.Request.Context()
		ctx, log := logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID.String())
		c.Set(TenantIDKey, tenantID.String())

		if raw := c.GetHeader(UserHeader); raw != "" {
			userID, err := uuid.Parse(raw)
			if err != nil {
				abortBadRequest(c, dto.ErrCodeInvalidID, "X-User-ID must be a UUID")
				return
			}
			ctx, _ = logger.WithUserID(ctx, log, userID.String())
			c.Set(UserIDKey, userID.String())
		}

		c.Set(PermissionsKey, parsePermissions(c.GetHeader(PermissionsHeader)))

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantID returns the tenant set by Tenant, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString(TenantIDKey))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetUserID returns the acting user set by Tenant, or uuid.Nil when absent
func GetUserID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString(UserIDKey))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func abortBadRequest(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(code, message, GetRequestID(c)))
}
