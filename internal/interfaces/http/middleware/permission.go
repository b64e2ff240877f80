package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/erp/leasing/internal/infrastructure/logger"
	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Privileged actions gated behind RequirePermission
const (
	PermissionVoucherUnlock = "journal_voucher:unlock"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// OnDenied replaces the default 403 response (optional)
	OnDenied func(c *gin.Context, requiredPerms []string)
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig is RequireAnyPermission with custom config
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted := GetPermissions(c)
		if !slices.ContainsFunc(permissions, func(p string) bool { return hasPermission(granted, p) }) {
			handlePermissionDenied(c, cfg, permissions, granted)
			return
		}
		c.Next()
	}
}

// RequireAllPermissions creates middleware that requires every listed permission
func RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		granted := GetPermissions(c)
		for _, p := range permissions {
			if !hasPermission(granted, p) {
				handlePermissionDenied(c, PermissionConfig{}, permissions, granted)
				return
			}
		}
		c.Next()
	}
}

// GetPermissions returns the permissions set by Tenant, or nil
func GetPermissions(c *gin.Context) []string {
	v, ok := c.Get(PermissionsKey)
	if !ok {
		return nil
	}
	perms, _ := v.([]string)
	return perms
}

// hasPermission matches exact grants, "resource:*" and "*"
func hasPermission(granted []string, required string) bool {
	resource, _, _ := strings.Cut(required, ":")
	for _, g := range granted {
		if g == required || g == "*" || g == resource+":*" {
			return true
		}
	}
	return false
}

func parsePermissions(header string) []string {
	if header == "" {
		return nil
	}
	var perms []string
	for _, p := range strings.Split(header, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	return perms
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, requiredPerms, granted []string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredPerms)
		c.Abort()
		return
	}

	logger.L(c.Request.Context()).Warn("Permission denied",
		zap.Strings("required_permissions", requiredPerms),
		zap.Strings("user_permissions", granted),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithDetails(
		dto.ErrCodeForbidden,
		"Access denied: insufficient permissions",
		GetRequestID(c),
		map[string]any{"required_permissions": requiredPerms},
	))
}
