package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func permissionRouter(gate gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Tenant(DefaultTenantConfig()))
	router.POST("/api/v1/journal-vouchers/:id/reset", gate, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"permissions": GetPermissions(c)})
	})
	return router
}

func doPermissionRequest(router *gin.Engine, permissions string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/journal-vouchers/"+uuid.NewString()+"/reset", nil)
	req.Header.Set(TenantHeader, uuid.NewString())
	if permissions != "" {
		req.Header.Set(PermissionsHeader, permissions)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name        string
		permissions string
		wantStatus  int
	}{
		{"exact grant", PermissionVoucherUnlock, http.StatusOK},
		{"grant among others", "journal_voucher:read , journal_voucher:unlock", http.StatusOK},
		{"resource wildcard", "journal_voucher:*", http.StatusOK},
		{"global wildcard", "*", http.StatusOK},
		{"no header", "", http.StatusForbidden},
		{"other actions only", "journal_voucher:read,journal_voucher:approve", http.StatusForbidden},
		{"other resource wildcard", "receipt:*", http.StatusForbidden},
		{"prefix is not a grant", "journal_voucher:unlock_all", http.StatusForbidden},
	}

	router := permissionRouter(RequirePermission(PermissionVoucherUnlock))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doPermissionRequest(router, tt.permissions)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRequirePermission_DeniedResponse(t *testing.T) {
	rec := doPermissionRequest(permissionRouter(RequirePermission(PermissionVoucherUnlock)), "journal_voucher:read")

	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
	assert.Equal(t, []any{PermissionVoucherUnlock}, resp.Error.Details["required_permissions"])
}

func TestRequireAllPermissions(t *testing.T) {
	router := permissionRouter(RequireAllPermissions("journal_voucher:approve", PermissionVoucherUnlock))

	assert.Equal(t, http.StatusForbidden, doPermissionRequest(router, PermissionVoucherUnlock).Code)
	assert.Equal(t, http.StatusOK,
		doPermissionRequest(router, "journal_voucher:approve,"+PermissionVoucherUnlock).Code)
}

func TestRequireAnyPermissionWithConfig_OnDenied(t *testing.T) {
	var denied []string
	gate := RequireAnyPermissionWithConfig(PermissionConfig{
		OnDenied: func(c *gin.Context, required []string) {
			denied = required
			c.JSON(http.StatusUnauthorized, gin.H{"denied": true})
		},
	}, PermissionVoucherUnlock)

	rec := doPermissionRequest(permissionRouter(gate), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, []string{PermissionVoucherUnlock}, denied)
	assert.NotContains(t, rec.Body.String(), "permissions")
}

func TestGetPermissions_ParsesHeader(t *testing.T) {
	rec := doPermissionRequest(permissionRouter(RequirePermission("*")), "*, receipt:read ,,")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"*", "receipt:read"}, body.Permissions)
}
