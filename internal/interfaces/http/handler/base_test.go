package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/erp/leasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.RequestIDKey, "req-1")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestBaseHandler_SuccessResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("success", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/", nil)
		h.Success(c, gin.H{"id": "x"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeResponse(t, w).Success)
	})

	t.Run("created", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", nil)
		h.Created(c, gin.H{"id": "x"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("with meta", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/", nil)
		h.SuccessWithMeta(c, []string{"a"}, 41, 2, 20)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(41), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("no content", func(t *testing.T) {
		c, w := newTestContext(http.MethodDelete, "/", nil)
		h.NoContent(c)
		c.Writer.WriteHeaderNow()
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandler_HandleError(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"not found", shared.NewNotFoundError("receipt", id), http.StatusNotFound, shared.CodeNotFound},
		{
			"wrapped conflict",
			fmt.Errorf("save: %w", shared.NewDomainError(shared.CodeConcurrentModification, "stale")),
			http.StatusConflict, shared.CodeConcurrentModification,
		},
		{
			"over allocated",
			shared.NewValidationError(shared.CodeOverAllocated, "too much"),
			http.StatusUnprocessableEntity, shared.CodeOverAllocated,
		},
		{
			"invalid state",
			shared.NewStateError(shared.CodeInvalidState, "not draft"),
			http.StatusConflict, shared.CodeInvalidState,
		},
		{"plain error", errors.New("pq: connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(http.MethodGet, "/", nil)
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.NotNil(t, resp.Error.Details)
			assert.NotContains(t, resp.Error.Message, "pq:")
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestBaseHandler_NotFoundCarriesEntity(t *testing.T) {
	id := uuid.New()
	c, w := newTestContext(http.MethodGet, "/", nil)
	(&BaseHandler{}).HandleError(c, shared.NewNotFoundError("termination", id))

	resp := decodeResponse(t, w)
	assert.Equal(t, "termination", resp.Error.Details["entity"])
	assert.Equal(t, id.String(), resp.Error.Details["entity_id"])
}

func TestBaseHandler_PathID(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid", func(t *testing.T) {
		id := uuid.New()
		c, _ := newTestContext(http.MethodGet, "/", nil)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		got, ok := h.PathID(c, "id")
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("invalid", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/", nil)
		c.Params = gin.Params{{Key: "invoiceId", Value: "abc"}}

		_, ok := h.PathID(c, "invoiceId")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidID, resp.Error.Code)
		assert.Equal(t, "invoiceId", resp.Error.Details["param"])
		assert.Equal(t, "abc", resp.Error.Details["value"])
	})
}

func TestBaseHandler_QueryID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	t.Run("required present", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/?customer_id="+id.String(), nil)
		got, ok := h.QueryID(c, "customer_id")
		assert.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("required missing", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/", nil)
		_, ok := h.QueryID(c, "customer_id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidID, resp.Error.Code)
		assert.Equal(t, "customer_id", resp.Error.Details["query"])
	})

	t.Run("optional absent leaves nil", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/?page=2", nil)
		var dst *uuid.UUID
		assert.True(t, h.OptionalQueryID(c, "contract_id", &dst))
		assert.Nil(t, dst)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("optional present", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/?contract_id="+id.String(), nil)
		var dst *uuid.UUID
		require.True(t, h.OptionalQueryID(c, "contract_id", &dst))
		require.NotNil(t, dst)
		assert.Equal(t, id, *dst)
	})

	t.Run("optional malformed", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/?contract_id=nope", nil)
		var dst *uuid.UUID
		assert.False(t, h.OptionalQueryID(c, "contract_id", &dst))
		assert.Nil(t, dst)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidID, resp.Error.Code)
		assert.Equal(t, "nope", resp.Error.Details["value"])
	})
}

type bindTarget struct {
	Reason string `json:"reason" binding:"required"`
}

func TestBaseHandler_Binding(t *testing.T) {
	h := &BaseHandler{}

	t.Run("required body missing field", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", []byte(`{}`))
		var req bindTarget
		assert.False(t, h.BindJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Fields, 1)
		assert.Equal(t, "reason", resp.Error.Fields[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", []byte(`{"reason":`))
		var req bindTarget
		assert.False(t, h.BindJSON(c, &req))
		assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
	})

	t.Run("optional body may be empty", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/", nil)
		var req bindTarget
		assert.True(t, h.BindOptionalJSON(c, &req))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("optional body still validated when present", func(t *testing.T) {
		c, _ := newTestContext(http.MethodPost, "/", []byte(`{}`))
		var req bindTarget
		assert.False(t, h.BindOptionalJSON(c, &req))
	})
}

func TestBaseHandler_WithBody(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, w := newTestContext(http.MethodPost, "/", []byte(`{"reason":"tenant left early"}`))
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	var req bindTarget
	var gotID uuid.UUID
	h.withBody(c, &req, func(got uuid.UUID) (any, error) {
		gotID = got
		return gin.H{"reason": req.Reason}, nil
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "tenant left early", req.Reason)
}
