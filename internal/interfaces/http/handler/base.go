package handler

import (
	"net/http"

	"github.com/erp/leasing/internal/infrastructure/logger"
	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/erp/leasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	h.Error(c, http.StatusBadRequest, code, message)
}

// HandleError maps service errors to the envelope. Domain errors keep their
// code and details; anything else is logged and reported as internal.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	status, resp := dto.ErrorResponseFor(err, middleware.GetRequestID(c))
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

// BindJSON binds and validates the body, writing a 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// BindOptionalJSON is BindJSON that accepts an empty body
func (h *BaseHandler) BindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, req)
}

// BindQuery binds and validates query parameters, writing a 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// PathID parses a UUID path parameter, writing a 400 on failure
func (h *BaseHandler) PathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		invalidID(c, "param", name, c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses a required UUID query parameter, writing a 400 on failure
func (h *BaseHandler) QueryID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		invalidID(c, "query", name, raw)
		return uuid.Nil, false
	}
	return id, true
}

// OptionalQueryID parses an optional UUID query parameter into dst.
// An absent or empty parameter leaves dst nil.
func (h *BaseHandler) OptionalQueryID(c *gin.Context, name string, dst **uuid.UUID) bool {
	raw := c.Query(name)
	if raw == "" {
		return true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		invalidID(c, "query", name, raw)
		return false
	}
	*dst = &id
	return true
}

func invalidID(c *gin.Context, kind, name, value string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
		dto.ErrCodeInvalidID,
		"Invalid "+name,
		middleware.GetRequestID(c),
		map[string]any{kind: name, "value": value},
	))
}

func tenantID(c *gin.Context) uuid.UUID {
	return middleware.GetTenantID(c)
}

func userID(c *gin.Context) uuid.UUID {
	return middleware.GetUserID(c)
}

// withID runs fn for the :id path parameter and writes its result as 200
func (h *BaseHandler) withID(c *gin.Context, fn func(id uuid.UUID) (any, error)) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, fn, id)
}

// withBody binds a required JSON body before running fn for :id
func (h *BaseHandler) withBody(c *gin.Context, req any, fn func(id uuid.UUID) (any, error)) {
	id, ok := h.PathID(c, "id")
	if !ok || !h.BindJSON(c, req) {
		return
	}
	h.respond(c, fn, id)
}

// withOptionalBody is withBody for endpoints whose body may be omitted
func (h *BaseHandler) withOptionalBody(c *gin.Context, req any, fn func(id uuid.UUID) (any, error)) {
	id, ok := h.PathID(c, "id")
	if !ok || !h.BindOptionalJSON(c, req) {
		return
	}
	h.respond(c, fn, id)
}

func (h *BaseHandler) respond(c *gin.Context, fn func(id uuid.UUID) (any, error), id uuid.UUID) {
	result, err := fn(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
