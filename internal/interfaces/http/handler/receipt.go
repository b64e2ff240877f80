package handler

import (
	receivableapp "github.com/erp/leasing/internal/application/receivable"
	"github.com/erp/leasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceiptHandler serves receipt and allocation endpoints
type ReceiptHandler struct {
	BaseHandler
	receiptService *receivableapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *receivableapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// Create handles POST /receipts
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req receivableapp.CreateReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = userID(c)

	receipt, err := h.receiptService.Create(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// List handles GET /receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	var filter receivableapp.ReceiptListFilter
	if !h.BindQuery(c, &filter) ||
		!h.OptionalQueryID(c, "customer_id", &filter.CustomerID) {
		return
	}
	receipts, total, err := h.receiptService.List(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, receipts, total, filter.Page, filter.PageSize)
}

// Get handles GET /receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.receiptService.GetByID(c.Request.Context(), tenantID(c), id)
	})
}

// AutoAllocate handles POST /receipts/:id/auto-allocate
func (h *ReceiptHandler) AutoAllocate(c *gin.Context) {
	var req receivableapp.AutoAllocateRequest
	h.withOptionalBody(c, &req, func(id uuid.UUID) (any, error) {
		return h.receiptService.AutoAllocate(c.Request.Context(), tenantID(c), id, req)
	})
}

// SetAllocation handles PUT /receipts/:id/allocations/:invoiceId
func (h *ReceiptHandler) SetAllocation(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	invoiceID, ok := h.PathID(c, "invoiceId")
	if !ok {
		return
	}
	var req receivableapp.SetAllocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	receipt, err := h.receiptService.SetAllocation(c.Request.Context(), tenantID(c), id, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// RemoveAllocation handles DELETE /receipts/:id/allocations/:invoiceId
func (h *ReceiptHandler) RemoveAllocation(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	invoiceID, ok := h.PathID(c, "invoiceId")
	if !ok {
		return
	}
	receipt, err := h.receiptService.RemoveAllocation(c.Request.Context(), tenantID(c), id, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// PreviewCommit handles GET /receipts/:id/commit-preview
func (h *ReceiptHandler) PreviewCommit(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.receiptService.PreviewCommit(c.Request.Context(), tenantID(c), id)
	})
}

// Commit handles POST /receipts/:id/commit. An unconfirmed partial allocation
// answers 200 with committed=false and a PARTIALLY_ALLOCATED warning.
func (h *ReceiptHandler) Commit(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req receivableapp.CommitReceiptRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	req.UserID = userID(c)

	result, err := h.receiptService.Commit(c.Request.Context(), tenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !result.Committed {
		// The client is expected to retry with allow_partial under the same key
		c.Set(middleware.IdempotencyReleaseKey, true)
	}
	h.Success(c, result)
}

// Cancel handles POST /receipts/:id/cancel
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	var req receivableapp.CancelRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.receiptService.Cancel(c.Request.Context(), tenantID(c), id, req)
	})
}

// Delete handles DELETE /receipts/:id
func (h *ReceiptHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.receiptService.Delete(c.Request.Context(), tenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
