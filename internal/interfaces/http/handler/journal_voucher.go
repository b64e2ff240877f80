package handler

import (
	ledgerapp "github.com/erp/leasing/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JournalVoucherHandler serves journal voucher endpoints
type JournalVoucherHandler struct {
	BaseHandler
	journalService *ledgerapp.JournalService
}

// NewJournalVoucherHandler creates a new JournalVoucherHandler
func NewJournalVoucherHandler(journalService *ledgerapp.JournalService) *JournalVoucherHandler {
	return &JournalVoucherHandler{journalService: journalService}
}

// Create handles POST /journal-vouchers
func (h *JournalVoucherHandler) Create(c *gin.Context) {
	var req ledgerapp.CreateVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = userID(c)

	voucher, err := h.journalService.Create(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, voucher)
}

// List handles GET /journal-vouchers
func (h *JournalVoucherHandler) List(c *gin.Context) {
	var filter ledgerapp.VoucherListFilter
	if !h.BindQuery(c, &filter) ||
		!h.OptionalQueryID(c, "company_id", &filter.CompanyID) {
		return
	}
	vouchers, total, err := h.journalService.List(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, vouchers, total, filter.Page, filter.PageSize)
}

// Get handles GET /journal-vouchers/:id
func (h *JournalVoucherHandler) Get(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.journalService.GetByID(c.Request.Context(), tenantID(c), id)
	})
}

// SaveDraft handles PUT /journal-vouchers/:id/draft
func (h *JournalVoucherHandler) SaveDraft(c *gin.Context) {
	var req ledgerapp.SaveDraftRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		return h.journalService.SaveDraft(c.Request.Context(), tenantID(c), id, req)
	})
}

// Validate handles POST /journal-vouchers/validate. Nothing is persisted.
func (h *JournalVoucherHandler) Validate(c *gin.Context) {
	var req ledgerapp.ValidateEntriesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.journalService.Validate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Commit handles POST /journal-vouchers/:id/commit
func (h *JournalVoucherHandler) Commit(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.journalService.Commit(c.Request.Context(), tenantID(c), id)
	})
}

// Approve handles POST /journal-vouchers/:id/approve
func (h *JournalVoucherHandler) Approve(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.journalService.Approve(c.Request.Context(), tenantID(c), id, userID(c))
	})
}

// Reject handles POST /journal-vouchers/:id/reject
func (h *JournalVoucherHandler) Reject(c *gin.Context) {
	var req ledgerapp.ActionRequest
	h.withOptionalBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.journalService.Reject(c.Request.Context(), tenantID(c), id, req)
	})
}

// Post handles POST /journal-vouchers/:id/post
func (h *JournalVoucherHandler) Post(c *gin.Context) {
	var req ledgerapp.PostVoucherRequest
	h.withOptionalBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.journalService.Post(c.Request.Context(), tenantID(c), id, req)
	})
}

// Reverse handles POST /journal-vouchers/:id/reverse
func (h *JournalVoucherHandler) Reverse(c *gin.Context) {
	var req ledgerapp.ReverseVoucherRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.journalService.Reverse(c.Request.Context(), tenantID(c), id, req)
	})
}

// Cancel handles POST /journal-vouchers/:id/cancel
func (h *JournalVoucherHandler) Cancel(c *gin.Context) {
	var req ledgerapp.ActionRequest
	h.withOptionalBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.journalService.Cancel(c.Request.Context(), tenantID(c), id, req)
	})
}

// Reset handles POST /journal-vouchers/:id/reset, the privileged unlock back to Draft
func (h *JournalVoucherHandler) Reset(c *gin.Context) {
	var req ledgerapp.ActionRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.journalService.ResetForEdit(c.Request.Context(), tenantID(c), id, req)
	})
}

// Delete handles DELETE /journal-vouchers/:id
func (h *JournalVoucherHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.journalService.Delete(c.Request.Context(), tenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
