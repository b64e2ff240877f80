package handler

import (
	terminationapp "github.com/erp/leasing/internal/application/termination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TerminationHandler serves lease termination endpoints
type TerminationHandler struct {
	BaseHandler
	terminationService *terminationapp.TerminationService
}

// NewTerminationHandler creates a new TerminationHandler
func NewTerminationHandler(terminationService *terminationapp.TerminationService) *TerminationHandler {
	return &TerminationHandler{terminationService: terminationService}
}

// Create handles POST /terminations
func (h *TerminationHandler) Create(c *gin.Context) {
	var req terminationapp.CreateTerminationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = userID(c)

	t, err := h.terminationService.Create(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// List handles GET /terminations
func (h *TerminationHandler) List(c *gin.Context) {
	var filter terminationapp.ListFilter
	if !h.BindQuery(c, &filter) ||
		!h.OptionalQueryID(c, "contract_id", &filter.ContractID) ||
		!h.OptionalQueryID(c, "customer_id", &filter.CustomerID) {
		return
	}
	list, total, err := h.terminationService.List(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, filter.Page, filter.PageSize)
}

// Get handles GET /terminations/:id
func (h *TerminationHandler) Get(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.terminationService.GetByID(c.Request.Context(), tenantID(c), id)
	})
}

// Settle handles POST /terminations/settle, a pure preview over raw figures
func (h *TerminationHandler) Settle(c *gin.Context) {
	var req terminationapp.SettleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	settlement, err := h.terminationService.Settle(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settlement)
}

// AddDeduction handles POST /terminations/:id/deductions
func (h *TerminationHandler) AddDeduction(c *gin.Context) {
	var req terminationapp.DeductionInput
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		return h.terminationService.AddDeduction(c.Request.Context(), tenantID(c), id, req)
	})
}

// UpdateDeduction handles PUT /terminations/:id/deductions/:deductionId
func (h *TerminationHandler) UpdateDeduction(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	deductionID, ok := h.PathID(c, "deductionId")
	if !ok {
		return
	}
	var req terminationapp.UpdateDeductionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.terminationService.UpdateDeduction(c.Request.Context(), tenantID(c), id, deductionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// RemoveDeduction handles DELETE /terminations/:id/deductions/:deductionId
func (h *TerminationHandler) RemoveDeduction(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	deductionID, ok := h.PathID(c, "deductionId")
	if !ok {
		return
	}
	t, err := h.terminationService.RemoveDeduction(c.Request.Context(), tenantID(c), id, deductionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// SetAdjustment handles PUT /terminations/:id/adjustment
func (h *TerminationHandler) SetAdjustment(c *gin.Context) {
	var req terminationapp.AmountRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		return h.terminationService.SetAdjustment(c.Request.Context(), tenantID(c), id, req)
	})
}

// SetSecurityDeposit handles PUT /terminations/:id/security-deposit
func (h *TerminationHandler) SetSecurityDeposit(c *gin.Context) {
	var req terminationapp.AmountRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		return h.terminationService.SetSecurityDeposit(c.Request.Context(), tenantID(c), id, req)
	})
}

// Recalculate handles POST /terminations/:id/recalculate
func (h *TerminationHandler) Recalculate(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.terminationService.Recalculate(c.Request.Context(), tenantID(c), id)
	})
}

// Submit handles POST /terminations/:id/submit
func (h *TerminationHandler) Submit(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.terminationService.Submit(c.Request.Context(), tenantID(c), id)
	})
}

// Approve handles POST /terminations/:id/approve
func (h *TerminationHandler) Approve(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.terminationService.Approve(c.Request.Context(), tenantID(c), id, terminationapp.ActionRequest{UserID: userID(c)})
	})
}

// Refund handles POST /terminations/:id/refund
func (h *TerminationHandler) Refund(c *gin.Context) {
	var req terminationapp.ProcessRefundRequest
	h.withOptionalBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.terminationService.ProcessRefund(c.Request.Context(), tenantID(c), id, req)
	})
}

// Complete handles POST /terminations/:id/complete on the credit-note path
func (h *TerminationHandler) Complete(c *gin.Context) {
	var req terminationapp.CompleteRequest
	h.withOptionalBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.terminationService.CompleteWithCreditNote(c.Request.Context(), tenantID(c), id, req)
	})
}

// Cancel handles POST /terminations/:id/cancel
func (h *TerminationHandler) Cancel(c *gin.Context) {
	var req terminationapp.CancelRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.terminationService.Cancel(c.Request.Context(), tenantID(c), id, req)
	})
}

// Delete handles DELETE /terminations/:id
func (h *TerminationHandler) Delete(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.terminationService.Delete(c.Request.Context(), tenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
