package handler

import (
	receivableapp "github.com/erp/leasing/internal/application/receivable"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler serves rent invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *receivableapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *receivableapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req receivableapp.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = userID(c)

	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter receivableapp.InvoiceListFilter
	if !h.BindQuery(c, &filter) ||
		!h.OptionalQueryID(c, "customer_id", &filter.CustomerID) ||
		!h.OptionalQueryID(c, "contract_id", &filter.ContractID) {
		return
	}
	invoices, total, err := h.invoiceService.List(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Outstanding handles GET /invoices/outstanding?customer_id=, oldest due first
func (h *InvoiceHandler) Outstanding(c *gin.Context) {
	customerID, ok := h.QueryID(c, "customer_id")
	if !ok {
		return
	}
	invoices, err := h.invoiceService.ListOutstanding(c.Request.Context(), tenantID(c), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.invoiceService.GetByID(c.Request.Context(), tenantID(c), id)
	})
}

// Post handles POST /invoices/:id/post
func (h *InvoiceHandler) Post(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.invoiceService.Post(c.Request.Context(), tenantID(c), id)
	})
}

// Unpost handles POST /invoices/:id/unpost
func (h *InvoiceHandler) Unpost(c *gin.Context) {
	h.withID(c, func(id uuid.UUID) (any, error) {
		return h.invoiceService.Unpost(c.Request.Context(), tenantID(c), id)
	})
}

// Cancel handles POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	var req receivableapp.CancelRequest
	h.withBody(c, &req, func(id uuid.UUID) (any, error) {
		req.UserID = userID(c)
		return h.invoiceService.Cancel(c.Request.Context(), tenantID(c), id, req)
	})
}
