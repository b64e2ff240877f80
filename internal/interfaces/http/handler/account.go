package handler

import (
	ledgerapp "github.com/erp/leasing/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// AccountHandler serves the chart of accounts
type AccountHandler struct {
	BaseHandler
	accountService *ledgerapp.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *ledgerapp.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// SetActiveRequest toggles whether an account accepts postings
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Create handles POST /accounts
func (h *AccountHandler) Create(c *gin.Context) {
	var req ledgerapp.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	account, err := h.accountService.Create(c.Request.Context(), tenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// List handles GET /accounts
func (h *AccountHandler) List(c *gin.Context) {
	var filter ledgerapp.AccountListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	accounts, err := h.accountService.List(c.Request.Context(), tenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

// SetActive handles PUT /accounts/:id/active
func (h *AccountHandler) SetActive(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	account, err := h.accountService.SetActive(c.Request.Context(), tenantID(c), id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}
