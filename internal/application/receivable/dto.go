package receivable

import (
	"time"

	"github.com/erp/leasing/internal/domain/receivable"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest creates an Active, Unposted invoice
type CreateInvoiceRequest struct {
	InvoiceNo   string          `json:"invoice_no" binding:"required,max=50"`
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	ContractID  uuid.UUID       `json:"contract_id" binding:"required"`
	InvoiceDate time.Time       `json:"invoice_date" binding:"required"`
	DueDate     *time.Time      `json:"due_date"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"decimal_gt0"`
	Currency    string          `json:"currency" binding:"required,currency"`
	CreatedBy   uuid.UUID       `json:"-"`
}

// CancelRequest carries the acting user and a mandatory reason
type CancelRequest struct {
	UserID uuid.UUID `json:"-"`
	Reason string    `json:"reason" binding:"required,max=500"`
}

// InvoiceListFilter represents filter options for invoice listings
type InvoiceListFilter struct {
	Search          string     `form:"search"`
	CustomerID      *uuid.UUID `form:"-"`
	ContractID      *uuid.UUID `form:"-"`
	Status          string     `form:"status"`
	OutstandingOnly bool       `form:"outstanding_only"`
	Page            int        `form:"page"`
	PageSize        int        `form:"page_size" binding:"omitempty,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNo     string          `json:"invoice_no"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	ContractID    uuid.UUID       `json:"contract_id"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	Status        string          `json:"status"`
	PostingStatus string          `json:"posting_status"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// OutstandingInvoiceResponse is an invoice that can still take allocations
type OutstandingInvoiceResponse struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	InvoiceNo string          `json:"invoice_no"`
	DueDate   time.Time       `json:"due_date"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
}

// CreateReceiptRequest creates a Draft receipt
type CreateReceiptRequest struct {
	ReceiptNo    string          `json:"receipt_no" binding:"max=50"`
	CustomerID   uuid.UUID       `json:"customer_id" binding:"required"`
	ContractID   *uuid.UUID      `json:"contract_id"`
	ReceiptDate  time.Time       `json:"receipt_date" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Currency     string          `json:"currency" binding:"required,currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Remark       string          `json:"remark" binding:"max=500"`
	CreatedBy    uuid.UUID       `json:"-"`
}

// AutoAllocateRequest fills a receipt's allocations.
// With InvoiceIDs the amount is spread in that order; otherwise over all the
// customer's outstanding invoices in the configured order.
type AutoAllocateRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids"`
	Strategy   string      `json:"strategy" binding:"omitempty,oneof=caller_order oldest_due_first"`
}

// SetAllocationRequest sets the amount allocated to one invoice; zero removes it
type SetAllocationRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// CommitReceiptRequest commits a receipt
type CommitReceiptRequest struct {
	UserID       uuid.UUID `json:"-"`
	AllowPartial bool      `json:"allow_partial"`
}

// ReceiptListFilter represents filter options for receipt listings
type ReceiptListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"-"`
	Status     string     `form:"status"`
	FromDate   *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size" binding:"omitempty,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AllocationResponse represents one allocation line
type AllocationResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNo       string          `json:"invoice_no"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	OriginalBalance decimal.Decimal `json:"original_balance"`
	BalanceAmount   decimal.Decimal `json:"balance_amount"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID                 uuid.UUID            `json:"id"`
	ReceiptNo          string               `json:"receipt_no"`
	CustomerID         uuid.UUID            `json:"customer_id"`
	ContractID         *uuid.UUID           `json:"contract_id,omitempty"`
	ReceiptDate        time.Time            `json:"receipt_date"`
	Currency           string               `json:"currency"`
	Amount             decimal.Decimal      `json:"amount"`
	ExchangeRate       decimal.Decimal      `json:"exchange_rate"`
	AllocatedAmount    decimal.Decimal      `json:"allocated_amount"`
	UnallocatedAmount  decimal.Decimal      `json:"unallocated_amount"`
	Status             string               `json:"status"`
	PartiallyAllocated bool                 `json:"partially_allocated"`
	Allocations        []AllocationResponse `json:"allocations"`
	Remark             string               `json:"remark,omitempty"`
	CommittedAt        *time.Time           `json:"committed_at,omitempty"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason       string               `json:"cancel_reason,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	Version            int                  `json:"version"`
}

// WarningResponse reports money left unallocated by a commit
type WarningResponse struct {
	Code          string          `json:"code"`
	Message       string          `json:"message"`
	ReceiptAmount decimal.Decimal `json:"receipt_amount"`
	Allocated     decimal.Decimal `json:"allocated"`
	Unallocated   decimal.Decimal `json:"unallocated"`
}

// CommitReceiptResponse is the outcome of a commit or a commit preview.
// Committed is false with a warning when a partial allocation was not confirmed.
type CommitReceiptResponse struct {
	Committed   bool             `json:"committed"`
	Allocated   decimal.Decimal  `json:"allocated"`
	Unallocated decimal.Decimal  `json:"unallocated"`
	Warning     *WarningResponse `json:"warning,omitempty"`
	Receipt     ReceiptResponse  `json:"receipt"`
}

// AutoAllocateResponse returns the receipt with its new allocations and what is left over
type AutoAllocateResponse struct {
	Receipt   ReceiptResponse `json:"receipt"`
	Allocated decimal.Decimal `json:"allocated"`
	Remaining decimal.Decimal `json:"remaining"`
}

// ToInvoiceResponse converts an invoice
func ToInvoiceResponse(inv *receivable.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		InvoiceNo:     inv.InvoiceNo,
		CustomerID:    inv.CustomerID,
		ContractID:    inv.ContractID,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Currency:      inv.Currency().String(),
		TotalAmount:   inv.TotalAmount.Amount(),
		PaidAmount:    inv.PaidAmount().Amount(),
		BalanceAmount: inv.BalanceAmount.Amount(),
		Status:        string(inv.Status),
		PostingStatus: string(inv.PostingStatus),
		PostedAt:      inv.PostedAt,
		CancelReason:  inv.CancelReason,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}

// ToInvoiceResponses converts a list of invoices
func ToInvoiceResponses(invoices []receivable.Invoice) []InvoiceResponse {
	result := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		result[i] = ToInvoiceResponse(&invoices[i])
	}
	return result
}

// ToOutstandingInvoiceResponses converts invoices into their outstanding view
func ToOutstandingInvoiceResponses(invoices []receivable.Invoice) []OutstandingInvoiceResponse {
	result := make([]OutstandingInvoiceResponse, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		result[i] = OutstandingInvoiceResponse{
			InvoiceID: inv.ID,
			InvoiceNo: inv.InvoiceNo,
			DueDate:   inv.DueDate,
			Balance:   inv.BalanceAmount.Amount(),
			Currency:  inv.Currency().String(),
		}
	}
	return result
}

// ToReceiptResponse converts a receipt with its allocations
func ToReceiptResponse(r *receivable.Receipt) ReceiptResponse {
	allocations := make([]AllocationResponse, len(r.Allocations))
	for i, a := range r.Allocations {
		allocations[i] = AllocationResponse{
			ID:              a.ID,
			InvoiceID:       a.InvoiceID,
			InvoiceNo:       a.InvoiceNo,
			AllocatedAmount: a.AllocatedAmount.Amount(),
			OriginalBalance: a.OriginalBalance.Amount(),
			BalanceAmount:   a.BalanceAmount().Amount(),
		}
	}
	return ReceiptResponse{
		ID:                 r.ID,
		ReceiptNo:          r.ReceiptNo,
		CustomerID:         r.CustomerID,
		ContractID:         r.ContractID,
		ReceiptDate:        r.ReceiptDate,
		Currency:           r.Currency().String(),
		Amount:             r.Amount.Amount(),
		ExchangeRate:       r.ExchangeRate,
		AllocatedAmount:    r.AllocatedTotal().Amount(),
		UnallocatedAmount:  r.UnallocatedAmount().Amount(),
		Status:             r.Status.String(),
		PartiallyAllocated: r.PartiallyAllocated,
		Allocations:        allocations,
		Remark:             r.Remark,
		CommittedAt:        r.CommittedAt,
		CancelledAt:        r.CancelledAt,
		CancelReason:       r.CancelReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Version:            r.Version,
	}
}

// ToReceiptResponses converts a list of receipts
func ToReceiptResponses(receipts []receivable.Receipt) []ReceiptResponse {
	result := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		result[i] = ToReceiptResponse(&receipts[i])
	}
	return result
}

// ToCommitReceiptResponse converts a commit result
func ToCommitReceiptResponse(r *receivable.Receipt, result *receivable.CommitResult) CommitReceiptResponse {
	resp := CommitReceiptResponse{
		Committed:   result.Committed,
		Allocated:   result.Allocated.Amount(),
		Unallocated: result.Unallocated.Amount(),
		Receipt:     ToReceiptResponse(r),
	}
	if w := result.Warning; w != nil {
		resp.Warning = &WarningResponse{
			Code:          w.Code,
			Message:       w.Message,
			ReceiptAmount: w.ReceiptAmount.Amount(),
			Allocated:     w.Allocated.Amount(),
			Unallocated:   w.Unallocated.Amount(),
		}
	}
	return resp
}
