package termination

import (
	"time"

	"github.com/erp/leasing/internal/domain/termination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeductionInput is one charge withheld from the deposit
type DeductionInput struct {
	Description   string          `json:"description" binding:"required,max=500"`
	Amount        decimal.Decimal `json:"amount"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// CreateTerminationRequest opens a Draft termination for a contract
type CreateTerminationRequest struct {
	TerminationNo   string           `json:"termination_no" binding:"max=50"`
	ContractID      uuid.UUID        `json:"contract_id" binding:"required"`
	CustomerID      uuid.UUID        `json:"customer_id" binding:"required"`
	TerminationDate time.Time        `json:"termination_date" binding:"required"`
	SecurityDeposit decimal.Decimal  `json:"security_deposit"`
	Currency        string           `json:"currency" binding:"required,currency"`
	AdjustAmount    decimal.Decimal  `json:"adjust_amount"`
	Deductions      []DeductionInput `json:"deductions" binding:"omitempty,dive"`
	Remark          string           `json:"remark" binding:"max=500"`
	CreatedBy       uuid.UUID        `json:"-"`
}

// UpdateDeductionRequest reprices a deduction line; an empty description keeps the old one
type UpdateDeductionRequest struct {
	Description   string          `json:"description" binding:"max=500"`
	Amount        decimal.Decimal `json:"amount"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// AmountRequest carries a single amount in the termination's currency
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SettleRequest is a settlement preview computed from raw figures
type SettleRequest struct {
	Currency        string           `json:"currency" binding:"required,currency"`
	SecurityDeposit decimal.Decimal  `json:"security_deposit"`
	Deductions      []DeductionInput `json:"deductions" binding:"omitempty,dive"`
	Adjustment      decimal.Decimal  `json:"adjustment"`
}

// ActionRequest carries the acting user for a status transition
type ActionRequest struct {
	UserID uuid.UUID `json:"-"`
}

// ProcessRefundRequest pays out the refund of an Approved termination
type ProcessRefundRequest struct {
	UserID     uuid.UUID  `json:"-"`
	RefundDate *time.Time `json:"refund_date"`
	Reference  string     `json:"reference" binding:"max=100"`
}

// CompleteRequest completes an Approved termination on the credit-note path
type CompleteRequest struct {
	UserID       uuid.UUID `json:"-"`
	CreditNoteNo string    `json:"credit_note_no" binding:"max=50"`
}

// CancelRequest carries the acting user and a mandatory reason
type CancelRequest struct {
	UserID uuid.UUID `json:"-"`
	Reason string    `json:"reason" binding:"required,max=500"`
}

// ListFilter represents filter options for termination listings
type ListFilter struct {
	Search     string     `form:"search"`
	ContractID *uuid.UUID `form:"-"`
	CustomerID *uuid.UUID `form:"-"`
	Status     string     `form:"status"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size" binding:"omitempty,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// DeductionResponse represents one deduction line
type DeductionResponse struct {
	ID            uuid.UUID       `json:"id"`
	LineNo        int             `json:"line_no"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// SettlementResponse is the refund or credit-note outcome of a termination
type SettlementResponse struct {
	Currency         string          `json:"currency"`
	SecurityDeposit  decimal.Decimal `json:"security_deposit"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	Adjustment       decimal.Decimal `json:"adjustment"`
	Balance          decimal.Decimal `json:"balance"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	CreditNoteAmount decimal.Decimal `json:"credit_note_amount"`
}

// TerminationResponse represents a termination in API responses
type TerminationResponse struct {
	ID               uuid.UUID           `json:"id"`
	TerminationNo    string              `json:"termination_no"`
	ContractID       uuid.UUID           `json:"contract_id"`
	CustomerID       uuid.UUID           `json:"customer_id"`
	TerminationDate  time.Time           `json:"termination_date"`
	Currency         string              `json:"currency"`
	SecurityDeposit  decimal.Decimal     `json:"security_deposit"`
	Deductions       []DeductionResponse `json:"deductions"`
	TotalDeductions  decimal.Decimal     `json:"total_deductions"`
	AdjustAmount     decimal.Decimal     `json:"adjust_amount"`
	RefundAmount     decimal.Decimal     `json:"refund_amount"`
	CreditNoteAmount decimal.Decimal     `json:"credit_note_amount"`
	Status           string              `json:"status"`
	Remark           string              `json:"remark,omitempty"`
	RefundProcessed  bool                `json:"refund_processed"`
	RefundDate       *time.Time          `json:"refund_date,omitempty"`
	RefundReference  string              `json:"refund_reference,omitempty"`
	CreditNoteNo     string              `json:"credit_note_no,omitempty"`
	ApprovedAt       *time.Time          `json:"approved_at,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Version          int                 `json:"version"`
}

// ToSettlementResponse converts a settlement
func ToSettlementResponse(s termination.Settlement) SettlementResponse {
	return SettlementResponse{
		Currency:         s.SecurityDeposit.Currency().String(),
		SecurityDeposit:  s.SecurityDeposit.Amount(),
		TotalDeductions:  s.TotalDeductions.Amount(),
		Adjustment:       s.Adjustment.Amount(),
		Balance:          s.Balance.Amount(),
		RefundAmount:     s.RefundAmount.Amount(),
		CreditNoteAmount: s.CreditNoteAmount.Amount(),
	}
}

// ToTerminationResponse converts a termination
func ToTerminationResponse(t *termination.Termination) TerminationResponse {
	deductions := make([]DeductionResponse, len(t.Deductions))
	for i, d := range t.Deductions {
		deductions[i] = DeductionResponse{
			ID:            d.ID,
			LineNo:        d.LineNo,
			Description:   d.Description,
			Amount:        d.Amount.Amount(),
			TaxPercentage: d.TaxPercentage,
			TaxAmount:     d.TaxAmount.Amount(),
			TotalAmount:   d.TotalAmount.Amount(),
		}
	}
	return TerminationResponse{
		ID:               t.ID,
		TerminationNo:    t.TerminationNo,
		ContractID:       t.ContractID,
		CustomerID:       t.CustomerID,
		TerminationDate:  t.TerminationDate,
		Currency:         t.Currency().String(),
		SecurityDeposit:  t.SecurityDeposit.Amount(),
		Deductions:       deductions,
		TotalDeductions:  t.TotalDeductions().Amount(),
		AdjustAmount:     t.AdjustAmount.Amount(),
		RefundAmount:     t.RefundAmount.Amount(),
		CreditNoteAmount: t.CreditNoteAmount.Amount(),
		Status:           t.Status.String(),
		Remark:           t.Remark,
		RefundProcessed:  t.RefundProcessed,
		RefundDate:       t.RefundDate,
		RefundReference:  t.RefundReference,
		CreditNoteNo:     t.CreditNoteNo,
		ApprovedAt:       t.ApprovedAt,
		CompletedAt:      t.CompletedAt,
		CancelledAt:      t.CancelledAt,
		CancelReason:     t.CancelReason,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		Version:          t.Version,
	}
}

// ToTerminationResponses converts a list of terminations
func ToTerminationResponses(list []termination.Termination) []TerminationResponse {
	result := make([]TerminationResponse, len(list))
	for i := range list {
		result[i] = ToTerminationResponse(&list[i])
	}
	return result
}
