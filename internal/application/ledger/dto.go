package ledger

import (
	"time"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryInput is one ledger line as submitted by a client.
// Exactly one of Debit and Credit must be non-zero.
type EntryInput struct {
	AccountID     uuid.UUID       `json:"account_id" binding:"required"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	CostCenters   []uuid.UUID     `json:"cost_centers" binding:"max=4"`
	ReferenceType string          `json:"reference_type" binding:"max=50"`
	ReferenceID   *uuid.UUID      `json:"reference_id"`
	Description   string          `json:"description" binding:"max=500"`
}

// CreateVoucherRequest creates a Draft voucher
type CreateVoucherRequest struct {
	VoucherNo       string          `json:"voucher_no" binding:"max=50"`
	VoucherType     string          `json:"voucher_type"`
	JournalType     string          `json:"journal_type"`
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	CompanyID       uuid.UUID       `json:"company_id" binding:"required"`
	FiscalYearID    uuid.UUID       `json:"fiscal_year_id" binding:"required"`
	Currency        string          `json:"currency" binding:"required,currency"`
	BaseCurrency    string          `json:"base_currency" binding:"omitempty,currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	Narration       string          `json:"narration" binding:"max=1000"`
	Entries         []EntryInput    `json:"entries" binding:"dive"`
	CreatedBy       uuid.UUID       `json:"-"`
}

// SaveDraftRequest replaces the header narration/date and all entries of a voucher
type SaveDraftRequest struct {
	TransactionDate *time.Time   `json:"transaction_date"`
	Narration       *string      `json:"narration"`
	Entries         []EntryInput `json:"entries" binding:"dive"`
}

// ValidateEntriesRequest asks for a balance preview without touching any voucher
type ValidateEntriesRequest struct {
	Currency string       `json:"currency" binding:"required,currency"`
	Entries  []EntryInput `json:"entries" binding:"dive"`
}

// ActionRequest carries the acting user and an optional reason
type ActionRequest struct {
	UserID uuid.UUID `json:"-"`
	Reason string    `json:"reason" binding:"max=500"`
}

// PostVoucherRequest posts an Approved voucher
type PostVoucherRequest struct {
	UserID      uuid.UUID  `json:"-"`
	PostingDate *time.Time `json:"posting_date"`
}

// ReverseVoucherRequest reverses a Posted voucher
type ReverseVoucherRequest struct {
	UserID       uuid.UUID  `json:"-"`
	Reason       string     `json:"reason" binding:"required,max=500"`
	ReversalDate *time.Time `json:"reversal_date"`
}

// VoucherListFilter represents filter options for voucher listings
type VoucherListFilter struct {
	Search      string     `form:"search"`
	Status      string     `form:"status"`
	VoucherType string     `form:"voucher_type"`
	CompanyID   *uuid.UUID `form:"-"`
	FromDate    *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate      *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size" binding:"omitempty,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BalanceResponse is the outcome of a balance check.
// Amounts are fixed two-decimal strings, matching Money's JSON form.
type BalanceResponse struct {
	Currency     string          `json:"currency"`
	TotalDebits  string `json:"total_debits"`
	TotalCredits string `json:"total_credits"`
	Difference   string `json:"difference"`
	IsBalanced   bool   `json:"is_balanced"`
}

// EntryResponse represents a ledger line in API responses
type EntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	LineNo          int             `json:"line_no"`
	AccountID       uuid.UUID       `json:"account_id"`
	TransactionType string          `json:"transaction_type"`
	Debit           string          `json:"debit"`
	Credit          string          `json:"credit"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	BaseAmount      string          `json:"base_amount"`
	TaxPercentage   decimal.Decimal `json:"tax_percentage"`
	TaxAmount       string          `json:"tax_amount"`
	CostCenters     []uuid.UUID     `json:"cost_centers,omitempty"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID      `json:"reference_id,omitempty"`
	Description     string          `json:"description,omitempty"`
}

// VoucherResponse represents a journal voucher in API responses
type VoucherResponse struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	VoucherNo       string          `json:"voucher_no"`
	VoucherType     string          `json:"voucher_type"`
	JournalType     string          `json:"journal_type"`
	TransactionDate time.Time       `json:"transaction_date"`
	PostingDate     *time.Time      `json:"posting_date,omitempty"`
	CompanyID       uuid.UUID       `json:"company_id"`
	FiscalYearID    uuid.UUID       `json:"fiscal_year_id"`
	Currency        string          `json:"currency"`
	BaseCurrency    string          `json:"base_currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	Narration       string          `json:"narration,omitempty"`
	Status          string          `json:"status"`
	Entries         []EntryResponse `json:"entries"`
	Totals          BalanceResponse `json:"totals"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	RejectReason    string          `json:"reject_reason,omitempty"`
	PostedAt        *time.Time      `json:"posted_at,omitempty"`
	PostedBy        *uuid.UUID      `json:"posted_by,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	IsReversed      bool            `json:"is_reversed"`
	ReversedByID    *uuid.UUID      `json:"reversed_by_id,omitempty"`
	ReversalOfID    *uuid.UUID      `json:"reversal_of_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// VoucherListItemResponse is the condensed list form of a voucher
type VoucherListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	VoucherNo       string          `json:"voucher_no"`
	VoucherType     string          `json:"voucher_type"`
	TransactionDate time.Time       `json:"transaction_date"`
	Currency        string          `json:"currency"`
	TotalDebits     string          `json:"total_debits"`
	Status          string          `json:"status"`
	IsReversed      bool            `json:"is_reversed"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ReverseVoucherResponse returns both sides of a reversal
type ReverseVoucherResponse struct {
	Original VoucherResponse `json:"original"`
	Reversal VoucherResponse `json:"reversal"`
}

// CreateAccountRequest creates a chart-of-accounts entry
type CreateAccountRequest struct {
	Code string `json:"code" binding:"required,max=30"`
	Name string `json:"name" binding:"required,max=200"`
	Type string `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
}

// AccountListFilter represents filter options for account listings
type AccountListFilter struct {
	Search     string `form:"search"`
	Type       string `form:"type"`
	ActiveOnly bool   `form:"active_only"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size" binding:"omitempty,max=100"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToEntries converts client lines into ledger entries in the given currency
func ToEntries(currency valueobject.Currency, base valueobject.Currency, rate decimal.Decimal, inputs []EntryInput) ([]ledger.LedgerEntry, error) {
	entries := make([]ledger.LedgerEntry, 0, len(inputs))
	for _, in := range inputs {
		debit, err := valueobject.NewMoney(in.Debit, currency)
		if err != nil {
			return nil, err
		}
		credit, err := valueobject.NewMoney(in.Credit, currency)
		if err != nil {
			return nil, err
		}
		opts := []ledger.EntryOption{ledger.WithDescription(in.Description)}
		if !in.TaxPercentage.IsZero() {
			opts = append(opts, ledger.WithTax(in.TaxPercentage))
		}
		if len(in.CostCenters) > 0 {
			opts = append(opts, ledger.WithCostCenters(in.CostCenters...))
		}
		if in.ReferenceID != nil {
			opts = append(opts, ledger.WithReference(in.ReferenceType, *in.ReferenceID))
		}
		if base != "" && base != currency {
			opts = append(opts, ledger.WithExchangeRate(base, rate))
		}
		entry, err := ledger.NewEntryFromAmounts(in.AccountID, debit, credit, opts...)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// ToBalanceResponse converts a BalanceResult
func ToBalanceResponse(r ledger.BalanceResult) BalanceResponse {
	return BalanceResponse{
		Currency:     r.TotalDebits.Currency().String(),
		TotalDebits:  r.TotalDebits.StringFixed(),
		TotalCredits: r.TotalCredits.StringFixed(),
		Difference:   r.Difference.StringFixed(),
		IsBalanced:   r.IsBalanced,
	}
}

// ToEntryResponse converts a ledger entry
func ToEntryResponse(e *ledger.LedgerEntry) EntryResponse {
	return EntryResponse{
		ID:              e.ID,
		LineNo:          e.LineNo,
		AccountID:       e.AccountID,
		TransactionType: e.TransactionType.String(),
		Debit:           e.DebitAmount().StringFixed(),
		Credit:          e.CreditAmount().StringFixed(),
		ExchangeRate:    e.ExchangeRate,
		BaseAmount:      e.BaseAmount.StringFixed(),
		TaxPercentage:   e.TaxPercentage,
		TaxAmount:       e.TaxAmount.StringFixed(),
		CostCenters:     e.CostCenters,
		ReferenceType:   e.ReferenceType,
		ReferenceID:     e.ReferenceID,
		Description:     e.Description,
	}
}

// ToVoucherResponse converts a voucher with its entries and current totals
func ToVoucherResponse(v *ledger.JournalVoucher) VoucherResponse {
	entries := make([]EntryResponse, len(v.Entries))
	for i := range v.Entries {
		entries[i] = ToEntryResponse(&v.Entries[i])
	}
	resp := VoucherResponse{
		ID:              v.ID,
		TenantID:        v.TenantID,
		VoucherNo:       v.VoucherNo,
		VoucherType:     string(v.VoucherType),
		JournalType:     string(v.JournalType),
		TransactionDate: v.TransactionDate,
		PostingDate:     v.PostingDate,
		CompanyID:       v.CompanyID,
		FiscalYearID:    v.FiscalYearID,
		Currency:        v.Currency.String(),
		BaseCurrency:    v.BaseCurrency.String(),
		ExchangeRate:    v.ExchangeRate,
		Narration:       v.Narration,
		Status:          v.Status.String(),
		Entries:         entries,
		SubmittedAt:     v.SubmittedAt,
		ApprovedAt:      v.ApprovedAt,
		ApprovedBy:      v.ApprovedBy,
		RejectReason:    v.RejectReason,
		PostedAt:        v.PostedAt,
		PostedBy:        v.PostedBy,
		CancelReason:    v.CancelReason,
		IsReversed:      v.IsReversed,
		ReversedByID:    v.ReversedByID,
		ReversalOfID:    v.ReversalOfID,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
		Version:         v.Version,
	}
	if totals, err := v.Totals(); err == nil {
		resp.Totals = ToBalanceResponse(totals)
	}
	return resp
}

// ToVoucherListItemResponses converts vouchers for list views
func ToVoucherListItemResponses(vouchers []ledger.JournalVoucher) []VoucherListItemResponse {
	items := make([]VoucherListItemResponse, len(vouchers))
	for i := range vouchers {
		v := &vouchers[i]
		items[i] = VoucherListItemResponse{
			ID:              v.ID,
			VoucherNo:       v.VoucherNo,
			VoucherType:     string(v.VoucherType),
			TransactionDate: v.TransactionDate,
			Currency:        v.Currency.String(),
			Status:          v.Status.String(),
			IsReversed:      v.IsReversed,
			UpdatedAt:       v.UpdatedAt,
		}
		if totals, err := v.Totals(); err == nil {
			items[i].TotalDebits = totals.TotalDebits.StringFixed()
		}
	}
	return items
}

// ToAccountResponse converts an account
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}
