package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherStatus represents the lifecycle state of a journal voucher
type VoucherStatus string

const (
	VoucherStatusDraft     VoucherStatus = "DRAFT"
	VoucherStatusPending   VoucherStatus = "PENDING"
	VoucherStatusApproved  VoucherStatus = "APPROVED"
	VoucherStatusPosted    VoucherStatus = "POSTED"
	VoucherStatusRejected  VoucherStatus = "REJECTED"
	VoucherStatusCancelled VoucherStatus = "CANCELLED"
)

// IsValid checks if the status is a valid VoucherStatus
func (s VoucherStatus) IsValid() bool {
	switch s {
	case VoucherStatusDraft, VoucherStatusPending, VoucherStatusApproved,
		VoucherStatusPosted, VoucherStatusRejected, VoucherStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of VoucherStatus
func (s VoucherStatus) String() string {
	return string(s)
}

// IsEditable returns true while entries may still change
func (s VoucherStatus) IsEditable() bool {
	return s == VoucherStatusDraft || s == VoucherStatusPending
}

// IsTerminal returns true if no further transition is possible
func (s VoucherStatus) IsTerminal() bool {
	return s == VoucherStatusCancelled
}

// CanApprove returns true if the voucher can be approved in this status
func (s VoucherStatus) CanApprove() bool {
	return s == VoucherStatusPending
}

// CanPost returns true if the voucher can be posted in this status
func (s VoucherStatus) CanPost() bool {
	return s == VoucherStatusApproved
}

// CanCancel returns true if the voucher can be cancelled in this status
func (s VoucherStatus) CanCancel() bool {
	return s == VoucherStatusDraft || s == VoucherStatusPending
}

// CanReset returns true if a privileged reset back to Draft is allowed
func (s VoucherStatus) CanReset() bool {
	return s == VoucherStatusApproved || s == VoucherStatusRejected
}

// VoucherType identifies the business document behind a voucher
type VoucherType string

const (
	VoucherTypeJournal    VoucherType = "JOURNAL"
	VoucherTypeOpening    VoucherType = "OPENING"
	VoucherTypeInvoice    VoucherType = "INVOICE"
	VoucherTypeReceipt    VoucherType = "RECEIPT"
	VoucherTypeCreditNote VoucherType = "CREDIT_NOTE"
	VoucherTypeRefund     VoucherType = "REFUND"
)

// IsValid checks if the voucher type is known
func (t VoucherType) IsValid() bool {
	switch t {
	case VoucherTypeJournal, VoucherTypeOpening, VoucherTypeInvoice,
		VoucherTypeReceipt, VoucherTypeCreditNote, VoucherTypeRefund:
		return true
	}
	return false
}

// JournalType classifies the journal a voucher belongs to
type JournalType string

const (
	JournalTypeGeneral    JournalType = "GENERAL"
	JournalTypeAdjustment JournalType = "ADJUSTMENT"
	JournalTypeClosing    JournalType = "CLOSING"
	JournalTypeReversal   JournalType = "REVERSAL"
)

// IsValid checks if the journal type is known
func (t JournalType) IsValid() bool {
	switch t {
	case JournalTypeGeneral, JournalTypeAdjustment, JournalTypeClosing, JournalTypeReversal:
		return true
	}
	return false
}

// VoucherHeader holds the header fields supplied when a voucher is created
type VoucherHeader struct {
	VoucherNo       string
	VoucherType     VoucherType
	JournalType     JournalType
	TransactionDate time.Time
	CompanyID       uuid.UUID
	FiscalYearID    uuid.UUID
	Currency        valueobject.Currency
	BaseCurrency    valueobject.Currency
	ExchangeRate    decimal.Decimal
	Narration       string
}

// JournalVoucher is a grouped set of debit/credit entries.
// Entries are owned by the voucher and only change while it is Draft or Pending.
type JournalVoucher struct {
	shared.TenantAggregateRoot
	VoucherNo       string
	VoucherType     VoucherType
	JournalType     JournalType
	TransactionDate time.Time
	PostingDate     *time.Time
	CompanyID       uuid.UUID
	FiscalYearID    uuid.UUID
	Currency        valueobject.Currency
	BaseCurrency    valueobject.Currency
	ExchangeRate    decimal.Decimal
	Narration       string
	Status          VoucherStatus
	Entries         []LedgerEntry

	SubmittedAt  *time.Time
	ApprovedAt   *time.Time
	ApprovedBy   *uuid.UUID
	RejectedAt   *time.Time
	RejectedBy   *uuid.UUID
	RejectReason string
	PostedAt     *time.Time
	PostedBy     *uuid.UUID
	CancelledAt  *time.Time
	CancelledBy  *uuid.UUID
	CancelReason string

	IsReversed     bool
	ReversedByID   *uuid.UUID
	ReversalOfID   *uuid.UUID
	ReversalReason string
}

// NewJournalVoucher creates a Draft voucher
func NewJournalVoucher(tenantID uuid.UUID, h VoucherHeader) (*JournalVoucher, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if h.CompanyID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if h.FiscalYearID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_FISCAL_YEAR", "Fiscal year ID cannot be empty")
	}
	if h.TransactionDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Transaction date is required")
	}
	if h.VoucherType == "" {
		h.VoucherType = VoucherTypeJournal
	}
	if !h.VoucherType.IsValid() {
		return nil, shared.NewValidationError("INVALID_VOUCHER_TYPE", fmt.Sprintf("Unknown voucher type %q", h.VoucherType))
	}
	if h.JournalType == "" {
		h.JournalType = JournalTypeGeneral
	}
	if !h.JournalType.IsValid() {
		return nil, shared.NewValidationError("INVALID_JOURNAL_TYPE", fmt.Sprintf("Unknown journal type %q", h.JournalType))
	}
	if h.Currency == "" {
		return nil, shared.NewValidationError("INVALID_CURRENCY", "Currency is required")
	}
	if h.BaseCurrency == "" {
		h.BaseCurrency = h.Currency
	}
	if h.ExchangeRate.IsZero() && h.Currency == h.BaseCurrency {
		h.ExchangeRate = decimal.NewFromInt(1)
	}
	if !h.ExchangeRate.IsPositive() {
		return nil, shared.NewValidationError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive").
			WithDetail("rate", h.ExchangeRate.String())
	}
	if len(h.VoucherNo) > 50 {
		return nil, shared.NewValidationError("INVALID_VOUCHER_NO", "Voucher number cannot exceed 50 characters")
	}

	v := &JournalVoucher{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VoucherNo:           strings.TrimSpace(h.VoucherNo),
		VoucherType:         h.VoucherType,
		JournalType:         h.JournalType,
		TransactionDate:     h.TransactionDate,
		CompanyID:           h.CompanyID,
		FiscalYearID:        h.FiscalYearID,
		Currency:            h.Currency,
		BaseCurrency:        h.BaseCurrency,
		ExchangeRate:        h.ExchangeRate,
		Narration:           h.Narration,
		Status:              VoucherStatusDraft,
		Entries:             make([]LedgerEntry, 0),
	}
	v.AddDomainEvent(NewJournalVoucherCreatedEvent(v))
	return v, nil
}

// SetEntries replaces all entries. Editing a Pending voucher returns it to Draft
// so it has to be committed again. No balance check happens here, which is what
// lets drafts be saved unbalanced.
func (v *JournalVoucher) SetEntries(entries []LedgerEntry) error {
	if !v.Status.IsEditable() {
		return v.lockedError("edit entries of")
	}
	for i := range entries {
		if entries[i].Amount.Currency() != v.Currency {
			return shared.NewValidationError(shared.CodeCurrencyMismatch,
				fmt.Sprintf("Line %d is in %s but the voucher is in %s", i+1, entries[i].Amount.Currency(), v.Currency)).
				WithEntity("journal_voucher", v.ID).
				WithExpected(v.Currency, entries[i].Amount.Currency())
		}
	}
	v.Entries = make([]LedgerEntry, len(entries))
	copy(v.Entries, entries)
	for i := range v.Entries {
		v.Entries[i].LineNo = i + 1
	}
	v.backToDraft()
	return nil
}

// AddEntry appends one entry
func (v *JournalVoucher) AddEntry(entry LedgerEntry) error {
	entries := append(append([]LedgerEntry(nil), v.Entries...), entry)
	return v.SetEntries(entries)
}

// RemoveEntry deletes the entry with the given line number
func (v *JournalVoucher) RemoveEntry(lineNo int) error {
	entries := make([]LedgerEntry, 0, len(v.Entries))
	found := false
	for _, e := range v.Entries {
		if e.LineNo == lineNo {
			found = true
			continue
		}
		entries = append(entries, e)
	}
	if !found {
		return shared.NewNotFoundError("ledger_entry", lineNo)
	}
	return v.SetEntries(entries)
}

// UpdateHeader changes the narration and transaction date
func (v *JournalVoucher) UpdateHeader(transactionDate time.Time, narration string) error {
	if !v.Status.IsEditable() {
		return v.lockedError("edit")
	}
	if transactionDate.IsZero() {
		return shared.NewValidationError("INVALID_DATE", "Transaction date is required")
	}
	v.TransactionDate = transactionDate
	v.Narration = narration
	v.backToDraft()
	return nil
}

// Totals returns the current balance of the entries
func (v *JournalVoucher) Totals() (BalanceResult, error) {
	return NewJournalBalancer().Validate(v.Currency, v.Entries)
}

// AssignVoucherNo sets the voucher number if none was supplied
func (v *JournalVoucher) AssignVoucherNo(voucherNo string) error {
	if v.VoucherNo != "" {
		return shared.NewStateError(shared.CodeInvalidState, "Voucher number already assigned").
			WithEntity("journal_voucher", v.ID).
			WithDetail("voucher_no", v.VoucherNo)
	}
	if strings.TrimSpace(voucherNo) == "" {
		return shared.NewValidationError("INVALID_VOUCHER_NO", "Voucher number cannot be empty")
	}
	v.VoucherNo = voucherNo
	return nil
}

// Approve moves a Pending voucher to Approved
func (v *JournalVoucher) Approve(userID uuid.UUID) error {
	if !v.Status.CanApprove() {
		return v.transitionError("approve", VoucherStatusPending)
	}
	if userID == uuid.Nil {
		return shared.NewValidationError("INVALID_USER", "Approving user ID is required")
	}
	now := time.Now()
	v.Status = VoucherStatusApproved
	v.ApprovedAt = &now
	v.ApprovedBy = &userID
	v.UpdatedAt = now
	v.AddDomainEvent(NewJournalVoucherApprovedEvent(v))
	return nil
}

// Reject moves a Pending voucher to Rejected
func (v *JournalVoucher) Reject(userID uuid.UUID, reason string) error {
	if !v.Status.CanApprove() {
		return v.transitionError("reject", VoucherStatusPending)
	}
	if userID == uuid.Nil {
		return shared.NewValidationError("INVALID_USER", "Rejecting user ID is required")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("REASON_REQUIRED", "Reject reason is required")
	}
	now := time.Now()
	v.Status = VoucherStatusRejected
	v.RejectedAt = &now
	v.RejectedBy = &userID
	v.RejectReason = reason
	v.UpdatedAt = now
	v.AddDomainEvent(NewJournalVoucherRejectedEvent(v))
	return nil
}

// Post moves an Approved voucher to Posted. The voucher number must be assigned first.
func (v *JournalVoucher) Post(userID uuid.UUID, postingDate time.Time) error {
	if !v.Status.CanPost() {
		return v.transitionError("post", VoucherStatusApproved)
	}
	if userID == uuid.Nil {
		return shared.NewValidationError("INVALID_USER", "Posting user ID is required")
	}
	if v.VoucherNo == "" {
		return shared.NewValidationError("VOUCHER_NO_REQUIRED", "A voucher number must be assigned before posting").
			WithEntity("journal_voucher", v.ID)
	}
	result, err := v.Totals()
	if err != nil {
		return err
	}
	if !result.IsBalanced {
		return unbalancedError(v, result)
	}
	now := time.Now()
	if postingDate.IsZero() {
		postingDate = v.TransactionDate
	}
	v.Status = VoucherStatusPosted
	v.PostingDate = &postingDate
	v.PostedAt = &now
	v.PostedBy = &userID
	v.UpdatedAt = now
	v.AddDomainEvent(NewJournalVoucherPostedEvent(v, result))
	return nil
}

// Reverse creates a new Posted voucher whose entries offset this one.
// The original stays Posted and is flagged as reversed.
func (v *JournalVoucher) Reverse(userID uuid.UUID, reason string, reversalDate time.Time) (*JournalVoucher, error) {
	if v.Status != VoucherStatusPosted {
		return nil, v.transitionError("reverse", VoucherStatusPosted)
	}
	if v.IsReversed {
		return nil, shared.NewStateError(shared.CodeAlreadyProcessed, "Voucher has already been reversed").
			WithEntity("journal_voucher", v.ID).
			WithDetail("reversed_by", v.ReversedByID.String())
	}
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_USER", "Reversing user ID is required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, shared.NewValidationError("REASON_REQUIRED", "Reversal reason is required").
			WithEntity("journal_voucher", v.ID)
	}
	if reversalDate.IsZero() {
		reversalDate = time.Now()
	}

	now := time.Now()
	originalID := v.ID
	reversal := &JournalVoucher{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(v.TenantID),
		VoucherType:         v.VoucherType,
		JournalType:         JournalTypeReversal,
		TransactionDate:     reversalDate,
		PostingDate:         &reversalDate,
		CompanyID:           v.CompanyID,
		FiscalYearID:        v.FiscalYearID,
		Currency:            v.Currency,
		BaseCurrency:        v.BaseCurrency,
		ExchangeRate:        v.ExchangeRate,
		Narration:           fmt.Sprintf("Reversal of %s: %s", v.VoucherNo, reason),
		Status:              VoucherStatusPosted,
		Entries:             make([]LedgerEntry, len(v.Entries)),
		PostedAt:            &now,
		PostedBy:            &userID,
		ReversalOfID:        &originalID,
		ReversalReason:      reason,
	}
	reversal.SetCreatedBy(userID)
	for i := range v.Entries {
		reversal.Entries[i] = v.Entries[i].Mirror()
		reversal.Entries[i].LineNo = i + 1
	}

	reversalID := reversal.ID
	v.IsReversed = true
	v.ReversedByID = &reversalID
	v.ReversalReason = reason
	v.UpdatedAt = now

	v.AddDomainEvent(NewJournalVoucherReversedEvent(v, reversal, userID))
	return reversal, nil
}

// Cancel cancels a Draft or Pending voucher
func (v *JournalVoucher) Cancel(userID uuid.UUID, reason string) error {
	if !v.Status.CanCancel() {
		return v.transitionError("cancel", VoucherStatusDraft, VoucherStatusPending)
	}
	if userID == uuid.Nil {
		return shared.NewValidationError("INVALID_USER", "Cancelling user ID is required")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("REASON_REQUIRED", "Cancel reason is required")
	}
	now := time.Now()
	previous := v.Status
	v.Status = VoucherStatusCancelled
	v.CancelledAt = &now
	v.CancelledBy = &userID
	v.CancelReason = reason
	v.UpdatedAt = now
	v.AddDomainEvent(NewJournalVoucherCancelledEvent(v, previous))
	return nil
}

// ResetForEdit is the privileged unlock of an Approved or Rejected voucher back to Draft.
// Posted vouchers are never unlocked; they are reversed instead.
func (v *JournalVoucher) ResetForEdit(userID uuid.UUID, reason string) error {
	if !v.Status.CanReset() {
		if v.Status == VoucherStatusPosted {
			return shared.NewStateError(shared.CodeLockedForEditing, "Posted vouchers cannot be unlocked, reverse them instead").
				WithEntity("journal_voucher", v.ID).
				WithExpected(fmt.Sprintf("%s|%s", VoucherStatusApproved, VoucherStatusRejected), v.Status)
		}
		return v.transitionError("reset", VoucherStatusApproved, VoucherStatusRejected)
	}
	if userID == uuid.Nil {
		return shared.NewValidationError("INVALID_USER", "Unlocking user ID is required")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("REASON_REQUIRED", "Unlock reason is required")
	}
	previous := v.Status
	v.Status = VoucherStatusDraft
	v.SubmittedAt = nil
	v.ApprovedAt = nil
	v.ApprovedBy = nil
	v.RejectedAt = nil
	v.RejectedBy = nil
	v.RejectReason = ""
	v.Touch()
	v.AddDomainEvent(NewJournalVoucherUnlockedEvent(v, previous, userID, reason))
	return nil
}

// EnsureDeletable fails unless the voucher is still a Draft
func (v *JournalVoucher) EnsureDeletable() error {
	if v.Status != VoucherStatusDraft {
		return shared.NewStateError(shared.CodeLockedForEditing,
			fmt.Sprintf("Cannot delete voucher in %s status", v.Status)).
			WithEntity("journal_voucher", v.ID).
			WithExpected(VoucherStatusDraft, v.Status)
	}
	return nil
}

// AccountIDs returns the distinct accounts referenced by the entries
func (v *JournalVoucher) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(v.Entries))
	ids := make([]uuid.UUID, 0, len(v.Entries))
	for _, e := range v.Entries {
		if _, ok := seen[e.AccountID]; ok {
			continue
		}
		seen[e.AccountID] = struct{}{}
		ids = append(ids, e.AccountID)
	}
	return ids
}

func (v *JournalVoucher) submit(result BalanceResult) {
	now := time.Now()
	v.Status = VoucherStatusPending
	v.SubmittedAt = &now
	v.UpdatedAt = now
	v.AddDomainEvent(NewJournalVoucherCommittedEvent(v, result))
}

func (v *JournalVoucher) backToDraft() {
	v.Status = VoucherStatusDraft
	v.SubmittedAt = nil
	v.Touch()
}

func (v *JournalVoucher) lockedError(action string) *shared.DomainError {
	return shared.NewStateError(shared.CodeLockedForEditing,
		fmt.Sprintf("Cannot %s voucher in %s status", action, v.Status)).
		WithEntity("journal_voucher", v.ID).
		WithExpected(fmt.Sprintf("%s|%s", VoucherStatusDraft, VoucherStatusPending), v.Status)
}

func (v *JournalVoucher) transitionError(action string, allowed ...VoucherStatus) *shared.DomainError {
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return shared.NewStateError(shared.CodeInvalidState,
		fmt.Sprintf("Cannot %s voucher in %s status", action, v.Status)).
		WithEntity("journal_voucher", v.ID).
		WithExpected(strings.Join(names, "|"), v.Status)
}
