package ledger

import (
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const aggregateTypeJournalVoucher = "JournalVoucher"

// Event type names raised by JournalVoucher
const (
	EventTypeJournalVoucherCreated   = "JournalVoucherCreated"
	EventTypeJournalVoucherCommitted = "JournalVoucherCommitted"
	EventTypeJournalVoucherApproved  = "JournalVoucherApproved"
	EventTypeJournalVoucherRejected  = "JournalVoucherRejected"
	EventTypeJournalVoucherPosted    = "JournalVoucherPosted"
	EventTypeJournalVoucherReversed  = "JournalVoucherReversed"
	EventTypeJournalVoucherCancelled = "JournalVoucherCancelled"
	EventTypeJournalVoucherUnlocked  = "JournalVoucherUnlocked"
)

// JournalVoucherCreatedEvent is raised when a voucher is created
type JournalVoucherCreatedEvent struct {
	shared.BaseDomainEvent
	VoucherID       uuid.UUID   `json:"voucher_id"`
	VoucherType     VoucherType `json:"voucher_type"`
	TransactionDate time.Time   `json:"transaction_date"`
}

// NewJournalVoucherCreatedEvent creates a JournalVoucherCreatedEvent
func NewJournalVoucherCreatedEvent(v *JournalVoucher) *JournalVoucherCreatedEvent {
	return &JournalVoucherCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherCreated, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		VoucherType:     v.VoucherType,
		TransactionDate: v.TransactionDate,
	}
}

// JournalVoucherCommittedEvent is raised when a balanced voucher moves to Pending
type JournalVoucherCommittedEvent struct {
	shared.BaseDomainEvent
	VoucherID    uuid.UUID       `json:"voucher_id"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	EntryCount   int             `json:"entry_count"`
}

// NewJournalVoucherCommittedEvent creates a JournalVoucherCommittedEvent
func NewJournalVoucherCommittedEvent(v *JournalVoucher, result BalanceResult) *JournalVoucherCommittedEvent {
	return &JournalVoucherCommittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherCommitted, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		TotalDebits:     result.TotalDebits.Amount(),
		TotalCredits:    result.TotalCredits.Amount(),
		EntryCount:      len(v.Entries),
	}
}

// JournalVoucherApprovedEvent is raised when a voucher is approved
type JournalVoucherApprovedEvent struct {
	shared.BaseDomainEvent
	VoucherID  uuid.UUID `json:"voucher_id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
}

// NewJournalVoucherApprovedEvent creates a JournalVoucherApprovedEvent
func NewJournalVoucherApprovedEvent(v *JournalVoucher) *JournalVoucherApprovedEvent {
	return &JournalVoucherApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherApproved, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		ApprovedBy:      *v.ApprovedBy,
	}
}

// JournalVoucherRejectedEvent is raised when a voucher is rejected
type JournalVoucherRejectedEvent struct {
	shared.BaseDomainEvent
	VoucherID  uuid.UUID `json:"voucher_id"`
	RejectedBy uuid.UUID `json:"rejected_by"`
	Reason     string    `json:"reason"`
}

// NewJournalVoucherRejectedEvent creates a JournalVoucherRejectedEvent
func NewJournalVoucherRejectedEvent(v *JournalVoucher) *JournalVoucherRejectedEvent {
	return &JournalVoucherRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherRejected, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		RejectedBy:      *v.RejectedBy,
		Reason:          v.RejectReason,
	}
}

// JournalVoucherPostedEvent is raised when a voucher is posted to the ledger
type JournalVoucherPostedEvent struct {
	shared.BaseDomainEvent
	VoucherID   uuid.UUID       `json:"voucher_id"`
	VoucherNo   string          `json:"voucher_no"`
	PostingDate time.Time       `json:"posting_date"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewJournalVoucherPostedEvent creates a JournalVoucherPostedEvent
func NewJournalVoucherPostedEvent(v *JournalVoucher, result BalanceResult) *JournalVoucherPostedEvent {
	return &JournalVoucherPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherPosted, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		VoucherNo:       v.VoucherNo,
		PostingDate:     *v.PostingDate,
		Amount:          result.TotalDebits.Amount(),
	}
}

// JournalVoucherReversedEvent is raised on the original voucher when it is reversed
type JournalVoucherReversedEvent struct {
	shared.BaseDomainEvent
	VoucherID  uuid.UUID `json:"voucher_id"`
	ReversalID uuid.UUID `json:"reversal_id"`
	ReversedBy uuid.UUID `json:"reversed_by"`
	Reason     string    `json:"reason"`
}

// NewJournalVoucherReversedEvent creates a JournalVoucherReversedEvent
func NewJournalVoucherReversedEvent(v, reversal *JournalVoucher, userID uuid.UUID) *JournalVoucherReversedEvent {
	return &JournalVoucherReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherReversed, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		ReversalID:      reversal.ID,
		ReversedBy:      userID,
		Reason:          v.ReversalReason,
	}
}

// JournalVoucherCancelledEvent is raised when a voucher is cancelled
type JournalVoucherCancelledEvent struct {
	shared.BaseDomainEvent
	VoucherID      uuid.UUID     `json:"voucher_id"`
	PreviousStatus VoucherStatus `json:"previous_status"`
	Reason         string        `json:"reason"`
}

// NewJournalVoucherCancelledEvent creates a JournalVoucherCancelledEvent
func NewJournalVoucherCancelledEvent(v *JournalVoucher, previous VoucherStatus) *JournalVoucherCancelledEvent {
	return &JournalVoucherCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherCancelled, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		PreviousStatus:  previous,
		Reason:          v.CancelReason,
	}
}

// JournalVoucherUnlockedEvent records a privileged reset of a locked voucher
type JournalVoucherUnlockedEvent struct {
	shared.BaseDomainEvent
	VoucherID      uuid.UUID     `json:"voucher_id"`
	VoucherNo      string        `json:"voucher_no"`
	PreviousStatus VoucherStatus `json:"previous_status"`
	UnlockedBy     uuid.UUID     `json:"unlocked_by"`
	Reason         string        `json:"reason"`
}

// NewJournalVoucherUnlockedEvent creates a JournalVoucherUnlockedEvent
func NewJournalVoucherUnlockedEvent(v *JournalVoucher, previous VoucherStatus, userID uuid.UUID, reason string) *JournalVoucherUnlockedEvent {
	return &JournalVoucherUnlockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalVoucherUnlocked, aggregateTypeJournalVoucher, v.ID, v.TenantID),
		VoucherID:       v.ID,
		VoucherNo:       v.VoucherNo,
		PreviousStatus:  previous,
		UnlockedBy:      userID,
		Reason:          reason,
	}
}
