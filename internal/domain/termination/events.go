package termination

import (
	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const aggregateTypeTermination = "Termination"

// Event type names raised by Termination
const (
	EventTypeTerminationCreated         = "TerminationCreated"
	EventTypeTerminationSubmitted       = "TerminationSubmitted"
	EventTypeTerminationApproved        = "TerminationApproved"
	EventTypeTerminationRefundProcessed = "TerminationRefundProcessed"
	EventTypeTerminationCompleted       = "TerminationCompleted"
	EventTypeTerminationCancelled       = "TerminationCancelled"
)

// TerminationCreatedEvent is raised when a termination is opened for a contract
type TerminationCreatedEvent struct {
	shared.BaseDomainEvent
	TerminationID   uuid.UUID       `json:"termination_id"`
	ContractID      uuid.UUID       `json:"contract_id"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
}

// NewTerminationCreatedEvent creates a TerminationCreatedEvent
func NewTerminationCreatedEvent(t *Termination) *TerminationCreatedEvent {
	return &TerminationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTerminationCreated, aggregateTypeTermination, t.ID, t.TenantID),
		TerminationID:   t.ID,
		ContractID:      t.ContractID,
		SecurityDeposit: t.SecurityDeposit.Amount(),
	}
}

// TerminationSubmittedEvent is raised on Draft to Pending
type TerminationSubmittedEvent struct {
	shared.BaseDomainEvent
	TerminationID uuid.UUID `json:"termination_id"`
}

// NewTerminationSubmittedEvent creates a TerminationSubmittedEvent
func NewTerminationSubmittedEvent(t *Termination) *TerminationSubmittedEvent {
	return &TerminationSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTerminationSubmitted, aggregateTypeTermination, t.ID, t.TenantID),
		TerminationID:   t.ID,
	}
}

// TerminationApprovedEvent carries the settlement frozen at approval
type TerminationApprovedEvent struct {
	shared.BaseDomainEvent
	TerminationID    uuid.UUID       `json:"termination_id"`
	ContractID       uuid.UUID       `json:"contract_id"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	CreditNoteAmount decimal.Decimal `json:"credit_note_amount"`
}

// NewTerminationApprovedEvent creates a TerminationApprovedEvent
func NewTerminationApprovedEvent(t *Termination) *TerminationApprovedEvent {
	return &TerminationApprovedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTerminationApproved, aggregateTypeTermination, t.ID, t.TenantID),
		TerminationID:    t.ID,
		ContractID:       t.ContractID,
		RefundAmount:     t.RefundAmount.Amount(),
		CreditNoteAmount: t.CreditNoteAmount.Amount(),
	}
}

// TerminationRefundProcessedEvent is raised once the deposit refund is paid
type TerminationRefundProcessedEvent struct {
	shared.BaseDomainEvent
	TerminationID   uuid.UUID       `json:"termination_id"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	RefundReference string          `json:"refund_reference"`
}

// NewTerminationRefundProcessedEvent creates a TerminationRefundProcessedEvent
func NewTerminationRefundProcessedEvent(t *Termination) *TerminationRefundProcessedEvent {
	return &TerminationRefundProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTerminationRefundProcessed, aggregateTypeTermination, t.ID, t.TenantID),
		TerminationID:   t.ID,
		RefundAmount:    t.RefundAmount.Amount(),
		RefundReference: t.RefundReference,
	}
}

// TerminationCompletedEvent is raised when a termination closes through a credit note
type TerminationCompletedEvent struct {
	shared.BaseDomainEvent
	TerminationID    uuid.UUID       `json:"termination_id"`
	CreditNoteNo     string          `json:"credit_note_no"`
	CreditNoteAmount decimal.Decimal `json:"credit_note_amount"`
}

// NewTerminationCompletedEvent creates a TerminationCompletedEvent
func NewTerminationCompletedEvent(t *Termination) *TerminationCompletedEvent {
	return &TerminationCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeTerminationCompleted, aggregateTypeTermination, t.ID, t.TenantID),
		TerminationID:    t.ID,
		CreditNoteNo:     t.CreditNoteNo,
		CreditNoteAmount: t.CreditNoteAmount.Amount(),
	}
}

// TerminationCancelledEvent is raised when a termination is abandoned
type TerminationCancelledEvent struct {
	shared.BaseDomainEvent
	TerminationID  uuid.UUID `json:"termination_id"`
	PreviousStatus Status    `json:"previous_status"`
	Reason         string    `json:"reason"`
}

// NewTerminationCancelledEvent creates a TerminationCancelledEvent
func NewTerminationCancelledEvent(t *Termination, previous Status) *TerminationCancelledEvent {
	return &TerminationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTerminationCancelled, aggregateTypeTermination, t.ID, t.TenantID),
		TerminationID:   t.ID,
		PreviousStatus:  previous,
		Reason:          t.CancelReason,
	}
}
