package receivable

import (
	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	aggregateTypeInvoice = "Invoice"
	aggregateTypeReceipt = "Receipt"
)

// Event type names raised by the receivable aggregates
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoicePosted    = "InvoicePosted"
	EventTypeInvoiceCancelled = "InvoiceCancelled"
	EventTypeReceiptCreated   = "ReceiptCreated"
	EventTypeReceiptCommitted = "ReceiptCommitted"
	EventTypeReceiptCancelled = "ReceiptCancelled"
)

// InvoiceCreatedEvent is raised when an invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	InvoiceNo   string          `json:"invoice_no"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, aggregateTypeInvoice, i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNo:       i.InvoiceNo,
		CustomerID:      i.CustomerID,
		TotalAmount:     i.TotalAmount.Amount(),
	}
}

// InvoicePostedEvent is raised when an invoice is posted to the ledger
type InvoicePostedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	InvoiceNo string    `json:"invoice_no"`
}

// NewInvoicePostedEvent creates an InvoicePostedEvent
func NewInvoicePostedEvent(i *Invoice) *InvoicePostedEvent {
	return &InvoicePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePosted, aggregateTypeInvoice, i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNo:       i.InvoiceNo,
	}
}

// InvoiceCancelledEvent is raised when an unpaid invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	InvoiceNo string    `json:"invoice_no"`
	Reason    string    `json:"reason"`
}

// NewInvoiceCancelledEvent creates an InvoiceCancelledEvent
func NewInvoiceCancelledEvent(i *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, aggregateTypeInvoice, i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNo:       i.InvoiceNo,
		Reason:          i.CancelReason,
	}
}

// ReceiptCreatedEvent is raised when a receipt is recorded
type ReceiptCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptID  uuid.UUID       `json:"receipt_id"`
	ReceiptNo  string          `json:"receipt_no"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewReceiptCreatedEvent creates a ReceiptCreatedEvent
func NewReceiptCreatedEvent(r *Receipt) *ReceiptCreatedEvent {
	return &ReceiptCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptCreated, aggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptID:       r.ID,
		ReceiptNo:       r.ReceiptNo,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount.Amount(),
	}
}

// AllocationInfo is the event payload for one applied allocation
type AllocationInfo struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	InvoiceNo string          `json:"invoice_no"`
	Amount    decimal.Decimal `json:"amount"`
}

// ReceiptCommittedEvent is raised when allocations are applied to invoices
type ReceiptCommittedEvent struct {
	shared.BaseDomainEvent
	ReceiptID          uuid.UUID        `json:"receipt_id"`
	ReceiptNo          string           `json:"receipt_no"`
	Amount             decimal.Decimal  `json:"amount"`
	Allocated          decimal.Decimal  `json:"allocated"`
	PartiallyAllocated bool             `json:"partially_allocated"`
	Allocations        []AllocationInfo `json:"allocations"`
}

// NewReceiptCommittedEvent creates a ReceiptCommittedEvent
func NewReceiptCommittedEvent(r *Receipt) *ReceiptCommittedEvent {
	return &ReceiptCommittedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeReceiptCommitted, aggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptID:          r.ID,
		ReceiptNo:          r.ReceiptNo,
		Amount:             r.Amount.Amount(),
		Allocated:          r.AllocatedTotal().Amount(),
		PartiallyAllocated: r.PartiallyAllocated,
		Allocations:        allocationInfos(r.Allocations),
	}
}

// ReceiptCancelledEvent is raised when a receipt is voided
type ReceiptCancelledEvent struct {
	shared.BaseDomainEvent
	ReceiptID      uuid.UUID        `json:"receipt_id"`
	ReceiptNo      string           `json:"receipt_no"`
	PreviousStatus ReceiptStatus    `json:"previous_status"`
	Reason         string           `json:"reason"`
	Released       []AllocationInfo `json:"released,omitempty"`
}

// NewReceiptCancelledEvent creates a ReceiptCancelledEvent
func NewReceiptCancelledEvent(r *Receipt, previous ReceiptStatus) *ReceiptCancelledEvent {
	e := &ReceiptCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptCancelled, aggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptID:       r.ID,
		ReceiptNo:       r.ReceiptNo,
		PreviousStatus:  previous,
		Reason:          r.CancelReason,
	}
	if previous == ReceiptStatusCommitted {
		e.Released = allocationInfos(r.Allocations)
	}
	return e
}

func allocationInfos(allocs []Allocation) []AllocationInfo {
	out := make([]AllocationInfo, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, AllocationInfo{InvoiceID: a.InvoiceID, InvoiceNo: a.InvoiceNo, Amount: a.AllocatedAmount.Amount()})
	}
	return out
}
