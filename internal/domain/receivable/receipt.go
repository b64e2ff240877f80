package receivable

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptStatus is the lifecycle status of a receipt
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "DRAFT"
	ReceiptStatusCommitted ReceiptStatus = "COMMITTED"
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

// IsValid checks if the status is known
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusDraft, ReceiptStatusCommitted, ReceiptStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s ReceiptStatus) String() string {
	return string(s)
}

// Receipt is money received from a customer, distributed over open invoices
type Receipt struct {
	shared.TenantAggregateRoot
	ReceiptNo          string
	CustomerID         uuid.UUID
	ContractID         *uuid.UUID
	ReceiptDate        time.Time
	Amount             valueobject.Money
	ExchangeRate       decimal.Decimal
	Status             ReceiptStatus
	Allocations        []Allocation
	PartiallyAllocated bool
	Remark             string
	CommittedAt        *time.Time
	CommittedBy        *uuid.UUID
	CancelledAt        *time.Time
	CancelledBy        *uuid.UUID
	CancelReason       string
}

// NewReceipt creates a Draft receipt with no allocations
func NewReceipt(tenantID uuid.UUID, receiptNo string, customerID uuid.UUID, receiptDate time.Time, amount valueobject.Money) (*Receipt, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	receiptNo = strings.TrimSpace(receiptNo)
	if receiptNo == "" {
		return nil, shared.NewValidationError("INVALID_RECEIPT_NO", "Receipt number cannot be empty")
	}
	if len(receiptNo) > 50 {
		return nil, shared.NewValidationError("INVALID_RECEIPT_NO", "Receipt number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if receiptDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Receipt date is required")
	}
	if err := amount.RequirePositive("receipt_amount"); err != nil {
		return nil, err
	}

	r := &Receipt{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNo:           receiptNo,
		CustomerID:          customerID,
		ReceiptDate:         receiptDate,
		Amount:              amount,
		ExchangeRate:        decimal.NewFromInt(1),
		Status:              ReceiptStatusDraft,
		Allocations:         make([]Allocation, 0),
	}
	r.AddDomainEvent(NewReceiptCreatedEvent(r))
	return r, nil
}

// SetContract links the receipt to a lease contract
func (r *Receipt) SetContract(contractID uuid.UUID) error {
	if err := r.ensureDraft("set contract"); err != nil {
		return err
	}
	if contractID == uuid.Nil {
		r.ContractID = nil
	} else {
		r.ContractID = &contractID
	}
	r.Touch()
	return nil
}

// SetExchangeRate records the rate to the company base currency
func (r *Receipt) SetExchangeRate(rate decimal.Decimal) error {
	if err := r.ensureDraft("set exchange rate"); err != nil {
		return err
	}
	if !rate.IsPositive() {
		return shared.NewValidationError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive").
			WithDetail("rate", rate.String())
	}
	r.ExchangeRate = rate
	r.Touch()
	return nil
}

// Currency returns the receipt currency
func (r *Receipt) Currency() valueobject.Currency {
	return r.Amount.Currency()
}

// SetAllocation sets the amount allocated to inv, replacing any existing allocation.
// A zero amount removes the allocation.
func (r *Receipt) SetAllocation(inv OutstandingInvoice, amount valueobject.Money) error {
	if err := r.ensureDraft("change allocations"); err != nil {
		return err
	}
	alloc, err := NewAllocation(inv, amount)
	if err != nil {
		return err
	}
	if alloc.AllocatedAmount.Currency() != r.Currency() {
		return shared.NewValidationError(shared.CodeCurrencyMismatch, "Allocation currency differs from receipt currency").
			WithExpected(r.Currency(), alloc.AllocatedAmount.Currency())
	}
	if amount.IsZero() {
		r.removeAllocation(inv.InvoiceID)
		r.Touch()
		return nil
	}
	for i := range r.Allocations {
		if r.Allocations[i].InvoiceID == inv.InvoiceID {
			alloc.ID = r.Allocations[i].ID
			r.Allocations[i] = alloc
			r.Touch()
			return nil
		}
	}
	r.Allocations = append(r.Allocations, alloc)
	r.Touch()
	return nil
}

// RemoveAllocation drops the allocation for invoiceID. Removing an absent allocation is a no-op.
func (r *Receipt) RemoveAllocation(invoiceID uuid.UUID) error {
	if err := r.ensureDraft("change allocations"); err != nil {
		return err
	}
	if r.removeAllocation(invoiceID) {
		r.Touch()
	}
	return nil
}

// ReplaceAllocations swaps in a complete allocation set, e.g. one produced by AutoAllocate
func (r *Receipt) ReplaceAllocations(allocations []Allocation) error {
	if err := r.ensureDraft("change allocations"); err != nil {
		return err
	}
	seen := make(map[uuid.UUID]struct{}, len(allocations))
	next := make([]Allocation, 0, len(allocations))
	for _, a := range allocations {
		if _, dup := seen[a.InvoiceID]; dup {
			return shared.NewValidationError("DUPLICATE_ALLOCATION", "Invoice allocated more than once").
				WithEntity("invoice", a.InvoiceID)
		}
		seen[a.InvoiceID] = struct{}{}
		if a.AllocatedAmount.Currency() != r.Currency() {
			return shared.NewValidationError(shared.CodeCurrencyMismatch, "Allocation currency differs from receipt currency").
				WithExpected(r.Currency(), a.AllocatedAmount.Currency())
		}
		if a.AllocatedAmount.IsZero() {
			continue
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		next = append(next, a)
	}
	r.Allocations = next
	r.Touch()
	return nil
}

// AllocationFor returns the allocation for invoiceID, or nil
func (r *Receipt) AllocationFor(invoiceID uuid.UUID) *Allocation {
	for i := range r.Allocations {
		if r.Allocations[i].InvoiceID == invoiceID {
			return &r.Allocations[i]
		}
	}
	return nil
}

// AllocatedTotal sums all allocations
func (r *Receipt) AllocatedTotal() valueobject.Money {
	total := valueobject.Zero(r.Currency())
	for _, a := range r.Allocations {
		total, _ = total.Add(a.AllocatedAmount)
	}
	return total
}

// UnallocatedAmount is the receipt amount minus allocations; negative when over-allocated
func (r *Receipt) UnallocatedAmount() valueobject.Money {
	rest, _ := r.Amount.Subtract(r.AllocatedTotal())
	return rest
}

// InvoiceIDs returns the invoices the receipt allocates to
func (r *Receipt) InvoiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		ids = append(ids, a.InvoiceID)
	}
	return ids
}

// IsEditable returns true while allocations may change
func (r *Receipt) IsEditable() bool {
	return r.Status == ReceiptStatusDraft
}

// EnsureDeletable rejects deleting anything but a Draft receipt
func (r *Receipt) EnsureDeletable() error {
	if r.Status != ReceiptStatusDraft {
		return shared.NewStateError(shared.CodeLockedForEditing, "Only draft receipts can be deleted").
			WithEntity("receipt", r.ID).
			WithExpected(ReceiptStatusDraft, r.Status)
	}
	return nil
}

func (r *Receipt) markCommitted(userID uuid.UUID, partial bool) {
	now := time.Now()
	r.Status = ReceiptStatusCommitted
	r.PartiallyAllocated = partial
	r.CommittedAt = &now
	if userID != uuid.Nil {
		r.CommittedBy = &userID
	}
	r.UpdatedAt = now
	r.AddDomainEvent(NewReceiptCommittedEvent(r))
}

func (r *Receipt) markCancelled(userID uuid.UUID, reason string) {
	now := time.Now()
	previous := r.Status
	r.Status = ReceiptStatusCancelled
	r.CancelledAt = &now
	if userID != uuid.Nil {
		r.CancelledBy = &userID
	}
	r.CancelReason = reason
	r.UpdatedAt = now
	r.AddDomainEvent(NewReceiptCancelledEvent(r, previous))
}

func (r *Receipt) removeAllocation(invoiceID uuid.UUID) bool {
	for i := range r.Allocations {
		if r.Allocations[i].InvoiceID == invoiceID {
			r.Allocations = append(r.Allocations[:i], r.Allocations[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Receipt) ensureDraft(op string) error {
	if r.Status != ReceiptStatusDraft {
		return shared.NewStateError(shared.CodeLockedForEditing, fmt.Sprintf("Cannot %s on a %s receipt", op, r.Status)).
			WithEntity("receipt", r.ID).
			WithExpected(ReceiptStatusDraft, r.Status)
	}
	return nil
}
