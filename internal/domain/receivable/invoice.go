package receivable

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// InvoiceStatus is the commercial status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusActive    InvoiceStatus = "ACTIVE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusActive || s == InvoiceStatusCancelled
}

// PostingStatus tracks whether the invoice has reached the ledger
type PostingStatus string

const (
	PostingStatusUnposted PostingStatus = "UNPOSTED"
	PostingStatusPosted   PostingStatus = "POSTED"
)

// Invoice is an amount billed to a customer under a lease contract.
// BalanceAmount = TotalAmount - sum of committed receipt allocations, and never goes below zero.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNo     string
	CustomerID    uuid.UUID
	ContractID    uuid.UUID
	InvoiceDate   time.Time
	DueDate       time.Time
	TotalAmount   valueobject.Money
	BalanceAmount valueobject.Money
	Status        InvoiceStatus
	PostingStatus PostingStatus
	PostedAt      *time.Time
	CancelledAt   *time.Time
	CancelReason  string
}

// NewInvoice creates an Active, Unposted invoice with its full amount outstanding
func NewInvoice(tenantID uuid.UUID, invoiceNo string, customerID, contractID uuid.UUID, invoiceDate, dueDate time.Time, total valueobject.Money) (*Invoice, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	invoiceNo = strings.TrimSpace(invoiceNo)
	if invoiceNo == "" {
		return nil, shared.NewValidationError("INVALID_INVOICE_NO", "Invoice number cannot be empty")
	}
	if len(invoiceNo) > 50 {
		return nil, shared.NewValidationError("INVALID_INVOICE_NO", "Invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if contractID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if invoiceDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Invoice date is required")
	}
	if dueDate.IsZero() {
		dueDate = invoiceDate
	}
	if dueDate.Before(invoiceDate) {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
	}
	if err := total.RequirePositive("total_amount"); err != nil {
		return nil, err
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNo:           invoiceNo,
		CustomerID:          customerID,
		ContractID:          contractID,
		InvoiceDate:         invoiceDate,
		DueDate:             dueDate,
		TotalAmount:         total,
		BalanceAmount:       total,
		Status:              InvoiceStatusActive,
		PostingStatus:       PostingStatusUnposted,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Currency returns the invoice currency
func (i *Invoice) Currency() valueobject.Currency {
	return i.TotalAmount.Currency()
}

// PaidAmount returns how much has been allocated so far
func (i *Invoice) PaidAmount() valueobject.Money {
	paid, _ := i.TotalAmount.Subtract(i.BalanceAmount)
	return paid
}

// IsOutstanding returns true if the invoice can still receive allocations
func (i *Invoice) IsOutstanding() bool {
	return i.Status == InvoiceStatusActive && i.BalanceAmount.IsPositive()
}

// ToOutstanding returns the allocation view of the invoice
func (i *Invoice) ToOutstanding() OutstandingInvoice {
	return OutstandingInvoice{
		InvoiceID: i.ID,
		InvoiceNo: i.InvoiceNo,
		Balance:   i.BalanceAmount,
		DueDate:   i.DueDate,
		CreatedAt: i.CreatedAt,
	}
}

// ApplyAllocation reduces the balance by a committed allocation
func (i *Invoice) ApplyAllocation(amount valueobject.Money) error {
	if err := i.CheckAllocatable(amount); err != nil {
		return err
	}
	balance, err := i.BalanceAmount.Subtract(amount)
	if err != nil {
		return err
	}
	i.BalanceAmount = balance
	i.Touch()
	return nil
}

// CheckAllocatable verifies that amount could be applied right now without changing anything
func (i *Invoice) CheckAllocatable(amount valueobject.Money) error {
	if i.Status != InvoiceStatusActive {
		return shared.NewStateError(shared.CodeInvalidState, fmt.Sprintf("Invoice %s is %s", i.InvoiceNo, i.Status)).
			WithEntity("invoice", i.ID).
			WithExpected(InvoiceStatusActive, i.Status)
	}
	if amount.IsNegative() {
		return negativeAllocationError(i.ID, amount)
	}
	exceeds, err := amount.GreaterThan(i.BalanceAmount)
	if err != nil {
		return err
	}
	if exceeds {
		return exceedsBalanceError(i.ID, i.BalanceAmount, amount)
	}
	return nil
}

// ReleaseAllocation restores balance when a committed allocation is rolled back
func (i *Invoice) ReleaseAllocation(amount valueobject.Money) error {
	if amount.IsNegative() {
		return negativeAllocationError(i.ID, amount)
	}
	balance, err := i.BalanceAmount.Add(amount)
	if err != nil {
		return err
	}
	over, err := balance.GreaterThan(i.TotalAmount)
	if err != nil {
		return err
	}
	if over {
		return shared.NewValidationError(shared.CodeInvalidAmount, "Released amount exceeds what was paid").
			WithEntity("invoice", i.ID).
			WithExpected(i.PaidAmount().StringFixed(), amount.StringFixed())
	}
	i.BalanceAmount = balance
	i.Touch()
	return nil
}

// Post marks the invoice as posted to the ledger
func (i *Invoice) Post() error {
	if i.Status != InvoiceStatusActive {
		return shared.NewStateError(shared.CodeInvalidState, "Only active invoices can be posted").
			WithEntity("invoice", i.ID).
			WithExpected(InvoiceStatusActive, i.Status)
	}
	if i.PostingStatus == PostingStatusPosted {
		return shared.NewStateError(shared.CodeAlreadyProcessed, "Invoice is already posted").
			WithEntity("invoice", i.ID)
	}
	now := time.Now()
	i.PostingStatus = PostingStatusPosted
	i.PostedAt = &now
	i.UpdatedAt = now
	i.AddDomainEvent(NewInvoicePostedEvent(i))
	return nil
}

// Unpost returns a posted invoice to Unposted; only allowed while nothing is paid
func (i *Invoice) Unpost() error {
	if i.PostingStatus != PostingStatusPosted {
		return shared.NewStateError(shared.CodeInvalidState, "Invoice is not posted").
			WithEntity("invoice", i.ID).
			WithExpected(PostingStatusPosted, i.PostingStatus)
	}
	if !i.PaidAmount().IsZero() {
		return shared.NewStateError(shared.CodeInvalidState, "Cannot unpost an invoice with allocations").
			WithEntity("invoice", i.ID).
			WithExpected("0.00", i.PaidAmount().StringFixed())
	}
	i.PostingStatus = PostingStatusUnposted
	i.PostedAt = nil
	i.Touch()
	return nil
}

// Cancel cancels the invoice; only permitted when nothing has been paid
func (i *Invoice) Cancel(reason string) error {
	if i.Status == InvoiceStatusCancelled {
		return shared.NewStateError(shared.CodeAlreadyProcessed, "Invoice is already cancelled").
			WithEntity("invoice", i.ID)
	}
	if !i.PaidAmount().IsZero() {
		return shared.NewStateError(shared.CodeInvalidState, "Cannot cancel an invoice that has been paid").
			WithEntity("invoice", i.ID).
			WithExpected("0.00", i.PaidAmount().StringFixed())
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("REASON_REQUIRED", "Cancel reason is required")
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	i.UpdatedAt = now
	i.AddDomainEvent(NewInvoiceCancelledEvent(i))
	return nil
}

func negativeAllocationError(invoiceID uuid.UUID, amount valueobject.Money) *shared.DomainError {
	return shared.NewValidationError(shared.CodeNegativeAllocation, "Allocation amount cannot be negative").
		WithEntity("invoice", invoiceID).
		WithExpected(">= 0", amount.StringFixed())
}

func exceedsBalanceError(invoiceID uuid.UUID, balance, amount valueobject.Money) *shared.DomainError {
	return shared.NewValidationError(shared.CodeExceedsInvoiceBalance,
		fmt.Sprintf("Allocation %s exceeds invoice balance %s", amount.StringFixed(), balance.StringFixed())).
		WithEntity("invoice", invoiceID).
		WithExpected("<= "+balance.StringFixed(), amount.StringFixed())
}
