package receivable

import (
	"time"

	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OutstandingInvoice is the read view the allocation engine works on
type OutstandingInvoice struct {
	InvoiceID uuid.UUID
	InvoiceNo string
	Balance   valueobject.Money
	DueDate   time.Time
	CreatedAt time.Time
}

// Allocation assigns part of a receipt to one invoice.
// OriginalBalance is the invoice balance when the allocation was made.
type Allocation struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	InvoiceNo       string
	AllocatedAmount valueobject.Money
	OriginalBalance valueobject.Money
}

// NewAllocation validates and builds an allocation against an outstanding invoice
func NewAllocation(inv OutstandingInvoice, amount valueobject.Money) (Allocation, error) {
	if amount.IsNegative() {
		return Allocation{}, negativeAllocationError(inv.InvoiceID, amount)
	}
	exceeds, err := amount.GreaterThan(inv.Balance)
	if err != nil {
		return Allocation{}, err
	}
	if exceeds {
		return Allocation{}, exceedsBalanceError(inv.InvoiceID, inv.Balance, amount)
	}
	return Allocation{
		ID:              uuid.New(),
		InvoiceID:       inv.InvoiceID,
		InvoiceNo:       inv.InvoiceNo,
		AllocatedAmount: amount,
		OriginalBalance: inv.Balance,
	}, nil
}

// BalanceAmount is what remains on the invoice after this allocation
func (a Allocation) BalanceAmount() valueobject.Money {
	balance, _ := a.OriginalBalance.Subtract(a.AllocatedAmount)
	return balance
}
