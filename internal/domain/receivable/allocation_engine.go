package receivable

import (
	"fmt"
	"strings"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarningPartiallyAllocated is the warning code returned when a commit leaves money unallocated
const WarningPartiallyAllocated = "PARTIALLY_ALLOCATED"

// AllocationPlan is the proposal produced by AutoAllocate
type AllocationPlan struct {
	Allocations    []Allocation
	TotalAllocated valueobject.Money
	Remaining      valueobject.Money
}

// AllocationWarning reports that a receipt is not fully allocated
type AllocationWarning struct {
	Code          string            `json:"code"`
	Message       string            `json:"message"`
	ReceiptAmount valueobject.Money `json:"receipt_amount"`
	Allocated     valueobject.Money `json:"allocated"`
	Unallocated   valueobject.Money `json:"unallocated"`
}

// CommitOptions controls how Commit treats a partial allocation
type CommitOptions struct {
	UserID       uuid.UUID
	AllowPartial bool
}

// CommitResult is the outcome of evaluating or committing a receipt.
// Committed is false with a Warning when a partial allocation needs confirmation.
type CommitResult struct {
	Committed   bool
	Allocated   valueobject.Money
	Unallocated valueobject.Money
	Warning     *AllocationWarning
}

// AllocationEngine distributes receipts over open invoices
type AllocationEngine struct {
	strategy  AllocationStrategy
	tolerance decimal.Decimal
}

// NewAllocationEngine creates an engine; a nil strategy means caller order
func NewAllocationEngine(strategy AllocationStrategy) *AllocationEngine {
	if strategy == nil {
		strategy = NewCallerOrderStrategy()
	}
	return &AllocationEngine{strategy: strategy, tolerance: valueobject.Epsilon}
}

// Strategy returns the ordering strategy used by AutoAllocate
func (e *AllocationEngine) Strategy() AllocationStrategy {
	return e.strategy
}

// AutoAllocate proposes allocations of amount across invoices, giving each
// min(remaining, balance) until the amount runs out. Invoices without a positive
// balance are skipped. Nothing is mutated.
func (e *AllocationEngine) AutoAllocate(amount valueobject.Money, invoices []OutstandingInvoice) (*AllocationPlan, error) {
	if err := amount.RequireNonNegative("receipt_amount"); err != nil {
		return nil, err
	}
	remaining := amount
	plan := &AllocationPlan{Allocations: make([]Allocation, 0, len(invoices))}
	for _, inv := range e.strategy.Order(invoices) {
		if !remaining.IsPositive() {
			break
		}
		if !inv.Balance.IsPositive() {
			continue
		}
		portion, err := valueobject.Min(remaining, inv.Balance)
		if err != nil {
			return nil, err
		}
		alloc, err := NewAllocation(inv, portion)
		if err != nil {
			return nil, err
		}
		plan.Allocations = append(plan.Allocations, alloc)
		if remaining, err = remaining.Subtract(portion); err != nil {
			return nil, err
		}
	}
	plan.Remaining = remaining
	plan.TotalAllocated, _ = amount.Subtract(remaining)
	return plan, nil
}

// Evaluate checks a receipt's allocations against its amount without committing.
// Over-allocation beyond the tolerance is an error; under-allocation yields a warning.
func (e *AllocationEngine) Evaluate(r *Receipt) (*CommitResult, error) {
	allocated := r.AllocatedTotal()
	unallocated := r.UnallocatedAmount()
	result := &CommitResult{Allocated: allocated, Unallocated: unallocated}

	limit := r.Amount.Amount().Add(e.tolerance)
	if allocated.Amount().GreaterThan(limit) {
		return nil, shared.NewValidationError(shared.CodeOverAllocated,
			fmt.Sprintf("Allocated %s exceeds receipt amount %s", allocated.StringFixed(), r.Amount.StringFixed())).
			WithEntity("receipt", r.ID).
			WithExpected("<= "+r.Amount.StringFixed(), allocated.StringFixed())
	}
	floor := r.Amount.Amount().Sub(e.tolerance)
	if allocated.Amount().LessThan(floor) {
		result.Warning = &AllocationWarning{
			Code:          WarningPartiallyAllocated,
			Message:       fmt.Sprintf("%s of %s remains unallocated", unallocated.StringFixed(), r.Amount.StringFixed()),
			ReceiptAmount: r.Amount,
			Allocated:     allocated,
			Unallocated:   unallocated,
		}
	}
	return result, nil
}

// Commit applies the receipt's allocations to the given invoices and marks the
// receipt Committed. All checks run before any invoice is touched, so either every
// allocation is applied or none is. Callers must load invoices under a row lock or
// rely on optimistic versioning when persisting.
func (e *AllocationEngine) Commit(r *Receipt, invoices map[uuid.UUID]*Invoice, opts CommitOptions) (*CommitResult, error) {
	if err := r.ensureDraft("commit"); err != nil {
		return nil, err
	}
	result, err := e.Evaluate(r)
	if err != nil {
		return nil, err
	}
	if result.Warning != nil && !opts.AllowPartial {
		return result, nil
	}

	for _, a := range r.Allocations {
		inv, ok := invoices[a.InvoiceID]
		if !ok || inv == nil {
			return nil, shared.NewNotFoundError("invoice", a.InvoiceID)
		}
		if inv.TenantID != r.TenantID {
			return nil, shared.NewNotFoundError("invoice", a.InvoiceID)
		}
		if inv.CustomerID != r.CustomerID {
			return nil, shared.NewValidationError("CUSTOMER_MISMATCH", fmt.Sprintf("Invoice %s belongs to another customer", inv.InvoiceNo)).
				WithEntity("invoice", inv.ID).
				WithExpected(r.CustomerID, inv.CustomerID)
		}
		if err := inv.CheckAllocatable(a.AllocatedAmount); err != nil {
			return nil, err
		}
	}

	for i := range r.Allocations {
		a := &r.Allocations[i]
		inv := invoices[a.InvoiceID]
		a.OriginalBalance = inv.BalanceAmount
		if err := inv.ApplyAllocation(a.AllocatedAmount); err != nil {
			return nil, err
		}
	}

	r.markCommitted(opts.UserID, result.Warning != nil)
	result.Committed = true
	return result, nil
}

// Cancel voids a receipt. For a committed receipt every allocation is returned
// to its invoice first; as with Commit, all checks run before any mutation.
func (e *AllocationEngine) Cancel(r *Receipt, invoices map[uuid.UUID]*Invoice, userID uuid.UUID, reason string) error {
	if r.Status == ReceiptStatusCancelled {
		return shared.NewStateError(shared.CodeAlreadyProcessed, "Receipt is already cancelled").
			WithEntity("receipt", r.ID)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("REASON_REQUIRED", "Cancel reason is required")
	}
	if r.Status == ReceiptStatusCommitted {
		for _, a := range r.Allocations {
			inv, ok := invoices[a.InvoiceID]
			if !ok || inv == nil {
				return shared.NewNotFoundError("invoice", a.InvoiceID)
			}
			restored, err := inv.BalanceAmount.Add(a.AllocatedAmount)
			if err != nil {
				return err
			}
			if over, _ := restored.GreaterThan(inv.TotalAmount); over {
				return shared.NewValidationError(shared.CodeInvalidAmount, "Released amount exceeds what was paid").
					WithEntity("invoice", inv.ID)
			}
		}
		for _, a := range r.Allocations {
			if err := invoices[a.InvoiceID].ReleaseAllocation(a.AllocatedAmount); err != nil {
				return err
			}
		}
	}
	r.markCancelled(userID, reason)
	return nil
}
