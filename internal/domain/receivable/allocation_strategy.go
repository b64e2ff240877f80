package receivable

import (
	"sort"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/strategy"
)

// AllocationStrategyType names the order in which auto-allocation visits invoices
type AllocationStrategyType string

const (
	AllocationStrategyCallerOrder    AllocationStrategyType = "caller_order"
	AllocationStrategyOldestDueFirst AllocationStrategyType = "oldest_due_first"
)

// IsValid checks if the strategy type is valid
func (t AllocationStrategyType) IsValid() bool {
	switch t {
	case AllocationStrategyCallerOrder, AllocationStrategyOldestDueFirst:
		return true
	}
	return false
}

// String returns the string representation
func (t AllocationStrategyType) String() string {
	return string(t)
}

// AllocationStrategy orders outstanding invoices for auto-allocation
type AllocationStrategy interface {
	strategy.Strategy
	StrategyType() AllocationStrategyType
	// Order returns the invoices in visiting order without modifying the input
	Order(invoices []OutstandingInvoice) []OutstandingInvoice
}

// CallerOrderStrategy visits invoices exactly in the order they were given
type CallerOrderStrategy struct {
	strategy.BaseStrategy
}

// NewCallerOrderStrategy creates a CallerOrderStrategy
func NewCallerOrderStrategy() *CallerOrderStrategy {
	return &CallerOrderStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"caller_order_allocation",
			strategy.StrategyTypeAllocation,
			"Allocates to invoices in the order supplied by the caller",
		),
	}
}

// StrategyType returns the allocation strategy type
func (s *CallerOrderStrategy) StrategyType() AllocationStrategyType {
	return AllocationStrategyCallerOrder
}

// Order returns a copy of invoices
func (s *CallerOrderStrategy) Order(invoices []OutstandingInvoice) []OutstandingInvoice {
	ordered := make([]OutstandingInvoice, len(invoices))
	copy(ordered, invoices)
	return ordered
}

// OldestDueFirstStrategy visits invoices by due date, then creation time, then number
type OldestDueFirstStrategy struct {
	strategy.BaseStrategy
}

// NewOldestDueFirstStrategy creates an OldestDueFirstStrategy
func NewOldestDueFirstStrategy() *OldestDueFirstStrategy {
	return &OldestDueFirstStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"oldest_due_first_allocation",
			strategy.StrategyTypeAllocation,
			"Allocates to the invoice with the earliest due date first",
		),
	}
}

// StrategyType returns the allocation strategy type
func (s *OldestDueFirstStrategy) StrategyType() AllocationStrategyType {
	return AllocationStrategyOldestDueFirst
}

// Order sorts a copy of invoices, oldest due date first
func (s *OldestDueFirstStrategy) Order(invoices []OutstandingInvoice) []OutstandingInvoice {
	ordered := make([]OutstandingInvoice, len(invoices))
	copy(ordered, invoices)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.InvoiceNo < b.InvoiceNo
	})
	return ordered
}

// NewAllocationStrategy returns the strategy registered under t
func NewAllocationStrategy(t AllocationStrategyType) (AllocationStrategy, error) {
	switch t {
	case AllocationStrategyCallerOrder, "":
		return NewCallerOrderStrategy(), nil
	case AllocationStrategyOldestDueFirst:
		return NewOldestDueFirstStrategy(), nil
	}
	return nil, shared.NewValidationError("INVALID_ALLOCATION_STRATEGY", "Unknown allocation strategy: "+string(t)).
		WithDetail("strategy", string(t))
}
