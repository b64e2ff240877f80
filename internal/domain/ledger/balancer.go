package ledger

import (
	"fmt"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BalanceResult summarises the two sides of a set of ledger entries.
// Difference is debits minus credits.
type BalanceResult struct {
	TotalDebits  valueobject.Money `json:"total_debits"`
	TotalCredits valueobject.Money `json:"total_credits"`
	Difference   valueobject.Money `json:"difference"`
	IsBalanced   bool              `json:"is_balanced"`
}

// JournalBalancer validates and commits journal vouchers
type JournalBalancer struct {
	tolerance decimal.Decimal
}

// NewJournalBalancer creates a balancer using the standard 0.01 tolerance
func NewJournalBalancer() *JournalBalancer {
	return &JournalBalancer{tolerance: valueobject.Epsilon}
}

// Validate totals the entries in the given currency. It is free of side effects
// and is what forms call for live feedback.
func (b *JournalBalancer) Validate(currency valueobject.Currency, entries []LedgerEntry) (BalanceResult, error) {
	debits := valueobject.Zero(currency)
	credits := valueobject.Zero(currency)
	for i := range entries {
		var err error
		if entries[i].IsDebit() {
			debits, err = debits.Add(entries[i].Amount)
		} else {
			credits, err = credits.Add(entries[i].Amount)
		}
		if err != nil {
			return BalanceResult{}, err
		}
	}
	diff, err := debits.Subtract(credits)
	if err != nil {
		return BalanceResult{}, err
	}
	return BalanceResult{
		TotalDebits:  debits,
		TotalCredits: credits,
		Difference:   diff,
		IsBalanced:   diff.IsZeroWithin(b.tolerance),
	}, nil
}

// Commit moves a Draft or Pending voucher to Pending once its entries balance.
func (b *JournalBalancer) Commit(v *JournalVoucher) (BalanceResult, error) {
	if !v.Status.IsEditable() {
		return BalanceResult{}, v.lockedError("commit")
	}
	if len(v.Entries) == 0 {
		return BalanceResult{}, shared.NewValidationError(shared.CodeEmptyVoucher, "Cannot commit a voucher without entries").
			WithEntity("journal_voucher", v.ID)
	}
	result, err := b.Validate(v.Currency, v.Entries)
	if err != nil {
		return BalanceResult{}, err
	}
	if !result.IsBalanced {
		return result, unbalancedError(v, result)
	}
	v.submit(result)
	return result, nil
}

func unbalancedError(v *JournalVoucher, result BalanceResult) *shared.DomainError {
	return shared.NewValidationError(shared.CodeUnbalancedEntry,
		fmt.Sprintf("Debits %s and credits %s differ by %s",
			result.TotalDebits.StringFixed(), result.TotalCredits.StringFixed(), result.Difference.Abs().StringFixed())).
		WithEntity("journal_voucher", v.ID).
		WithExpected(result.TotalDebits.StringFixed(), result.TotalCredits.StringFixed()).
		WithDetail("difference", result.Difference.Abs().StringFixed())
}
