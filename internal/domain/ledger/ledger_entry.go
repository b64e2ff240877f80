package ledger

import (
	"fmt"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the side of the ledger a line posts to
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// IsValid checks if the transaction type is Debit or Credit
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDebit || t == TransactionTypeCredit
}

// String returns the string representation
func (t TransactionType) String() string {
	return string(t)
}

// Opposite returns the other side of the ledger
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionTypeDebit {
		return TransactionTypeCredit
	}
	return TransactionTypeDebit
}

// MaxCostCenters is the number of cost-center dimensions a line can carry
const MaxCostCenters = 4

var hundred = decimal.NewFromInt(100)

// LedgerEntry is a single debit-or-credit line against an account.
// The side is carried by TransactionType and Amount is always positive,
// so a line holding both a debit and a credit amount cannot exist.
type LedgerEntry struct {
	ID              uuid.UUID
	LineNo          int
	AccountID       uuid.UUID
	TransactionType TransactionType
	Amount          valueobject.Money // voucher currency
	ExchangeRate    decimal.Decimal
	BaseAmount      valueobject.Money // base currency
	TaxPercentage   decimal.Decimal
	TaxAmount       valueobject.Money // derived from BaseAmount and TaxPercentage
	CostCenters     []uuid.UUID
	ReferenceType   string
	ReferenceID     *uuid.UUID
	Description     string
}

// EntryOption configures optional parts of a ledger entry
type EntryOption func(*LedgerEntry) error

// WithTax sets the tax percentage (0..100)
func WithTax(pct decimal.Decimal) EntryOption {
	return func(e *LedgerEntry) error {
		return e.setTaxPercentage(pct)
	}
}

// WithExchangeRate converts the line into the base currency at rate
func WithExchangeRate(base valueobject.Currency, rate decimal.Decimal) EntryOption {
	return func(e *LedgerEntry) error {
		baseAmount, err := e.Amount.ConvertTo(base, rate)
		if err != nil {
			return err
		}
		e.ExchangeRate = rate
		e.BaseAmount = baseAmount
		return nil
	}
}

// WithCostCenters assigns up to MaxCostCenters cost centers
func WithCostCenters(ids ...uuid.UUID) EntryOption {
	return func(e *LedgerEntry) error {
		if len(ids) > MaxCostCenters {
			return shared.NewValidationError(shared.CodeInvalidEntry,
				fmt.Sprintf("a ledger line can carry at most %d cost centers", MaxCostCenters)).
				WithExpected(MaxCostCenters, len(ids))
		}
		for _, id := range ids {
			if id == uuid.Nil {
				return shared.NewValidationError(shared.CodeInvalidEntry, "cost center id cannot be empty")
			}
		}
		e.CostCenters = append([]uuid.UUID(nil), ids...)
		return nil
	}
}

// WithReference links the line to a source document (invoice, receipt, termination)
func WithReference(referenceType string, referenceID uuid.UUID) EntryOption {
	return func(e *LedgerEntry) error {
		if referenceType == "" || referenceID == uuid.Nil {
			return shared.NewValidationError(shared.CodeInvalidEntry, "reference type and id must both be set")
		}
		e.ReferenceType = referenceType
		e.ReferenceID = &referenceID
		return nil
	}
}

// WithDescription sets the line narration
func WithDescription(description string) EntryOption {
	return func(e *LedgerEntry) error {
		e.Description = description
		return nil
	}
}

// NewDebitEntry creates a debit line
func NewDebitEntry(accountID uuid.UUID, amount valueobject.Money, opts ...EntryOption) (*LedgerEntry, error) {
	return newLedgerEntry(accountID, TransactionTypeDebit, amount, opts...)
}

// NewCreditEntry creates a credit line
func NewCreditEntry(accountID uuid.UUID, amount valueobject.Money, opts ...EntryOption) (*LedgerEntry, error) {
	return newLedgerEntry(accountID, TransactionTypeCredit, amount, opts...)
}

// NewEntryFromAmounts builds a line from a debit/credit column pair.
// Exactly one of the two must be non-zero; a line with both populated is rejected.
func NewEntryFromAmounts(accountID uuid.UUID, debit, credit valueobject.Money, opts ...EntryOption) (*LedgerEntry, error) {
	switch {
	case !debit.IsZero() && !credit.IsZero():
		return nil, shared.NewValidationError(shared.CodeInvalidEntry,
			"a ledger line cannot carry both a debit and a credit amount").
			WithDetail("debit", debit.StringFixed()).
			WithDetail("credit", credit.StringFixed())
	case !debit.IsZero():
		return NewDebitEntry(accountID, debit, opts...)
	case !credit.IsZero():
		return NewCreditEntry(accountID, credit, opts...)
	default:
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "a ledger line needs a non-zero debit or credit amount")
	}
}

func newLedgerEntry(accountID uuid.UUID, txType TransactionType, amount valueobject.Money, opts ...EntryOption) (*LedgerEntry, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidEntry, "account is required")
	}
	if !txType.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidEntry, fmt.Sprintf("unknown transaction type %q", txType))
	}
	if err := amount.RequirePositive("amount"); err != nil {
		return nil, err
	}
	e := &LedgerEntry{
		ID:              uuid.New(),
		AccountID:       accountID,
		TransactionType: txType,
		Amount:          amount,
		ExchangeRate:    decimal.NewFromInt(1),
		BaseAmount:      amount,
		TaxPercentage:   decimal.Zero,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.recomputeTax()
	return e, nil
}

// IsDebit reports whether the line posts to the debit side
func (e *LedgerEntry) IsDebit() bool {
	return e.TransactionType == TransactionTypeDebit
}

// DebitAmount returns the amount when the line is a debit, otherwise zero
func (e *LedgerEntry) DebitAmount() valueobject.Money {
	if e.IsDebit() {
		return e.Amount
	}
	return valueobject.Zero(e.Amount.Currency())
}

// CreditAmount returns the amount when the line is a credit, otherwise zero
func (e *LedgerEntry) CreditAmount() valueobject.Money {
	if !e.IsDebit() {
		return e.Amount
	}
	return valueobject.Zero(e.Amount.Currency())
}

// SetAmount changes the line amount, recomputing base and tax amounts
func (e *LedgerEntry) SetAmount(amount valueobject.Money) error {
	if err := amount.RequirePositive("amount"); err != nil {
		return err
	}
	if amount.Currency() != e.Amount.Currency() {
		return shared.NewValidationError(shared.CodeCurrencyMismatch, "line amount currency cannot change").
			WithExpected(e.Amount.Currency(), amount.Currency())
	}
	baseAmount, err := amount.ConvertTo(e.BaseAmount.Currency(), e.ExchangeRate)
	if err != nil {
		return err
	}
	e.Amount = amount
	e.BaseAmount = baseAmount
	e.recomputeTax()
	return nil
}

// SetTaxPercentage changes the tax rate, recomputing the tax amount
func (e *LedgerEntry) SetTaxPercentage(pct decimal.Decimal) error {
	if err := e.setTaxPercentage(pct); err != nil {
		return err
	}
	e.recomputeTax()
	return nil
}

// Mirror returns a new line posting the same amount to the opposite side
func (e *LedgerEntry) Mirror() LedgerEntry {
	m := *e
	m.ID = uuid.New()
	m.TransactionType = e.TransactionType.Opposite()
	m.CostCenters = append([]uuid.UUID(nil), e.CostCenters...)
	if e.ReferenceID != nil {
		ref := *e.ReferenceID
		m.ReferenceID = &ref
	}
	return m
}

func (e *LedgerEntry) setTaxPercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return shared.NewValidationError("INVALID_TAX_PERCENTAGE", "tax percentage must be between 0 and 100").
			WithExpected("0..100", pct.String())
	}
	e.TaxPercentage = pct
	return nil
}

// LineTaxAmount = round(BaseAmount * TaxPercentage / 100)
func (e *LedgerEntry) recomputeTax() {
	e.TaxAmount = e.BaseAmount.Percentage(e.TaxPercentage)
}
