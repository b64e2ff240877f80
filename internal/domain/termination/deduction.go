package termination

import (
	"strings"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deduction is a charge withheld from the security deposit.
// TaxAmount = round(Amount * TaxPercentage / 100) and TotalAmount = Amount + TaxAmount.
type Deduction struct {
	ID            uuid.UUID
	LineNo        int
	Description   string
	Amount        valueobject.Money
	TaxPercentage decimal.Decimal
	TaxAmount     valueobject.Money
	TotalAmount   valueobject.Money
}

// NewDeduction builds a deduction line with its tax derived from amount and percentage
func NewDeduction(description string, amount valueobject.Money, taxPercentage decimal.Decimal) (Deduction, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Deduction{}, shared.NewValidationError("INVALID_DESCRIPTION", "Deduction description is required")
	}
	if len(description) > 500 {
		return Deduction{}, shared.NewValidationError("INVALID_DESCRIPTION", "Deduction description cannot exceed 500 characters")
	}
	d := Deduction{ID: uuid.New(), Description: description}
	if err := d.reprice(amount, taxPercentage); err != nil {
		return Deduction{}, err
	}
	return d, nil
}

func (d *Deduction) reprice(amount valueobject.Money, taxPercentage decimal.Decimal) error {
	if err := amount.RequireNonNegative("deduction_amount"); err != nil {
		return err
	}
	if taxPercentage.IsNegative() || taxPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("INVALID_TAX_PERCENTAGE", "Tax percentage must be between 0 and 100").
			WithExpected("0..100", taxPercentage.String())
	}
	tax := amount.Percentage(taxPercentage)
	total, err := amount.Add(tax)
	if err != nil {
		return err
	}
	d.Amount = amount
	d.TaxPercentage = taxPercentage
	d.TaxAmount = tax
	d.TotalAmount = total
	return nil
}

// ComputeDeductionTotal sums TotalAmount across deductions
func ComputeDeductionTotal(currency valueobject.Currency, deductions []Deduction) (valueobject.Money, error) {
	totals := make([]valueobject.Money, 0, len(deductions))
	for _, d := range deductions {
		totals = append(totals, d.TotalAmount)
	}
	return valueobject.Sum(currency, totals...)
}
