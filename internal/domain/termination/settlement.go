package termination

import (
	"github.com/erp/leasing/internal/domain/shared/valueobject"
)

// Settlement is the money movement closing a terminated contract.
// At most one of RefundAmount and CreditNoteAmount is non-zero.
type Settlement struct {
	SecurityDeposit  valueobject.Money `json:"security_deposit"`
	TotalDeductions  valueobject.Money `json:"total_deductions"`
	Adjustment       valueobject.Money `json:"adjustment"`
	Balance          valueobject.Money `json:"balance"`
	RefundAmount     valueobject.Money `json:"refund_amount"`
	CreditNoteAmount valueobject.Money `json:"credit_note_amount"`
}

// Settle computes balance = deposit - deductions - adjustment. A positive balance is
// refunded to the tenant; otherwise its magnitude is billed as a credit note.
// Settle has no side effects.
func Settle(deposit, totalDeductions, adjustment valueobject.Money) (Settlement, error) {
	if err := deposit.RequireNonNegative("security_deposit"); err != nil {
		return Settlement{}, err
	}
	if err := totalDeductions.RequireNonNegative("total_deductions"); err != nil {
		return Settlement{}, err
	}
	afterDeductions, err := deposit.Subtract(totalDeductions)
	if err != nil {
		return Settlement{}, err
	}
	balance, err := afterDeductions.Subtract(adjustment)
	if err != nil {
		return Settlement{}, err
	}

	s := Settlement{
		SecurityDeposit:  deposit,
		TotalDeductions:  totalDeductions,
		Adjustment:       adjustment,
		Balance:          balance,
		RefundAmount:     valueobject.Zero(deposit.Currency()),
		CreditNoteAmount: valueobject.Zero(deposit.Currency()),
	}
	if balance.IsPositive() {
		s.RefundAmount = balance
	} else {
		s.CreditNoteAmount = balance.Abs()
	}
	return s, nil
}

// HasRefund reports whether money goes back to the tenant
func (s Settlement) HasRefund() bool {
	return s.RefundAmount.IsPositive()
}

// HasCreditNote reports whether the tenant owes money beyond the deposit
func (s Settlement) HasCreditNote() bool {
	return s.CreditNoteAmount.IsPositive()
}
