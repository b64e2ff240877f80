package termination

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of a contract termination
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for Completed and Cancelled
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsEditable returns true while figures may still change
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusPending
}

// IsDeletable returns false once the termination is Approved or Completed
func (s Status) IsDeletable() bool {
	return s != StatusApproved && s != StatusCompleted
}

// Termination closes out a lease contract's security deposit
type Termination struct {
	shared.TenantAggregateRoot
	TerminationNo    string
	ContractID       uuid.UUID
	CustomerID       uuid.UUID
	TerminationDate  time.Time
	SecurityDeposit  valueobject.Money
	Deductions       []Deduction
	AdjustAmount     valueobject.Money
	RefundAmount     valueobject.Money
	CreditNoteAmount valueobject.Money
	Status           Status
	Remark           string

	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	RefundProcessed bool
	RefundDate      *time.Time
	RefundReference string
	CreditNoteNo    string
	CompletedAt     *time.Time
	CompletedBy     *uuid.UUID
	CancelledAt     *time.Time
	CancelledBy     *uuid.UUID
	CancelReason    string
}

// NewTermination creates a Draft termination whose whole deposit is refundable
func NewTermination(tenantID uuid.UUID, terminationNo string, contractID, customerID uuid.UUID, terminationDate time.Time, deposit valueobject.Money) (*Termination, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	terminationNo = strings.TrimSpace(terminationNo)
	if terminationNo == "" {
		return nil, shared.NewValidationError("INVALID_TERMINATION_NO", "Termination number cannot be empty")
	}
	if len(terminationNo) > 50 {
		return nil, shared.NewValidationError("INVALID_TERMINATION_NO", "Termination number cannot exceed 50 characters")
	}
	if contractID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if terminationDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Termination date is required")
	}
	if err := deposit.RequireNonNegative("security_deposit"); err != nil {
		return nil, err
	}

	t := &Termination{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TerminationNo:       terminationNo,
		ContractID:          contractID,
		CustomerID:          customerID,
		TerminationDate:     terminationDate,
		SecurityDeposit:     deposit,
		Deductions:          make([]Deduction, 0),
		AdjustAmount:        valueobject.Zero(deposit.Currency()),
		Status:              StatusDraft,
	}
	if _, err := t.Recalculate(); err != nil {
		return nil, err
	}
	t.AddDomainEvent(NewTerminationCreatedEvent(t))
	return t, nil
}

// Currency returns the deposit currency every figure is held in
func (t *Termination) Currency() valueobject.Currency {
	return t.SecurityDeposit.Currency()
}

// TotalDeductions sums the deduction lines
func (t *Termination) TotalDeductions() valueobject.Money {
	total, _ := ComputeDeductionTotal(t.Currency(), t.Deductions)
	return total
}

// Settlement computes the settlement from the current figures without storing it
func (t *Termination) Settlement() (Settlement, error) {
	total, err := ComputeDeductionTotal(t.Currency(), t.Deductions)
	if err != nil {
		return Settlement{}, err
	}
	return Settle(t.SecurityDeposit, total, t.AdjustAmount)
}

// Recalculate settles the current figures and stores the refund and credit-note amounts
func (t *Termination) Recalculate() (Settlement, error) {
	s, err := t.Settlement()
	if err != nil {
		return Settlement{}, err
	}
	t.RefundAmount = s.RefundAmount
	t.CreditNoteAmount = s.CreditNoteAmount
	return s, nil
}

// SetSecurityDeposit replaces the deposit amount
func (t *Termination) SetSecurityDeposit(deposit valueobject.Money) error {
	if err := t.ensureEditable("change deposit"); err != nil {
		return err
	}
	if err := deposit.RequireNonNegative("security_deposit"); err != nil {
		return err
	}
	if deposit.Currency() != t.Currency() {
		return currencyMismatch(t.Currency(), deposit.Currency())
	}
	t.SecurityDeposit = deposit
	return t.changed()
}

// AddDeduction appends a deduction line
func (t *Termination) AddDeduction(d Deduction) error {
	if err := t.ensureEditable("add deduction"); err != nil {
		return err
	}
	if d.TotalAmount.Currency() != t.Currency() {
		return currencyMismatch(t.Currency(), d.TotalAmount.Currency())
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.LineNo = len(t.Deductions) + 1
	t.Deductions = append(t.Deductions, d)
	return t.changed()
}

// UpdateDeduction reprices an existing deduction line
func (t *Termination) UpdateDeduction(id uuid.UUID, description string, amount valueobject.Money, taxPercentage decimal.Decimal) error {
	if err := t.ensureEditable("update deduction"); err != nil {
		return err
	}
	if amount.Currency() != t.Currency() {
		return currencyMismatch(t.Currency(), amount.Currency())
	}
	for i := range t.Deductions {
		if t.Deductions[i].ID != id {
			continue
		}
		next := t.Deductions[i]
		if desc := strings.TrimSpace(description); desc != "" {
			next.Description = desc
		}
		if err := next.reprice(amount, taxPercentage); err != nil {
			return err
		}
		t.Deductions[i] = next
		return t.changed()
	}
	return shared.NewNotFoundError("deduction", id)
}

// RemoveDeduction drops a deduction line and renumbers the rest
func (t *Termination) RemoveDeduction(id uuid.UUID) error {
	if err := t.ensureEditable("remove deduction"); err != nil {
		return err
	}
	for i := range t.Deductions {
		if t.Deductions[i].ID == id {
			t.Deductions = append(t.Deductions[:i], t.Deductions[i+1:]...)
			for j := range t.Deductions {
				t.Deductions[j].LineNo = j + 1
			}
			return t.changed()
		}
	}
	return shared.NewNotFoundError("deduction", id)
}

// SetAdjustment sets the signed adjustment; a negative value adds back to the refund
func (t *Termination) SetAdjustment(amount valueobject.Money) error {
	if err := t.ensureEditable("set adjustment"); err != nil {
		return err
	}
	if amount.Currency() != t.Currency() {
		return currencyMismatch(t.Currency(), amount.Currency())
	}
	t.AdjustAmount = amount
	return t.changed()
}

// Submit moves a Draft termination to Pending
func (t *Termination) Submit() error {
	if t.Status != StatusDraft {
		return t.transitionError("submit", StatusDraft)
	}
	if _, err := t.Recalculate(); err != nil {
		return err
	}
	now := time.Now()
	t.Status = StatusPending
	t.SubmittedAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewTerminationSubmittedEvent(t))
	return nil
}

// Approve moves a Pending termination to Approved, freezing its figures
func (t *Termination) Approve(userID uuid.UUID) error {
	if t.Status != StatusPending {
		return t.transitionError("approve", StatusPending)
	}
	if _, err := t.Recalculate(); err != nil {
		return err
	}
	now := time.Now()
	t.Status = StatusApproved
	t.ApprovedAt = &now
	if userID != uuid.Nil {
		t.ApprovedBy = &userID
	}
	t.UpdatedAt = now
	t.AddDomainEvent(NewTerminationApprovedEvent(t))
	return nil
}

// ProcessRefund pays out the refund and completes the termination. It can run once.
func (t *Termination) ProcessRefund(userID uuid.UUID, refundDate time.Time, reference string) error {
	if t.RefundProcessed {
		return shared.NewStateError(shared.CodeAlreadyProcessed, "Refund has already been processed").
			WithEntity("termination", t.ID).
			WithDetail("refund_reference", t.RefundReference)
	}
	if t.Status != StatusApproved {
		return t.transitionError("process refund", StatusApproved)
	}
	s, err := t.Recalculate()
	if err != nil {
		return err
	}
	if !s.HasRefund() {
		return shared.NewStateError(shared.CodeNoRefundDue, "No refund is due for this termination").
			WithEntity("termination", t.ID).
			WithExpected("> 0", s.RefundAmount.StringFixed()).
			WithDetail("credit_note_amount", s.CreditNoteAmount.StringFixed())
	}
	if refundDate.IsZero() {
		refundDate = time.Now()
	}
	now := time.Now()
	t.RefundProcessed = true
	t.RefundDate = &refundDate
	t.RefundReference = strings.TrimSpace(reference)
	t.complete(userID, now)
	t.AddDomainEvent(NewTerminationRefundProcessedEvent(t))
	return nil
}

// CompleteWithCreditNote completes an Approved termination where nothing is refunded
func (t *Termination) CompleteWithCreditNote(userID uuid.UUID, creditNoteNo string) error {
	if t.Status != StatusApproved {
		return t.transitionError("complete", StatusApproved)
	}
	s, err := t.Recalculate()
	if err != nil {
		return err
	}
	if s.HasRefund() {
		return shared.NewStateError(shared.CodeInvalidState, "A refund is due; process the refund instead").
			WithEntity("termination", t.ID).
			WithExpected("0.00", s.RefundAmount.StringFixed())
	}
	creditNoteNo = strings.TrimSpace(creditNoteNo)
	if s.HasCreditNote() && creditNoteNo == "" {
		return shared.NewValidationError("CREDIT_NOTE_REQUIRED", "Credit note number is required").
			WithEntity("termination", t.ID).
			WithDetail("credit_note_amount", s.CreditNoteAmount.StringFixed())
	}
	t.CreditNoteNo = creditNoteNo
	t.complete(userID, time.Now())
	t.AddDomainEvent(NewTerminationCompletedEvent(t))
	return nil
}

// Cancel cancels a termination from any non-terminal status
func (t *Termination) Cancel(userID uuid.UUID, reason string) error {
	if t.Status.IsTerminal() {
		return shared.NewStateError(shared.CodeInvalidState, fmt.Sprintf("Cannot cancel a %s termination", t.Status)).
			WithEntity("termination", t.ID).
			WithExpected("DRAFT|PENDING|APPROVED", t.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("REASON_REQUIRED", "Cancel reason is required")
	}
	now := time.Now()
	previous := t.Status
	t.Status = StatusCancelled
	t.CancelledAt = &now
	if userID != uuid.Nil {
		t.CancelledBy = &userID
	}
	t.CancelReason = reason
	t.UpdatedAt = now
	t.AddDomainEvent(NewTerminationCancelledEvent(t, previous))
	return nil
}

// EnsureDeletable rejects deletion once the termination is Approved or Completed
func (t *Termination) EnsureDeletable() error {
	if !t.Status.IsDeletable() {
		return shared.NewStateError(shared.CodeLockedForEditing, fmt.Sprintf("Cannot delete a %s termination", t.Status)).
			WithEntity("termination", t.ID).
			WithExpected("DRAFT|PENDING|CANCELLED", t.Status)
	}
	return nil
}

func (t *Termination) complete(userID uuid.UUID, now time.Time) {
	t.Status = StatusCompleted
	t.CompletedAt = &now
	if userID != uuid.Nil {
		t.CompletedBy = &userID
	}
	t.UpdatedAt = now
}

func (t *Termination) changed() error {
	if _, err := t.Recalculate(); err != nil {
		return err
	}
	t.Touch()
	return nil
}

func (t *Termination) ensureEditable(op string) error {
	if !t.Status.IsEditable() {
		return shared.NewStateError(shared.CodeLockedForEditing, fmt.Sprintf("Cannot %s on a %s termination", op, t.Status)).
			WithEntity("termination", t.ID).
			WithExpected("DRAFT|PENDING", t.Status)
	}
	return nil
}

func (t *Termination) transitionError(op string, expected Status) *shared.DomainError {
	return shared.NewStateError(shared.CodeInvalidState, fmt.Sprintf("Cannot %s a %s termination", op, t.Status)).
		WithEntity("termination", t.ID).
		WithExpected(expected, t.Status)
}

func currencyMismatch(expected, actual valueobject.Currency) *shared.DomainError {
	return shared.NewValidationError(shared.CodeCurrencyMismatch, "Amount currency differs from the deposit currency").
		WithExpected(expected, actual)
}
