package termination

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var terminationDate = time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

func createTestTermination(t *testing.T, deposit string) *Termination {
	t.Helper()
	term, err := NewTermination(uuid.New(), "TM-20260630-000001", uuid.New(), uuid.New(), terminationDate, usd(t, deposit))
	require.NoError(t, err)
	return term
}

func addDeduction(t *testing.T, term *Termination, amount string) Deduction {
	t.Helper()
	d, err := NewDeduction("Damages", usd(t, amount), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, term.AddDeduction(d))
	return term.Deductions[len(term.Deductions)-1]
}

func createApprovedTermination(t *testing.T, deposit, deductions string) *Termination {
	t.Helper()
	term := createTestTermination(t, deposit)
	addDeduction(t, term, deductions)
	require.NoError(t, term.Submit())
	require.NoError(t, term.Approve(uuid.New()))
	return term
}

func TestNewTermination(t *testing.T) {
	term := createTestTermination(t, "2000.00")
	assert.Equal(t, StatusDraft, term.Status)
	assert.Equal(t, "2000.00", term.RefundAmount.StringFixed())
	assert.True(t, term.CreditNoteAmount.IsZero())
	assert.True(t, term.AdjustAmount.IsZero())

	_, err := NewTermination(uuid.New(), "TM-1", uuid.New(), uuid.New(), terminationDate, usd(t, "-5"))
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))

	_, err = NewTermination(uuid.New(), "TM-1", uuid.Nil, uuid.New(), terminationDate, usd(t, "5"))
	assert.Error(t, err)
}

func TestTermination_DeductionsDriveSettlement(t *testing.T) {
	term := createTestTermination(t, "2000.00")
	d := addDeduction(t, term, "2500.00")
	assert.Equal(t, 1, d.LineNo)
	assert.Equal(t, "500.00", term.CreditNoteAmount.StringFixed())
	assert.True(t, term.RefundAmount.IsZero())

	require.NoError(t, term.UpdateDeduction(d.ID, "", usd(t, "1000.00"), decimal.NewFromInt(10)))
	assert.Equal(t, "1100.00", term.TotalDeductions().StringFixed())
	assert.Equal(t, "900.00", term.RefundAmount.StringFixed())

	require.NoError(t, term.SetAdjustment(usd(t, "-100.00")))
	assert.Equal(t, "1000.00", term.RefundAmount.StringFixed())

	require.NoError(t, term.RemoveDeduction(d.ID))
	assert.Equal(t, "2100.00", term.RefundAmount.StringFixed())

	assert.True(t, errors.Is(term.RemoveDeduction(d.ID), shared.ErrNotFound))
}

func TestTermination_Lifecycle(t *testing.T) {
	t.Run("submit and approve", func(t *testing.T) {
		term := createTestTermination(t, "2000.00")
		require.NoError(t, term.Submit())
		assert.Equal(t, StatusPending, term.Status)

		addDeduction(t, term, "100.00")
		assert.Equal(t, StatusPending, term.Status)

		userID := uuid.New()
		require.NoError(t, term.Approve(userID))
		assert.Equal(t, StatusApproved, term.Status)
		assert.Equal(t, userID, *term.ApprovedBy)

		err := term.SetAdjustment(usd(t, "1"))
		assert.True(t, errors.Is(err, shared.ErrLockedForEditing))
	})

	t.Run("approve requires pending", func(t *testing.T) {
		term := createTestTermination(t, "2000.00")
		assert.True(t, errors.Is(term.Approve(uuid.New()), shared.ErrInvalidState))
	})

	t.Run("submit twice", func(t *testing.T) {
		term := createTestTermination(t, "2000.00")
		require.NoError(t, term.Submit())
		assert.True(t, errors.Is(term.Submit(), shared.ErrInvalidState))
	})
}

func TestTermination_ProcessRefund(t *testing.T) {
	t.Run("completes an approved termination with a refund", func(t *testing.T) {
		term := createApprovedTermination(t, "2000.00", "1500.00")
		refundDate := terminationDate.AddDate(0, 0, 7)

		require.NoError(t, term.ProcessRefund(uuid.New(), refundDate, "CHQ-1001"))
		assert.Equal(t, StatusCompleted, term.Status)
		assert.True(t, term.RefundProcessed)
		assert.Equal(t, "CHQ-1001", term.RefundReference)
		assert.True(t, term.RefundDate.Equal(refundDate))

		events := term.GetDomainEvents()
		assert.Equal(t, EventTypeTerminationRefundProcessed, events[len(events)-1].EventType())
	})

	t.Run("second refund is already processed", func(t *testing.T) {
		term := createApprovedTermination(t, "2000.00", "1500.00")
		require.NoError(t, term.ProcessRefund(uuid.New(), time.Time{}, "CHQ-1"))

		err := term.ProcessRefund(uuid.New(), time.Time{}, "CHQ-2")
		assert.True(t, errors.Is(err, shared.ErrAlreadyProcessed))
		assert.Equal(t, "CHQ-1", term.RefundReference)
	})

	t.Run("no refund due when deductions exceed deposit", func(t *testing.T) {
		term := createApprovedTermination(t, "2000.00", "2500.00")

		err := term.ProcessRefund(uuid.New(), time.Time{}, "CHQ-1")
		require.True(t, errors.Is(err, shared.ErrNoRefundDue))
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.ErrorKindState, de.Kind)
		assert.Equal(t, "500.00", de.Details["credit_note_amount"])
		assert.Equal(t, StatusApproved, term.Status)
	})

	t.Run("requires approval", func(t *testing.T) {
		term := createTestTermination(t, "2000.00")
		require.NoError(t, term.Submit())
		err := term.ProcessRefund(uuid.New(), time.Time{}, "CHQ-1")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestTermination_CompleteWithCreditNote(t *testing.T) {
	t.Run("credit note path", func(t *testing.T) {
		term := createApprovedTermination(t, "2000.00", "2500.00")
		assert.Error(t, term.CompleteWithCreditNote(uuid.New(), ""))

		require.NoError(t, term.CompleteWithCreditNote(uuid.New(), "CN-0001"))
		assert.Equal(t, StatusCompleted, term.Status)
		assert.Equal(t, "CN-0001", term.CreditNoteNo)
	})

	t.Run("rejected when a refund is due", func(t *testing.T) {
		term := createApprovedTermination(t, "2000.00", "1500.00")
		err := term.CompleteWithCreditNote(uuid.New(), "CN-0001")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("zero balance completes without a number", func(t *testing.T) {
		term := createApprovedTermination(t, "2000.00", "2000.00")
		require.NoError(t, term.CompleteWithCreditNote(uuid.New(), ""))
		assert.Equal(t, StatusCompleted, term.Status)
	})
}

func TestTermination_CancelAndDelete(t *testing.T) {
	tests := []struct {
		name      string
		status    Status
		canCancel bool
		canDelete bool
	}{
		{"draft", StatusDraft, true, true},
		{"pending", StatusPending, true, true},
		{"approved", StatusApproved, true, false},
		{"completed", StatusCompleted, false, false},
		{"cancelled", StatusCancelled, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := createTestTermination(t, "100.00")
			term.Status = tt.status

			if tt.canDelete {
				assert.NoError(t, term.EnsureDeletable())
			} else {
				assert.True(t, errors.Is(term.EnsureDeletable(), shared.ErrLockedForEditing))
			}

			err := term.Cancel(uuid.New(), "contract renewed")
			if tt.canCancel {
				require.NoError(t, err)
				assert.Equal(t, StatusCancelled, term.Status)
			} else {
				assert.True(t, errors.Is(err, shared.ErrInvalidState))
			}
		})
	}

	t.Run("reason required", func(t *testing.T) {
		term := createTestTermination(t, "100.00")
		assert.Error(t, term.Cancel(uuid.New(), ""))
	})
}
