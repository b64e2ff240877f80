package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestVoucher(t *testing.T) *JournalVoucher {
	t.Helper()
	v, err := NewJournalVoucher(uuid.New(), VoucherHeader{
		TransactionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CompanyID:       uuid.New(),
		FiscalYearID:    uuid.New(),
		Currency:        valueobject.USD,
		Narration:       "Monthly rent accrual",
	})
	require.NoError(t, err)
	return v
}

func createApprovedVoucher(t *testing.T) *JournalVoucher {
	t.Helper()
	v := createTestVoucher(t)
	require.NoError(t, v.SetEntries([]LedgerEntry{debit(t, "1000.00"), credit(t, "1000.00")}))
	_, err := NewJournalBalancer().Commit(v)
	require.NoError(t, err)
	require.NoError(t, v.Approve(uuid.New()))
	return v
}

func createPostedVoucher(t *testing.T) *JournalVoucher {
	t.Helper()
	v := createApprovedVoucher(t)
	require.NoError(t, v.AssignVoucherNo("JV-20260301-000001"))
	require.NoError(t, v.Post(uuid.New(), time.Time{}))
	return v
}

// ==================== Constructor ====================

func TestNewJournalVoucher(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		v := createTestVoucher(t)
		assert.Equal(t, VoucherStatusDraft, v.Status)
		assert.Equal(t, VoucherTypeJournal, v.VoucherType)
		assert.Equal(t, JournalTypeGeneral, v.JournalType)
		assert.Equal(t, valueobject.USD, v.BaseCurrency)
		assert.True(t, v.ExchangeRate.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, 1, v.Version)
		require.Len(t, v.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeJournalVoucherCreated, v.GetDomainEvents()[0].EventType())
	})

	t.Run("foreign currency requires exchange rate", func(t *testing.T) {
		_, err := NewJournalVoucher(uuid.New(), VoucherHeader{
			TransactionDate: time.Now(),
			CompanyID:       uuid.New(),
			FiscalYearID:    uuid.New(),
			Currency:        valueobject.USD,
			BaseCurrency:    valueobject.AED,
		})
		assert.Error(t, err)
	})

	t.Run("rejects missing company", func(t *testing.T) {
		_, err := NewJournalVoucher(uuid.New(), VoucherHeader{
			TransactionDate: time.Now(),
			FiscalYearID:    uuid.New(),
			Currency:        valueobject.USD,
		})
		assert.Error(t, err)
	})
}

// ==================== Editing ====================

func TestJournalVoucher_SetEntries(t *testing.T) {
	t.Run("draft may be saved unbalanced", func(t *testing.T) {
		v := createTestVoucher(t)
		require.NoError(t, v.SetEntries([]LedgerEntry{debit(t, "1000.00"), credit(t, "10.00")}))
		assert.Len(t, v.Entries, 2)
		assert.Equal(t, 1, v.Entries[0].LineNo)
		assert.Equal(t, 2, v.Entries[1].LineNo)
		assert.Equal(t, VoucherStatusDraft, v.Status)
	})

	t.Run("editing a pending voucher returns it to draft", func(t *testing.T) {
		v := createTestVoucher(t)
		require.NoError(t, v.SetEntries([]LedgerEntry{debit(t, "5"), credit(t, "5")}))
		_, err := NewJournalBalancer().Commit(v)
		require.NoError(t, err)

		require.NoError(t, v.AddEntry(debit(t, "1")))
		assert.Equal(t, VoucherStatusDraft, v.Status)
		assert.Nil(t, v.SubmittedAt)
	})

	t.Run("approved voucher is locked", func(t *testing.T) {
		v := createApprovedVoucher(t)
		err := v.SetEntries([]LedgerEntry{debit(t, "1"), credit(t, "1")})
		assert.True(t, errors.Is(err, shared.ErrLockedForEditing))
	})

	t.Run("posted voucher is locked", func(t *testing.T) {
		v := createPostedVoucher(t)
		err := v.UpdateHeader(time.Now(), "changed")
		assert.True(t, errors.Is(err, shared.ErrLockedForEditing))
	})

	t.Run("entries must use the voucher currency", func(t *testing.T) {
		v := createTestVoucher(t)
		eur, err := valueobject.NewMoneyFromString("10", valueobject.EUR)
		require.NoError(t, err)
		e, err := NewDebitEntry(uuid.New(), eur)
		require.NoError(t, err)

		err = v.AddEntry(*e)
		assert.True(t, errors.Is(err, shared.ErrCurrencyMismatch))
	})

	t.Run("remove entry renumbers", func(t *testing.T) {
		v := createTestVoucher(t)
		require.NoError(t, v.SetEntries([]LedgerEntry{debit(t, "1"), credit(t, "2"), credit(t, "3")}))
		require.NoError(t, v.RemoveEntry(2))
		require.Len(t, v.Entries, 2)
		assert.Equal(t, "3.00", v.Entries[1].Amount.StringFixed())
		assert.Equal(t, 2, v.Entries[1].LineNo)

		err := v.RemoveEntry(9)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

// ==================== Lifecycle ====================

func TestJournalVoucher_Lifecycle(t *testing.T) {
	t.Run("draft to posted", func(t *testing.T) {
		v := createPostedVoucher(t)
		assert.Equal(t, VoucherStatusPosted, v.Status)
		assert.NotNil(t, v.PostedAt)
		require.NotNil(t, v.PostingDate)
		assert.Equal(t, v.TransactionDate, *v.PostingDate)
	})

	t.Run("cannot approve a draft", func(t *testing.T) {
		v := createTestVoucher(t)
		err := v.Approve(uuid.New())
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("cannot post before approval", func(t *testing.T) {
		v := createTestVoucher(t)
		require.NoError(t, v.SetEntries([]LedgerEntry{debit(t, "5"), credit(t, "5")}))
		_, err := NewJournalBalancer().Commit(v)
		require.NoError(t, err)

		err = v.Post(uuid.New(), time.Now())
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("post requires a voucher number", func(t *testing.T) {
		v := createApprovedVoucher(t)
		err := v.Post(uuid.New(), time.Now())
		require.Error(t, err)

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "VOUCHER_NO_REQUIRED", de.Code)
	})

	t.Run("voucher number cannot be reassigned", func(t *testing.T) {
		v := createPostedVoucher(t)
		assert.Error(t, v.AssignVoucherNo("JV-OTHER"))
	})

	t.Run("reject needs a reason", func(t *testing.T) {
		v := createTestVoucher(t)
		require.NoError(t, v.SetEntries([]LedgerEntry{debit(t, "5"), credit(t, "5")}))
		_, err := NewJournalBalancer().Commit(v)
		require.NoError(t, err)

		assert.Error(t, v.Reject(uuid.New(), ""))
		require.NoError(t, v.Reject(uuid.New(), "wrong period"))
		assert.Equal(t, VoucherStatusRejected, v.Status)
	})
}

func TestJournalVoucher_Cancel(t *testing.T) {
	tests := []struct {
		status  VoucherStatus
		allowed bool
	}{
		{VoucherStatusDraft, true},
		{VoucherStatusPending, true},
		{VoucherStatusApproved, false},
		{VoucherStatusPosted, false},
		{VoucherStatusRejected, false},
		{VoucherStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			v := createTestVoucher(t)
			v.Status = tt.status
			err := v.Cancel(uuid.New(), "duplicate entry")
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, VoucherStatusCancelled, v.Status)
			} else {
				assert.True(t, errors.Is(err, shared.ErrInvalidState))
			}
		})
	}

	t.Run("requires reason", func(t *testing.T) {
		v := createTestVoucher(t)
		assert.Error(t, v.Cancel(uuid.New(), " "))
	})
}

func TestJournalVoucher_Reverse(t *testing.T) {
	t.Run("creates offsetting posted voucher", func(t *testing.T) {
		v := createPostedVoucher(t)
		userID := uuid.New()
		reversal, err := v.Reverse(userID, "posted to wrong tenant", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.Equal(t, VoucherStatusPosted, v.Status)
		assert.True(t, v.IsReversed)
		assert.Equal(t, reversal.ID, *v.ReversedByID)

		assert.Equal(t, VoucherStatusPosted, reversal.Status)
		assert.Equal(t, JournalTypeReversal, reversal.JournalType)
		assert.Equal(t, v.ID, *reversal.ReversalOfID)
		assert.Empty(t, reversal.VoucherNo)
		require.Len(t, reversal.Entries, 2)
		assert.Equal(t, TransactionTypeCredit, reversal.Entries[0].TransactionType)
		assert.Equal(t, TransactionTypeDebit, reversal.Entries[1].TransactionType)

		totals, err := reversal.Totals()
		require.NoError(t, err)
		assert.True(t, totals.IsBalanced)
	})

	t.Run("requires reason", func(t *testing.T) {
		v := createPostedVoucher(t)
		_, err := v.Reverse(uuid.New(), "", time.Now())
		require.Error(t, err)
		assert.False(t, v.IsReversed)
	})

	t.Run("cannot reverse twice", func(t *testing.T) {
		v := createPostedVoucher(t)
		_, err := v.Reverse(uuid.New(), "first", time.Now())
		require.NoError(t, err)
		_, err = v.Reverse(uuid.New(), "second", time.Now())
		assert.True(t, errors.Is(err, shared.ErrAlreadyProcessed))
	})

	t.Run("only posted vouchers", func(t *testing.T) {
		v := createApprovedVoucher(t)
		_, err := v.Reverse(uuid.New(), "reason", time.Now())
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestJournalVoucher_ResetForEdit(t *testing.T) {
	t.Run("approved voucher is unlocked to draft", func(t *testing.T) {
		v := createApprovedVoucher(t)
		v.ClearDomainEvents()
		actor := uuid.New()

		require.NoError(t, v.ResetForEdit(actor, "amount typo"))
		assert.Equal(t, VoucherStatusDraft, v.Status)
		assert.Nil(t, v.ApprovedBy)

		events := v.GetDomainEvents()
		require.Len(t, events, 1)
		unlocked, ok := events[0].(*JournalVoucherUnlockedEvent)
		require.True(t, ok)
		assert.Equal(t, VoucherStatusApproved, unlocked.PreviousStatus)
		assert.Equal(t, actor, unlocked.UnlockedBy)
		assert.Equal(t, "amount typo", unlocked.Reason)
	})

	t.Run("posted voucher stays locked", func(t *testing.T) {
		v := createPostedVoucher(t)
		err := v.ResetForEdit(uuid.New(), "amount typo")
		assert.True(t, errors.Is(err, shared.ErrLockedForEditing))
	})

	t.Run("requires reason", func(t *testing.T) {
		v := createApprovedVoucher(t)
		assert.Error(t, v.ResetForEdit(uuid.New(), ""))
	})
}

func TestJournalVoucher_EnsureDeletable(t *testing.T) {
	v := createTestVoucher(t)
	assert.NoError(t, v.EnsureDeletable())

	v = createApprovedVoucher(t)
	assert.True(t, errors.Is(v.EnsureDeletable(), shared.ErrLockedForEditing))
}

func TestJournalVoucher_AccountIDs(t *testing.T) {
	v := createTestVoucher(t)
	a := uuid.New()
	e1, err := NewDebitEntry(a, money(t, "1"))
	require.NoError(t, err)
	e2, err := NewCreditEntry(a, money(t, "1"))
	require.NoError(t, err)
	require.NoError(t, v.SetEntries([]LedgerEntry{*e1, *e2}))

	assert.Equal(t, []uuid.UUID{a}, v.AccountIDs())
}
