package ledger

import (
	"errors"
	"testing"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(amount, valueobject.USD)
	require.NoError(t, err)
	return m
}

func TestNewDebitAndCreditEntry(t *testing.T) {
	accountID := uuid.New()

	t.Run("debit line exposes zero credit", func(t *testing.T) {
		e, err := NewDebitEntry(accountID, money(t, "1000.00"))
		require.NoError(t, err)
		assert.True(t, e.IsDebit())
		assert.Equal(t, "1000.00", e.DebitAmount().StringFixed())
		assert.True(t, e.CreditAmount().IsZero())
		assert.True(t, e.BaseAmount.Equals(e.Amount))
		assert.True(t, e.TaxAmount.IsZero())
	})

	t.Run("credit line exposes zero debit", func(t *testing.T) {
		e, err := NewCreditEntry(accountID, money(t, "250.50"))
		require.NoError(t, err)
		assert.False(t, e.IsDebit())
		assert.True(t, e.DebitAmount().IsZero())
		assert.Equal(t, "250.50", e.CreditAmount().StringFixed())
	})

	t.Run("rejects missing account", func(t *testing.T) {
		_, err := NewDebitEntry(uuid.Nil, money(t, "10"))
		assert.True(t, errors.Is(err, shared.ErrInvalidEntry))
	})

	t.Run("rejects zero and negative amounts", func(t *testing.T) {
		_, err := NewDebitEntry(accountID, money(t, "0"))
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount))

		_, err = NewCreditEntry(accountID, money(t, "-5"))
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
	})
}

func TestNewEntryFromAmounts(t *testing.T) {
	accountID := uuid.New()
	zero := valueobject.Zero(valueobject.USD)

	t.Run("both columns populated is rejected", func(t *testing.T) {
		_, err := NewEntryFromAmounts(accountID, money(t, "100"), money(t, "100"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidEntry))
	})

	t.Run("neither column populated is rejected", func(t *testing.T) {
		_, err := NewEntryFromAmounts(accountID, zero, zero)
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
	})

	t.Run("debit column yields a debit line", func(t *testing.T) {
		e, err := NewEntryFromAmounts(accountID, money(t, "100"), zero)
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeDebit, e.TransactionType)
	})

	t.Run("credit column yields a credit line", func(t *testing.T) {
		e, err := NewEntryFromAmounts(accountID, zero, money(t, "100"))
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeCredit, e.TransactionType)
	})
}

func TestLedgerEntry_Tax(t *testing.T) {
	accountID := uuid.New()

	t.Run("tax is derived from base amount", func(t *testing.T) {
		e, err := NewDebitEntry(accountID, money(t, "333.33"), WithTax(decimal.NewFromInt(5)))
		require.NoError(t, err)
		assert.Equal(t, "16.67", e.TaxAmount.StringFixed())
	})

	t.Run("tax follows exchange rate", func(t *testing.T) {
		e, err := NewDebitEntry(accountID, money(t, "100.00"),
			WithTax(decimal.NewFromInt(5)),
			WithExchangeRate(valueobject.AED, decimal.RequireFromString("3.6725")),
		)
		require.NoError(t, err)
		assert.Equal(t, valueobject.AED, e.BaseAmount.Currency())
		assert.Equal(t, "367.25", e.BaseAmount.StringFixed())
		assert.Equal(t, "18.36", e.TaxAmount.StringFixed())
	})

	t.Run("tax is recomputed when amount changes", func(t *testing.T) {
		e, err := NewDebitEntry(accountID, money(t, "100.00"), WithTax(decimal.NewFromInt(10)))
		require.NoError(t, err)
		require.NoError(t, e.SetAmount(money(t, "200.00")))
		assert.Equal(t, "20.00", e.TaxAmount.StringFixed())
	})

	t.Run("tax is recomputed when percentage changes", func(t *testing.T) {
		e, err := NewDebitEntry(accountID, money(t, "100.00"))
		require.NoError(t, err)
		require.NoError(t, e.SetTaxPercentage(decimal.NewFromInt(15)))
		assert.Equal(t, "15.00", e.TaxAmount.StringFixed())
	})

	t.Run("rejects out of range percentage", func(t *testing.T) {
		_, err := NewDebitEntry(accountID, money(t, "100.00"), WithTax(decimal.NewFromInt(101)))
		assert.Error(t, err)

		_, err = NewDebitEntry(accountID, money(t, "100.00"), WithTax(decimal.NewFromInt(-1)))
		assert.Error(t, err)
	})
}

func TestLedgerEntry_Options(t *testing.T) {
	accountID := uuid.New()

	t.Run("at most four cost centers", func(t *testing.T) {
		_, err := NewDebitEntry(accountID, money(t, "1"),
			WithCostCenters(uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()))
		assert.True(t, errors.Is(err, shared.ErrInvalidEntry))

		e, err := NewDebitEntry(accountID, money(t, "1"),
			WithCostCenters(uuid.New(), uuid.New(), uuid.New(), uuid.New()))
		require.NoError(t, err)
		assert.Len(t, e.CostCenters, 4)
	})

	t.Run("reference requires type and id", func(t *testing.T) {
		_, err := NewDebitEntry(accountID, money(t, "1"), WithReference("", uuid.New()))
		assert.Error(t, err)

		ref := uuid.New()
		e, err := NewDebitEntry(accountID, money(t, "1"), WithReference("INVOICE", ref))
		require.NoError(t, err)
		assert.Equal(t, "INVOICE", e.ReferenceType)
		assert.Equal(t, ref, *e.ReferenceID)
	})
}

func TestLedgerEntry_Mirror(t *testing.T) {
	e, err := NewDebitEntry(uuid.New(), money(t, "42.00"), WithCostCenters(uuid.New()))
	require.NoError(t, err)

	m := e.Mirror()
	assert.NotEqual(t, e.ID, m.ID)
	assert.Equal(t, TransactionTypeCredit, m.TransactionType)
	assert.True(t, m.Amount.Equals(e.Amount))
	assert.Equal(t, e.AccountID, m.AccountID)

	m.CostCenters[0] = uuid.New()
	assert.NotEqual(t, e.CostCenters[0], m.CostCenters[0])
}
