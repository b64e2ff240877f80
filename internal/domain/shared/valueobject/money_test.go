package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(t *testing.T, amount string) Money {
	t.Helper()
	m, err := NewMoneyFromString(amount, USD)
	require.NoError(t, err)
	return m
}

func TestNewMoney(t *testing.T) {
	t.Run("rounds to two places half away from zero", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("10.005"), USD)
		require.NoError(t, err)
		assert.Equal(t, "10.01", m.StringFixed())

		m, err = NewMoney(decimal.RequireFromString("-10.005"), USD)
		require.NoError(t, err)
		assert.Equal(t, "-10.01", m.StringFixed())

		m, err = NewMoney(decimal.RequireFromString("10.004"), USD)
		require.NoError(t, err)
		assert.Equal(t, "10.00", m.StringFixed())
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})

	t.Run("rejects unparsable string", func(t *testing.T) {
		_, err := NewMoneyFromString("abc", USD)
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
	})
}

func TestNewNonNegativeMoney(t *testing.T) {
	_, err := NewNonNegativeMoney(decimal.NewFromInt(-1), USD, "receipt_amount")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "receipt_amount", de.Details["field"])
	assert.Equal(t, "-1.00", de.Details["actual"])

	m, err := NewNonNegativeMoney(decimal.Zero, USD, "receipt_amount")
	require.NoError(t, err)
	assert.True(t, m.IsZero())
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("usd")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("ZZZ")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add and subtract keep two places", func(t *testing.T) {
		sum, err := usd(t, "0.10").Add(usd(t, "0.20"))
		require.NoError(t, err)
		assert.Equal(t, "0.30", sum.StringFixed())

		diff, err := usd(t, "1000.00").Subtract(usd(t, "999.00"))
		require.NoError(t, err)
		assert.Equal(t, "1.00", diff.StringFixed())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur, err := NewMoneyFromString("1", EUR)
		require.NoError(t, err)

		_, err = usd(t, "1").Add(eur)
		assert.True(t, errors.Is(err, shared.ErrCurrencyMismatch))

		_, err = usd(t, "1").Subtract(eur)
		assert.True(t, errors.Is(err, shared.ErrCurrencyMismatch))

		_, err = usd(t, "1").Cmp(eur)
		assert.True(t, errors.Is(err, shared.ErrCurrencyMismatch))
	})

	t.Run("multiply by rate rounds immediately", func(t *testing.T) {
		m := usd(t, "100.00").MultiplyByRate(decimal.RequireFromString("3.6725"))
		assert.Equal(t, "367.25", m.StringFixed())

		m = usd(t, "0.05").MultiplyByRate(decimal.RequireFromString("0.5"))
		assert.Equal(t, "0.03", m.StringFixed())
	})

	t.Run("percentage", func(t *testing.T) {
		tax := usd(t, "333.33").Percentage(decimal.NewFromInt(5))
		assert.Equal(t, "16.67", tax.StringFixed())
	})

	t.Run("convert to base currency", func(t *testing.T) {
		aed, err := usd(t, "10.00").ConvertTo(AED, decimal.RequireFromString("3.6725"))
		require.NoError(t, err)
		assert.Equal(t, AED, aed.Currency())
		assert.Equal(t, "36.73", aed.StringFixed())

		_, err = usd(t, "10.00").ConvertTo(AED, decimal.Zero)
		assert.Error(t, err)
	})
}

func TestMoney_Tolerance(t *testing.T) {
	assert.True(t, usd(t, "0.01").IsNegligible())
	assert.True(t, usd(t, "-0.01").IsNegligible())
	assert.False(t, usd(t, "0.02").IsNegligible())
	assert.False(t, usd(t, "0.01").IsZero())

	eq, err := usd(t, "100.00").EqualsWithinTolerance(usd(t, "100.01"))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = usd(t, "100.00").EqualsWithinTolerance(usd(t, "100.02"))
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestMinAndSum(t *testing.T) {
	m, err := Min(usd(t, "500"), usd(t, "300"))
	require.NoError(t, err)
	assert.Equal(t, "300.00", m.StringFixed())

	total, err := Sum(USD, usd(t, "1.10"), usd(t, "2.20"), usd(t, "3.30"))
	require.NoError(t, err)
	assert.Equal(t, "6.60", total.StringFixed())

	empty, err := Sum(USD)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
	assert.Equal(t, USD, empty.Currency())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(usd(t, "12.5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.50","currency":"USD"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"7.456","currency":"EUR"}`), &m))
	assert.Equal(t, "7.46", m.StringFixed())
	assert.Equal(t, EUR, m.Currency())
}
