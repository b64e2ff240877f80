package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	AED Currency = "AED"
	SAR Currency = "SAR"
	CNY Currency = "CNY"
)

// DefaultCurrency is used when configuration does not name one
const DefaultCurrency = USD

// Scale is the number of decimal places every amount is rounded to
const Scale int32 = 2

// Epsilon is the rounding slack permitted when comparing monetary sums
var Epsilon = decimal.New(1, -Scale)

// ParseCurrency validates an ISO 4217 currency code
func ParseCurrency(code string) (Currency, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", shared.NewValidationError("INVALID_CURRENCY", fmt.Sprintf("unknown currency code %q", code)).
			WithDetail("currency", code)
	}
	return Currency(unit.String()), nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// RoundAmount rounds half away from zero to two decimal places
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Money is a value object representing a monetary amount in one currency.
// It is immutable and every amount it holds is already rounded to two places.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, shared.NewValidationError("INVALID_CURRENCY", "currency cannot be empty")
	}
	return Money{
		amount:   RoundAmount(amount),
		currency: currency,
	}, nil
}

// MustNewMoney creates Money and panics on an empty currency. Intended for constants and tests.
func MustNewMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, shared.NewValidationError(shared.CodeInvalidAmount, fmt.Sprintf("invalid amount %q", amount))
	}
	return NewMoney(d, currency)
}

// NewNonNegativeMoney creates Money for fields whose contract forbids negative values
func NewNonNegativeMoney(amount decimal.Decimal, currency Currency, field string) (Money, error) {
	m, err := NewMoney(amount, currency)
	if err != nil {
		return Money{}, err
	}
	if err := m.RequireNonNegative(field); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is exactly zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsZeroWithin returns true if |amount| <= epsilon
func (m Money) IsZeroWithin(epsilon decimal.Decimal) bool {
	return m.amount.Abs().LessThanOrEqual(epsilon)
}

// IsNegligible returns true if the amount is within the standard epsilon of zero
func (m Money) IsNegligible() bool {
	return m.IsZeroWithin(Epsilon)
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// RequireNonNegative fails with INVALID_AMOUNT when the amount is negative
func (m Money) RequireNonNegative(field string) error {
	if m.amount.IsNegative() {
		return shared.NewValidationError(shared.CodeInvalidAmount, fmt.Sprintf("%s cannot be negative", field)).
			WithDetail("field", field).
			WithExpected(">= 0", m.amount.StringFixed(Scale))
	}
	return nil
}

// RequirePositive fails with INVALID_AMOUNT when the amount is zero or negative
func (m Money) RequirePositive(field string) error {
	if !m.amount.IsPositive() {
		return shared.NewValidationError(shared.CodeInvalidAmount, fmt.Sprintf("%s must be positive", field)).
			WithDetail("field", field).
			WithExpected("> 0", m.amount.StringFixed(Scale))
	}
	return nil
}

// Add returns the rounded sum of both amounts
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   RoundAmount(m.amount.Add(other.amount)),
		currency: m.currency,
	}, nil
}

// Subtract returns the rounded difference
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   RoundAmount(m.amount.Sub(other.amount)),
		currency: m.currency,
	}, nil
}

// MultiplyByRate multiplies by a factor and rounds immediately
func (m Money) MultiplyByRate(rate decimal.Decimal) Money {
	return Money{
		amount:   RoundAmount(m.amount.Mul(rate)),
		currency: m.currency,
	}
}

// Percentage returns round(amount * pct / 100)
func (m Money) Percentage(pct decimal.Decimal) Money {
	return Money{
		amount:   RoundAmount(m.amount.Mul(pct).Div(decimal.NewFromInt(100))),
		currency: m.currency,
	}
}

// ConvertTo converts into another currency at the given exchange rate
func (m Money) ConvertTo(target Currency, rate decimal.Decimal) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, shared.NewValidationError("INVALID_EXCHANGE_RATE", "exchange rate must be positive").
			WithDetail("rate", rate.String())
	}
	if target == "" {
		return Money{}, shared.NewValidationError("INVALID_CURRENCY", "currency cannot be empty")
	}
	return Money{
		amount:   RoundAmount(m.amount.Mul(rate)),
		currency: target,
	}, nil
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Equals returns true if both values have the same amount and currency
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// EqualsWithinTolerance reports whether |m - other| <= Epsilon
func (m Money) EqualsWithinTolerance(other Money) (bool, error) {
	diff, err := m.Subtract(other)
	if err != nil {
		return false, err
	}
	return diff.IsNegligible(), nil
}

// Cmp compares two amounts of the same currency
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c < 0, err
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c > 0, err
}

// Min returns the smaller of two amounts
func Min(a, b Money) (Money, error) {
	less, err := a.LessThan(b)
	if err != nil {
		return Money{}, err
	}
	if less {
		return a, nil
	}
	return b, nil
}

// Sum adds amounts that must all be in the given currency
func Sum(currency Currency, amounts ...Money) (Money, error) {
	total := Zero(currency)
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(Scale), m.currency)
}

// StringFixed returns the amount with two decimal places
func (m Money) StringFixed() string {
	return m.amount.StringFixed(Scale)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(Scale),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return shared.NewValidationError(shared.CodeCurrencyMismatch,
			fmt.Sprintf("cannot combine amounts in %s and %s without conversion", m.currency, other.currency)).
			WithExpected(m.currency, other.currency)
	}
	return nil
}
