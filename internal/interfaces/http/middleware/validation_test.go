package middleware

import (
	"errors"
	"testing"

	"github.com/erp/leasing/internal/interfaces/http/dto"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"decimal_gt0"`
	Currency string          `json:"currency" validate:"required,currency"`
	Base     string          `json:"base_currency" validate:"omitempty,currency"`
}

func newTestValidator() *validator.Validate {
	v := validator.New()
	RegisterValidations(v)
	return v
}

func TestRegisterValidations(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name       string
		req        paymentRequest
		wantFields []string
	}{
		{
			name: "valid",
			req:  paymentRequest{Amount: decimal.RequireFromString("10.50"), Currency: "USD"},
		},
		{
			name: "lowercase currency is accepted",
			req:  paymentRequest{Amount: decimal.RequireFromString("0.01"), Currency: "eur", Base: "usd"},
		},
		{
			name:       "zero amount",
			req:        paymentRequest{Amount: decimal.Zero, Currency: "USD"},
			wantFields: []string{"amount"},
		},
		{
			name:       "negative amount",
			req:        paymentRequest{Amount: decimal.RequireFromString("-5"), Currency: "USD"},
			wantFields: []string{"amount"},
		},
		{
			name:       "unknown currency",
			req:        paymentRequest{Amount: decimal.NewFromInt(1), Currency: "XYZQ"},
			wantFields: []string{"currency"},
		},
		{
			name:       "missing currency and bad base",
			req:        paymentRequest{Amount: decimal.NewFromInt(1), Base: "??"},
			wantFields: []string{"currency", "base_currency"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var fields []string
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestBindingErrorResponse(t *testing.T) {
	t.Run("validation errors list fields", func(t *testing.T) {
		err := newTestValidator().Struct(paymentRequest{Amount: decimal.Zero, Currency: "USD"})

		resp := BindingErrorResponse(err, "req-1")

		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Fields, 1)
		assert.Equal(t, "amount", resp.Error.Fields[0].Field)
		assert.Equal(t, "Must be greater than zero", resp.Error.Fields[0].Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := BindingErrorResponse(errors.New("unexpected EOF"), "req-2")

		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Empty(t, resp.Error.Fields)
	})
}
