package ledger

import (
	"encoding/json"
	"testing"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBalanceResponse_FixedTwoDecimals(t *testing.T) {
	debit, err := ledger.NewDebitEntry(uuid.New(), valueobject.MustNewMoney(decimal.NewFromInt(1000), valueobject.USD))
	require.NoError(t, err)
	credit, err := ledger.NewCreditEntry(uuid.New(), valueobject.MustNewMoney(decimal.RequireFromString("999.5"), valueobject.USD))
	require.NoError(t, err)

	result, err := ledger.NewJournalBalancer().Validate(valueobject.USD, []ledger.LedgerEntry{*debit, *credit})
	require.NoError(t, err)

	raw, err := json.Marshal(ToBalanceResponse(result))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"currency": "USD",
		"total_debits": "1000.00",
		"total_credits": "999.50",
		"difference": "0.50",
		"is_balanced": false
	}`, string(raw))
}

func TestToEntryResponse_FixedTwoDecimals(t *testing.T) {
	e, err := ledger.NewDebitEntry(uuid.New(), valueobject.MustNewMoney(decimal.NewFromInt(75), valueobject.USD))
	require.NoError(t, err)

	resp := ToEntryResponse(e)

	assert.Equal(t, "75.00", resp.Debit)
	assert.Equal(t, "0.00", resp.Credit)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "75.00", fields["debit"])
	assert.Equal(t, "0.00", fields["credit"])
	assert.IsType(t, "", fields["base_amount"])
	assert.IsType(t, "", fields["tax_amount"])
}
