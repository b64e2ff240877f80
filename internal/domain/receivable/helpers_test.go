package receivable

import (
	"testing"
	"time"

	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	testTenantID   = uuid.New()
	testCustomerID = uuid.New()
	testContractID = uuid.New()
	testDate       = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
)

func usd(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(amount, valueobject.USD)
	require.NoError(t, err)
	return m
}

func createTestInvoice(t *testing.T, no, total string, dueInDays int) *Invoice {
	t.Helper()
	inv, err := NewInvoice(testTenantID, no, testCustomerID, testContractID, testDate, testDate.AddDate(0, 0, dueInDays), usd(t, total))
	require.NoError(t, err)
	return inv
}

func createTestReceipt(t *testing.T, amount string) *Receipt {
	t.Helper()
	r, err := NewReceipt(testTenantID, "RC-20260301-000001", testCustomerID, testDate, usd(t, amount))
	require.NoError(t, err)
	return r
}

func invoiceMap(invoices ...*Invoice) map[uuid.UUID]*Invoice {
	m := make(map[uuid.UUID]*Invoice, len(invoices))
	for _, inv := range invoices {
		m[inv.ID] = inv
	}
	return m
}
