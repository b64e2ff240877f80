package receivable

import (
	"context"
	"testing"

	"github.com/erp/leasing/internal/domain/receivable"
	"github.com/erp/leasing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInvoiceService() (*InvoiceService, *MockInvoiceRepository, *MockEventPublisher) {
	repo := new(MockInvoiceRepository)
	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	svc := NewInvoiceService(repo)
	svc.SetEventPublisher(publisher)
	return svc, repo, publisher
}

func TestInvoiceService_Create(t *testing.T) {
	svc, repo, publisher := newInvoiceService()
	repo.On("ExistsByInvoiceNo", mock.Anything, testTenantID, "INV-100").Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*receivable.Invoice")).Return(nil)

	resp, err := svc.Create(context.Background(), testTenantID, CreateInvoiceRequest{
		InvoiceNo:   "INV-100",
		CustomerID:  testCustomerID,
		ContractID:  testContractID,
		InvoiceDate: testDate,
		TotalAmount: dec("1200.005"),
		Currency:    "USD",
	})

	require.NoError(t, err)
	assert.True(t, dec("1200.01").Equal(resp.TotalAmount))
	assert.True(t, resp.TotalAmount.Equal(resp.BalanceAmount))
	assert.Equal(t, testDate, resp.DueDate)
	assert.Equal(t, []string{receivable.EventTypeInvoiceCreated}, publisher.eventTypes())
}

func TestInvoiceService_CreateDuplicate(t *testing.T) {
	svc, repo, _ := newInvoiceService()
	repo.On("ExistsByInvoiceNo", mock.Anything, testTenantID, "INV-100").Return(true, nil)

	_, err := svc.Create(context.Background(), testTenantID, CreateInvoiceRequest{
		InvoiceNo:   "INV-100",
		CustomerID:  testCustomerID,
		ContractID:  testContractID,
		InvoiceDate: testDate,
		TotalAmount: dec("100"),
		Currency:    "USD",
	})

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_PostTwice(t *testing.T) {
	svc, repo, _ := newInvoiceService()
	inv := newTestInvoice(t, "INV-1", "100", testDate)
	repo.On("FindByIDForTenant", mock.Anything, testTenantID, inv.ID).Return(inv, nil)
	repo.On("SaveWithLock", mock.Anything, inv).Return(nil)

	resp, err := svc.Post(context.Background(), testTenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "POSTED", resp.PostingStatus)

	_, err = svc.Post(context.Background(), testTenantID, inv.ID)
	assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
	repo.AssertNumberOfCalls(t, "SaveWithLock", 1)
}

func TestInvoiceService_CancelPaidInvoice(t *testing.T) {
	svc, repo, _ := newInvoiceService()
	inv := newTestInvoice(t, "INV-1", "100", testDate)
	require.NoError(t, inv.ApplyAllocation(usd("40")))
	repo.On("FindByIDForTenant", mock.Anything, testTenantID, inv.ID).Return(inv, nil)

	_, err := svc.Cancel(context.Background(), testTenantID, inv.ID, CancelRequest{Reason: "issued in error"})

	assert.ErrorIs(t, err, shared.ErrInvalidState)
	repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestInvoiceService_ListOutstanding(t *testing.T) {
	svc, repo, _ := newInvoiceService()
	inv := newTestInvoice(t, "INV-1", "100", testDate)
	repo.On("FindOutstanding", mock.Anything, testTenantID, testCustomerID).Return([]receivable.Invoice{*inv}, nil)

	list, err := svc.ListOutstanding(context.Background(), testTenantID, testCustomerID)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "INV-1", list[0].InvoiceNo)
}

func TestInvoiceService_GetMissing(t *testing.T) {
	svc, repo, _ := newInvoiceService()
	id := testCustomerID
	repo.On("FindByIDForTenant", mock.Anything, testTenantID, id).Return(nil, nil)

	_, err := svc.GetByID(context.Background(), testTenantID, id)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}
