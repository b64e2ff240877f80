package receivable

import (
	"context"

	"github.com/erp/leasing/internal/domain/receivable"
)

// TransactionScope provides transactional access to receivable repositories.
// If fn returns an error the transaction is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the receivable repositories bound to one transaction.
// Receipt commit and cancel change a receipt and several invoices, so all of
// those writes go through the same repositories and succeed or fail together.
type TransactionalRepositories interface {
	InvoiceRepo() receivable.InvoiceRepository
	ReceiptRepo() receivable.ReceiptRepository
}

// NoOpTransactionScope runs fn directly against the given repositories
type NoOpTransactionScope struct {
	invoiceRepo receivable.InvoiceRepository
	receiptRepo receivable.ReceiptRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(invoiceRepo receivable.InvoiceRepository, receiptRepo receivable.ReceiptRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{invoiceRepo: invoiceRepo, receiptRepo: receiptRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository
func (s *NoOpTransactionScope) InvoiceRepo() receivable.InvoiceRepository {
	return s.invoiceRepo
}

// ReceiptRepo returns the receipt repository
func (s *NoOpTransactionScope) ReceiptRepo() receivable.ReceiptRepository {
	return s.receiptRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
