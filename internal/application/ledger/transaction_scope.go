package ledger

import (
	"context"

	"github.com/erp/leasing/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// If fn returns an error the transaction is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the ledger repositories bound to one transaction.
// A reversal writes two vouchers, so both must go through the same VoucherRepo.
// An unlock and its audit row commit together through AuditLogRepo.
type TransactionalRepositories interface {
	VoucherRepo() ledger.JournalVoucherRepository
	AccountRepo() ledger.AccountRepository
	AuditLogRepo() ledger.VoucherAuditLogRepository
}

// NoOpTransactionScope runs fn directly against the given repositories
type NoOpTransactionScope struct {
	voucherRepo ledger.JournalVoucherRepository
	accountRepo ledger.AccountRepository
	auditRepo   ledger.VoucherAuditLogRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope. auditRepo may be nil.
func NewNoOpTransactionScope(
	voucherRepo ledger.JournalVoucherRepository,
	accountRepo ledger.AccountRepository,
	auditRepo ledger.VoucherAuditLogRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{voucherRepo: voucherRepo, accountRepo: accountRepo, auditRepo: auditRepo}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// VoucherRepo returns the voucher repository
func (s *NoOpTransactionScope) VoucherRepo() ledger.JournalVoucherRepository {
	return s.voucherRepo
}

// AccountRepo returns the account repository
func (s *NoOpTransactionScope) AccountRepo() ledger.AccountRepository {
	return s.accountRepo
}

// AuditLogRepo returns the audit log repository
func (s *NoOpTransactionScope) AuditLogRepo() ledger.VoucherAuditLogRepository {
	return s.auditRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
