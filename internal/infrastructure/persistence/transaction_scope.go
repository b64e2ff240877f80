package persistence

import (
	"context"

	appledger "github.com/erp/leasing/internal/application/ledger"
	appreceivable "github.com/erp/leasing/internal/application/receivable"
	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/domain/receivable"
	"gorm.io/gorm"
)

// GormLedgerTransactionScope runs ledger work inside one GORM transaction
type GormLedgerTransactionScope struct {
	db *gorm.DB
}

// NewGormLedgerTransactionScope creates a new GormLedgerTransactionScope
func NewGormLedgerTransactionScope(db *gorm.DB) *GormLedgerTransactionScope {
	return &GormLedgerTransactionScope{db: db}
}

// Execute runs fn in a transaction. An error from fn rolls everything back.
func (s *GormLedgerTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerRepositories{tx: tx})
	})
}

type gormLedgerRepositories struct {
	tx *gorm.DB
}

func (r *gormLedgerRepositories) VoucherRepo() ledger.JournalVoucherRepository {
	return NewGormJournalVoucherRepository(r.tx)
}

func (r *gormLedgerRepositories) AccountRepo() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

func (r *gormLedgerRepositories) AuditLogRepo() ledger.VoucherAuditLogRepository {
	return NewGormVoucherAuditLogRepository(r.tx)
}

// GormReceivableTransactionScope runs receipt and invoice work inside one GORM transaction
type GormReceivableTransactionScope struct {
	db *gorm.DB
}

// NewGormReceivableTransactionScope creates a new GormReceivableTransactionScope
func NewGormReceivableTransactionScope(db *gorm.DB) *GormReceivableTransactionScope {
	return &GormReceivableTransactionScope{db: db}
}

// Execute runs fn in a transaction. Row locks taken through InvoiceRepo are held until it returns.
func (s *GormReceivableTransactionScope) Execute(ctx context.Context, fn func(repos appreceivable.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormReceivableRepositories{tx: tx})
	})
}

type gormReceivableRepositories struct {
	tx *gorm.DB
}

func (r *gormReceivableRepositories) InvoiceRepo() receivable.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormReceivableRepositories) ReceiptRepo() receivable.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

var (
	_ appledger.TransactionScope                 = (*GormLedgerTransactionScope)(nil)
	_ appledger.TransactionalRepositories        = (*gormLedgerRepositories)(nil)
	_ appreceivable.TransactionScope             = (*GormReceivableTransactionScope)(nil)
	_ appreceivable.TransactionalRepositories    = (*gormReceivableRepositories)(nil)
)
