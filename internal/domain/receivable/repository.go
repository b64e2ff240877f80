package receivable

import (
	"context"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	CustomerID      *uuid.UUID
	ContractID      *uuid.UUID
	Status          *InvoiceStatus
	PostingStatus   *PostingStatus
	OutstandingOnly bool
	DueBefore       *time.Time
}

// InvoiceRepository persists invoices. Lookups that find nothing return (nil, nil).
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindByIDsForUpdate loads invoices and holds row locks until the surrounding transaction ends
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Invoice, error)
	// FindOutstanding returns active invoices with a positive balance, oldest due first
	FindOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) ([]Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) (int64, error)
	Save(ctx context.Context, invoice *Invoice) error
	// SaveWithLock updates an invoice if its version is unchanged
	SaveWithLock(ctx context.Context, invoice *Invoice) error
	ExistsByInvoiceNo(ctx context.Context, tenantID uuid.UUID, invoiceNo string) (bool, error)
}

// ReceiptFilter narrows receipt listings
type ReceiptFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *ReceiptStatus
	FromDate   *time.Time
	ToDate     *time.Time
}

// ReceiptRepository persists receipts with their allocations. Lookups that find nothing return (nil, nil).
type ReceiptRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ReceiptFilter) ([]Receipt, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ReceiptFilter) (int64, error)
	Save(ctx context.Context, receipt *Receipt) error
	// SaveWithLock updates a receipt if its version is unchanged, replacing its allocations
	SaveWithLock(ctx context.Context, receipt *Receipt) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	GenerateReceiptNo(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error)
}
