package persistence

import (
	"context"
	"fmt"

	"github.com/erp/leasing/internal/domain/receivable"
	"github.com/erp/leasing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements receivable.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForTenant finds an invoice by ID for a tenant
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return model.ToDomain(), nil
}

// FindByIDsForUpdate loads invoices with SELECT ... FOR UPDATE. Rows are locked in id
// order so two commits touching the same invoices cannot deadlock. Only meaningful
// inside a transaction; SQLite ignores the locking clause.
func (r *GormInvoiceRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]receivable.Invoice, error) {
	if len(ids) == 0 {
		return []receivable.Invoice{}, nil
	}
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to lock invoices: %w", err)
	}
	return toInvoices(rows), nil
}

// FindOutstanding returns the customer's active invoices with a positive balance, oldest due first
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) ([]receivable.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND status = ? AND balance_amount > 0",
			tenantID, customerID, receivable.InvoiceStatusActive).
		Order("due_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
	}
	return toInvoices(rows), nil
}

// FindAllForTenant lists invoices for a tenant
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter receivable.InvoiceFilter) ([]receivable.Invoice, error) {
	var rows []models.InvoiceModel
	if err := applyListOptions(r.filtered(ctx, tenantID, filter), filter.Filter, InvoiceSortFields).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return toInvoices(rows), nil
}

// CountForTenant counts invoices matching filter
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter receivable.InvoiceFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormInvoiceRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter receivable.InvoiceFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PostingStatus != nil {
		query = query.Where("posting_status = ?", *filter.PostingStatus)
	}
	if filter.OutstandingOnly {
		query = query.Where("status = ? AND balance_amount > 0", receivable.InvoiceStatusActive)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", *filter.DueBefore)
	}
	if filter.Search != "" {
		query = query.Where("invoice_no LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Save inserts a new invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *receivable.Invoice) error {
	if err := r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// SaveWithLock updates the invoice if its version is unchanged
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *receivable.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	model.Version = invoice.Version + 1
	if err := updateVersioned(r.db.WithContext(ctx), model, invoice.TenantID, invoice.ID, invoice.Version, "invoice"); err != nil {
		return err
	}
	invoice.Version = model.Version
	return nil
}

// ExistsByInvoiceNo checks if an invoice number is taken within the tenant
func (r *GormInvoiceRepository) ExistsByInvoiceNo(ctx context.Context, tenantID uuid.UUID, invoiceNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND invoice_no = ?", tenantID, invoiceNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toInvoices(rows []models.InvoiceModel) []receivable.Invoice {
	invoices := make([]receivable.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices
}

var _ receivable.InvoiceRepository = (*GormInvoiceRepository)(nil)
