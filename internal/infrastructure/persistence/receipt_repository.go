package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/leasing/internal/domain/receivable"
	"github.com/erp/leasing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceiptNoPrefix prefixes generated receipt numbers
const ReceiptNoPrefix = "RC"

// GormReceiptRepository implements receivable.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

func preloadAllocations(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByIDForTenant loads a receipt with its allocations in allocation order
func (r *GormReceiptRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Allocations", preloadAllocations).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists receipts for a tenant with their allocations
func (r *GormReceiptRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter receivable.ReceiptFilter) ([]receivable.Receipt, error) {
	var rows []models.ReceiptModel
	if err := applyListOptions(r.filtered(ctx, tenantID, filter), filter.Filter, ReceiptSortFields).
		Preload("Allocations", preloadAllocations).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	receipts := make([]receivable.Receipt, len(rows))
	for i := range rows {
		receipts[i] = *rows[i].ToDomain()
	}
	return receipts, nil
}

// CountForTenant counts receipts matching filter
func (r *GormReceiptRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter receivable.ReceiptFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormReceiptRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter receivable.ReceiptFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ReceiptModel{}).Where("tenant_id = ?", tenantID)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("receipt_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("receipt_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		query = query.Where("receipt_no LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// Save inserts a new receipt with its allocations
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *receivable.Receipt) error {
	if err := r.db.WithContext(ctx).Create(models.ReceiptModelFromDomain(receipt)).Error; err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// SaveWithLock updates the receipt if its version is unchanged and replaces its allocations
func (r *GormReceiptRepository) SaveWithLock(ctx context.Context, receipt *receivable.Receipt) error {
	model := models.ReceiptModelFromDomain(receipt)
	model.Version = receipt.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, model, receipt.TenantID, receipt.ID, receipt.Version, "receipt"); err != nil {
			return err
		}
		if err := tx.Where("receipt_id = ?", receipt.ID).Delete(&models.AllocationModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear receipt allocations: %w", err)
		}
		if len(model.Allocations) == 0 {
			return nil
		}
		return tx.Create(&model.Allocations).Error
	})
	if err != nil {
		return err
	}
	receipt.Version = model.Version
	return nil
}

// DeleteForTenant removes a receipt and its allocations
func (r *GormReceiptRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.ReceiptModel{}, "id = ? AND tenant_id = ?", id, tenantID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Where("receipt_id = ?", id).Delete(&models.AllocationModel{}).Error
	})
}

// GenerateReceiptNo returns the next RC-YYYYMMDD-NNNNNN number for date
func (r *GormReceiptRepository) GenerateReceiptNo(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return nextDocumentNo(ctx, r.db, &models.ReceiptModel{}, "receipt_no", tenantID, ReceiptNoPrefix, date)
}

var _ receivable.ReceiptRepository = (*GormReceiptRepository)(nil)
