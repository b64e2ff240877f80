package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VoucherNoPrefix prefixes generated journal voucher numbers
const VoucherNoPrefix = "JV"

// GormJournalVoucherRepository implements ledger.JournalVoucherRepository using GORM
type GormJournalVoucherRepository struct {
	db *gorm.DB
}

// NewGormJournalVoucherRepository creates a new GormJournalVoucherRepository
func NewGormJournalVoucherRepository(db *gorm.DB) *GormJournalVoucherRepository {
	return &GormJournalVoucherRepository{db: db}
}

func preloadEntries(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByIDForTenant loads a voucher with its entries in line order
func (r *GormJournalVoucherRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalVoucher, error) {
	var model models.JournalVoucherModel
	if err := r.db.WithContext(ctx).
		Preload("Entries", preloadEntries).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists vouchers for a tenant with their entries
func (r *GormJournalVoucherRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalVoucherFilter) ([]ledger.JournalVoucher, error) {
	var rows []models.JournalVoucherModel
	query := r.filtered(ctx, tenantID, filter)
	if err := applyListOptions(query, filter.Filter, JournalVoucherSortFields).
		Preload("Entries", preloadEntries).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list journal vouchers: %w", err)
	}
	vouchers := make([]ledger.JournalVoucher, len(rows))
	for i := range rows {
		vouchers[i] = *rows[i].ToDomain()
	}
	return vouchers, nil
}

// CountForTenant counts vouchers matching filter
func (r *GormJournalVoucherRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalVoucherFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormJournalVoucherRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalVoucherFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.JournalVoucherModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.VoucherType != nil {
		query = query.Where("voucher_type = ?", *filter.VoucherType)
	}
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("voucher_no LIKE ? OR narration LIKE ?", like, like)
	}
	return query
}

// Save inserts a new voucher together with its entries
func (r *GormJournalVoucherRepository) Save(ctx context.Context, voucher *ledger.JournalVoucher) error {
	if err := r.db.WithContext(ctx).Create(models.JournalVoucherModelFromDomain(voucher)).Error; err != nil {
		return fmt.Errorf("failed to create journal voucher: %w", err)
	}
	return nil
}

// SaveWithLock updates the voucher if its version is unchanged and replaces its entries
func (r *GormJournalVoucherRepository) SaveWithLock(ctx context.Context, voucher *ledger.JournalVoucher) error {
	model := models.JournalVoucherModelFromDomain(voucher)
	model.Version = voucher.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, model, voucher.TenantID, voucher.ID, voucher.Version, "journal_voucher"); err != nil {
			return err
		}
		if err := tx.Where("voucher_id = ?", voucher.ID).Delete(&models.LedgerEntryModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear ledger entries: %w", err)
		}
		if len(model.Entries) == 0 {
			return nil
		}
		return tx.Create(&model.Entries).Error
	})
	if err != nil {
		return err
	}
	voucher.Version = model.Version
	return nil
}

// DeleteForTenant removes a voucher and its entries
func (r *GormJournalVoucherRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.JournalVoucherModel{}, "id = ? AND tenant_id = ?", id, tenantID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Where("voucher_id = ?", id).Delete(&models.LedgerEntryModel{}).Error
	})
}

// ExistsByVoucherNo checks if a voucher number is taken within the tenant
func (r *GormJournalVoucherRepository) ExistsByVoucherNo(ctx context.Context, tenantID uuid.UUID, voucherNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.JournalVoucherModel{}).
		Where("tenant_id = ? AND voucher_no = ?", tenantID, voucherNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateVoucherNo returns the next JV-YYYYMMDD-NNNNNN number for date
func (r *GormJournalVoucherRepository) GenerateVoucherNo(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return nextDocumentNo(ctx, r.db, &models.JournalVoucherModel{}, "voucher_no", tenantID, VoucherNoPrefix, date)
}

var _ ledger.JournalVoucherRepository = (*GormJournalVoucherRepository)(nil)
