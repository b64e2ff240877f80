package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/leasing/internal/domain/termination"
	"github.com/erp/leasing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerminationNoPrefix prefixes generated termination numbers
const TerminationNoPrefix = "TN"

// GormTerminationRepository implements termination.Repository using GORM
type GormTerminationRepository struct {
	db *gorm.DB
}

// NewGormTerminationRepository creates a new GormTerminationRepository
func NewGormTerminationRepository(db *gorm.DB) *GormTerminationRepository {
	return &GormTerminationRepository{db: db}
}

func preloadDeductions(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByIDForTenant loads a termination with its deductions
func (r *GormTerminationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*termination.Termination, error) {
	var model models.TerminationModel
	if err := r.db.WithContext(ctx).
		Preload("Deductions", preloadDeductions).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists terminations for a tenant
func (r *GormTerminationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter termination.Filter) ([]termination.Termination, error) {
	var rows []models.TerminationModel
	if err := applyListOptions(r.filtered(ctx, tenantID, filter), filter.Filter, TerminationSortFields).
		Preload("Deductions", preloadDeductions).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list terminations: %w", err)
	}
	terminations := make([]termination.Termination, len(rows))
	for i := range rows {
		terminations[i] = *rows[i].ToDomain()
	}
	return terminations, nil
}

// CountForTenant counts terminations matching filter
func (r *GormTerminationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter termination.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTerminationRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter termination.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.TerminationModel{}).Where("tenant_id = ?", tenantID)
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("termination_no LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// ExistsOpenForContract reports a non-cancelled termination for the contract
func (r *GormTerminationRepository) ExistsOpenForContract(ctx context.Context, tenantID, contractID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TerminationModel{}).
		Where("tenant_id = ? AND contract_id = ? AND status <> ?", tenantID, contractID, termination.StatusCancelled).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new termination with its deductions
func (r *GormTerminationRepository) Save(ctx context.Context, t *termination.Termination) error {
	if err := r.db.WithContext(ctx).Create(models.TerminationModelFromDomain(t)).Error; err != nil {
		return fmt.Errorf("failed to create termination: %w", err)
	}
	return nil
}

// SaveWithLock updates the termination if its version is unchanged and replaces its deductions
func (r *GormTerminationRepository) SaveWithLock(ctx context.Context, t *termination.Termination) error {
	model := models.TerminationModelFromDomain(t)
	model.Version = t.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, model, t.TenantID, t.ID, t.Version, "termination"); err != nil {
			return err
		}
		if err := tx.Where("termination_id = ?", t.ID).Delete(&models.DeductionModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear deductions: %w", err)
		}
		if len(model.Deductions) == 0 {
			return nil
		}
		return tx.Create(&model.Deductions).Error
	})
	if err != nil {
		return err
	}
	t.Version = model.Version
	return nil
}

// DeleteForTenant removes a termination and its deductions
func (r *GormTerminationRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.TerminationModel{}, "id = ? AND tenant_id = ?", id, tenantID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return tx.Where("termination_id = ?", id).Delete(&models.DeductionModel{}).Error
	})
}

// GenerateTerminationNo returns the next TN-YYYYMMDD-NNNNNN number for date
func (r *GormTerminationRepository) GenerateTerminationNo(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	return nextDocumentNo(ctx, r.db, &models.TerminationModel{}, "termination_no", tenantID, TerminationNoPrefix, date)
}

var _ termination.Repository = (*GormTerminationRepository)(nil)
