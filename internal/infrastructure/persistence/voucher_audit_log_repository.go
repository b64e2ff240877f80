package persistence

import (
	"context"
	"fmt"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVoucherAuditLogRepository stores voucher audit records
type GormVoucherAuditLogRepository struct {
	db *gorm.DB
}

// NewGormVoucherAuditLogRepository creates a new GormVoucherAuditLogRepository
func NewGormVoucherAuditLogRepository(db *gorm.DB) *GormVoucherAuditLogRepository {
	return &GormVoucherAuditLogRepository{db: db}
}

// Save appends an audit record
func (r *GormVoucherAuditLogRepository) Save(ctx context.Context, log *ledger.VoucherAuditLog) error {
	if err := r.db.WithContext(ctx).Create(models.VoucherAuditLogModelFromDomain(log)).Error; err != nil {
		return fmt.Errorf("failed to insert voucher audit log: %w", err)
	}
	return nil
}

// FindByVoucher returns a voucher's audit trail, oldest first
func (r *GormVoucherAuditLogRepository) FindByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID) ([]ledger.VoucherAuditLog, error) {
	var rows []models.VoucherAuditLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND voucher_id = ?", tenantID, voucherID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]ledger.VoucherAuditLog, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}

var _ ledger.VoucherAuditLogRepository = (*GormVoucherAuditLogRepository)(nil)
