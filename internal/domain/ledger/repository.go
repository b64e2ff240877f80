package ledger

import (
	"context"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountFilter narrows account listings
type AccountFilter struct {
	shared.Filter
	Type       *AccountType
	ActiveOnly bool
}

// AccountRepository persists chart-of-accounts reference data
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	// FindByIDsForTenant returns the accounts that exist among ids; missing ids are simply absent
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Account, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]Account, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, account *Account) error
}

// JournalVoucherFilter narrows voucher listings
type JournalVoucherFilter struct {
	shared.Filter
	Status      *VoucherStatus
	VoucherType *VoucherType
	CompanyID   *uuid.UUID
	FromDate    *time.Time
	ToDate      *time.Time
}

// JournalVoucherRepository persists JournalVoucher aggregates with their entries.
// Lookups that find nothing return (nil, nil).
type JournalVoucherRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*JournalVoucher, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalVoucherFilter) ([]JournalVoucher, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalVoucherFilter) (int64, error)
	// Save inserts a new voucher together with its entries
	Save(ctx context.Context, voucher *JournalVoucher) error
	// SaveWithLock updates a voucher if its version is unchanged, replacing its entries
	SaveWithLock(ctx context.Context, voucher *JournalVoucher) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	ExistsByVoucherNo(ctx context.Context, tenantID uuid.UUID, voucherNo string) (bool, error)
	GenerateVoucherNo(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error)
}

// Audit actions recorded for vouchers
const (
	AuditActionUnlock  = "UNLOCK"
	AuditActionReverse = "REVERSE"
)

// VoucherAuditLog records privileged actions taken on a voucher
type VoucherAuditLog struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	VoucherID  uuid.UUID
	Action     string
	FromStatus VoucherStatus
	ToStatus   VoucherStatus
	ActorID    uuid.UUID
	Reason     string
	CreatedAt  time.Time
}

// NewVoucherAuditLog creates an audit record stamped now
func NewVoucherAuditLog(tenantID, voucherID, actorID uuid.UUID, action string, from, to VoucherStatus, reason string) *VoucherAuditLog {
	return &VoucherAuditLog{
		ID:         uuid.New(),
		TenantID:   tenantID,
		VoucherID:  voucherID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
}

// VoucherAuditLogRepository stores voucher audit records
type VoucherAuditLogRepository interface {
	Save(ctx context.Context, log *VoucherAuditLog) error
	FindByVoucher(ctx context.Context, tenantID, voucherID uuid.UUID) ([]VoucherAuditLog, error)
}
