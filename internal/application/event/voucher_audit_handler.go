package event

import (
	"context"
	"fmt"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/domain/shared"
	"go.uber.org/zap"
)

// VoucherAuditHandler records privileged voucher actions.
// Unlocks bypass the posting lock, so each one is logged at WARN. Their audit row is
// already committed by JournalService.ResetForEdit; reversals are persisted here.
type VoucherAuditHandler struct {
	repo   ledger.VoucherAuditLogRepository
	logger *zap.Logger
}

// NewVoucherAuditHandler creates a VoucherAuditHandler
func NewVoucherAuditHandler(repo ledger.VoucherAuditLogRepository, logger *zap.Logger) *VoucherAuditHandler {
	return &VoucherAuditHandler{repo: repo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *VoucherAuditHandler) EventTypes() []string {
	return []string{
		ledger.EventTypeJournalVoucherUnlocked,
		ledger.EventTypeJournalVoucherReversed,
	}
}

// Handle writes an audit record for an unlock or reversal
func (h *VoucherAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var entry *ledger.VoucherAuditLog
	switch e := event.(type) {
	case *ledger.JournalVoucherUnlockedEvent:
		h.logger.Warn("journal voucher unlocked for editing",
			zap.String("tenant_id", e.TenantID().String()),
			zap.String("voucher_id", e.VoucherID.String()),
			zap.String("voucher_no", e.VoucherNo),
			zap.String("previous_status", string(e.PreviousStatus)),
			zap.String("actor_id", e.UnlockedBy.String()),
			zap.String("reason", e.Reason),
		)
		return nil
	case *ledger.JournalVoucherReversedEvent:
		h.logger.Info("journal voucher reversed",
			zap.String("tenant_id", e.TenantID().String()),
			zap.String("voucher_id", e.VoucherID.String()),
			zap.String("reversal_id", e.ReversalID.String()),
			zap.String("actor_id", e.ReversedBy.String()),
		)
		entry = ledger.NewVoucherAuditLog(e.TenantID(), e.VoucherID, e.ReversedBy, ledger.AuditActionReverse,
			ledger.VoucherStatusPosted, ledger.VoucherStatusPosted, e.Reason)
	default:
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	if err := h.repo.Save(ctx, entry); err != nil {
		h.logger.Error("failed to save voucher audit log",
			zap.String("voucher_id", entry.VoucherID.String()),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save voucher audit log: %w", err)
	}
	return nil
}

var _ shared.EventHandler = (*VoucherAuditHandler)(nil)
