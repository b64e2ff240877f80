package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels recorded by AccountingMetrics
const (
	OutcomeCommitted     = "committed"
	OutcomeRejected      = "rejected"
	OutcomePartialWarned = "partial_warning"
	OutcomeRefund        = "refund"
	OutcomeCreditNote    = "credit_note"
)

// AccountingMetrics records business counters for vouchers, receipts and settlements.
// All methods are safe to call on a nil receiver, which records nothing.
type AccountingMetrics struct {
	voucherCommits    *Counter
	voucherPosts      *Counter
	receiptCommits    *Counter
	allocatedCents    *Counter
	settlements       *Counter
	operationDuration *Histogram
}

// NewAccountingMetrics registers the accounting instruments on meter
func NewAccountingMetrics(meter metric.Meter) (*AccountingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &AccountingMetrics{}
	var err error

	if m.voucherCommits, err = NewCounter(meter, "leasing_voucher_commit_total",
		"Journal voucher commit attempts by outcome", "{vouchers}"); err != nil {
		return nil, err
	}
	if m.voucherPosts, err = NewCounter(meter, "leasing_voucher_posted_total",
		"Journal vouchers posted to the ledger", "{vouchers}"); err != nil {
		return nil, err
	}
	if m.receiptCommits, err = NewCounter(meter, "leasing_receipt_commit_total",
		"Receipt allocation commits by outcome", "{receipts}"); err != nil {
		return nil, err
	}
	if m.allocatedCents, err = NewCounter(meter, "leasing_allocated_amount_total",
		"Amount allocated to invoices in minor units", "{cents}"); err != nil {
		return nil, err
	}
	if m.settlements, err = NewCounter(meter, "leasing_settlement_total",
		"Completed termination settlements by kind", "{settlements}"); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "leasing_operation_duration_seconds",
		Description: "Duration of accounting service operations",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordVoucherCommit counts a commit attempt; outcome is OutcomeCommitted or OutcomeRejected
func (m *AccountingMetrics) RecordVoucherCommit(ctx context.Context, tenantID uuid.UUID, outcome string) {
	if m == nil {
		return
	}
	m.voucherCommits.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOutcome.String(outcome))
}

// RecordVoucherPosted counts a posted voucher
func (m *AccountingMetrics) RecordVoucherPosted(ctx context.Context, tenantID uuid.UUID) {
	if m == nil {
		return
	}
	m.voucherPosts.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordReceiptCommit counts a receipt commit and, when committed, the amount allocated
func (m *AccountingMetrics) RecordReceiptCommit(ctx context.Context, tenantID uuid.UUID, outcome, currency string, allocated decimal.Decimal) {
	if m == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	m.receiptCommits.Inc(ctx, tenant, AttrOutcome.String(outcome))
	if outcome == OutcomeCommitted {
		m.allocatedCents.Add(ctx, allocated.Shift(2).IntPart(), tenant, AttrCurrency.String(currency))
	}
}

// RecordSettlement counts a completed settlement; kind is OutcomeRefund or OutcomeCreditNote
func (m *AccountingMetrics) RecordSettlement(ctx context.Context, tenantID uuid.UUID, kind string) {
	if m == nil {
		return
	}
	m.settlements.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOutcome.String(kind))
}

// ObserveOperation records how long a service operation on document took
func (m *AccountingMetrics) ObserveOperation(ctx context.Context, document, operation string, started time.Time) {
	if m == nil {
		return
	}
	m.operationDuration.RecordDuration(ctx, time.Since(started),
		AttrDocument.String(document),
		attribute.String("operation", operation),
	)
}

// ErrMeterNil is returned when a nil meter is supplied
var ErrMeterNil = &MetricsError{Op: "NewAccountingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
