package receivable

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/leasing/internal/domain/receivable"
	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/erp/leasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const documentReceipt = "receipt"

// ReceiptService records customer payments and allocates them to invoices
type ReceiptService struct {
	receiptRepo     receivable.ReceiptRepository
	invoiceRepo     receivable.InvoiceRepository
	txScope         TransactionScope
	defaultStrategy receivable.AllocationStrategyType
	eventPublisher  shared.EventPublisher
	metrics         *telemetry.AccountingMetrics
}

// ReceiptServiceOption configures a ReceiptService
type ReceiptServiceOption func(*ReceiptService)

// WithTransactionScope runs commit and cancel inside scope
func WithTransactionScope(scope TransactionScope) ReceiptServiceOption {
	return func(s *ReceiptService) {
		s.txScope = scope
	}
}

// WithDefaultStrategy sets the order used by AutoAllocate when no invoice ids are given
func WithDefaultStrategy(t receivable.AllocationStrategyType) ReceiptServiceOption {
	return func(s *ReceiptService) {
		if t != "" {
			s.defaultStrategy = t
		}
	}
}

// WithEventPublisher publishes receipt and invoice events after each successful write
func WithEventPublisher(publisher shared.EventPublisher) ReceiptServiceOption {
	return func(s *ReceiptService) {
		s.eventPublisher = publisher
	}
}

// WithMetrics records receipt commit counters
func WithMetrics(metrics *telemetry.AccountingMetrics) ReceiptServiceOption {
	return func(s *ReceiptService) {
		s.metrics = metrics
	}
}

// NewReceiptService creates a ReceiptService
func NewReceiptService(
	receiptRepo receivable.ReceiptRepository,
	invoiceRepo receivable.InvoiceRepository,
	opts ...ReceiptServiceOption,
) *ReceiptService {
	s := &ReceiptService{
		receiptRepo:     receiptRepo,
		invoiceRepo:     invoiceRepo,
		defaultStrategy: receivable.AllocationStrategyOldestDueFirst,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.txScope == nil {
		s.txScope = NewNoOpTransactionScope(invoiceRepo, receiptRepo)
	}
	return s
}

// Create creates a Draft receipt, numbering it when no number is supplied
func (s *ReceiptService) Create(ctx context.Context, tenantID uuid.UUID, req CreateReceiptRequest) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentReceipt, "create")
	defer span.End()

	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, fail(span, err)
	}
	amount, err := valueobject.NewMoney(req.Amount, currency)
	if err != nil {
		return nil, fail(span, err)
	}
	receiptNo := req.ReceiptNo
	if receiptNo == "" {
		if receiptNo, err = s.receiptRepo.GenerateReceiptNo(ctx, tenantID, req.ReceiptDate); err != nil {
			return nil, fail(span, fmt.Errorf("failed to generate receipt number: %w", err))
		}
	}
	receipt, err := receivable.NewReceipt(tenantID, receiptNo, req.CustomerID, req.ReceiptDate, amount)
	if err != nil {
		return nil, fail(span, err)
	}
	if req.ContractID != nil {
		if err := receipt.SetContract(*req.ContractID); err != nil {
			return nil, fail(span, err)
		}
	}
	if !req.ExchangeRate.IsZero() {
		if err := receipt.SetExchangeRate(req.ExchangeRate); err != nil {
			return nil, fail(span, err)
		}
	}
	receipt.Remark = req.Remark
	if req.CreatedBy != uuid.Nil {
		receipt.SetCreatedBy(req.CreatedBy)
	}

	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, fail(span, fmt.Errorf("failed to save receipt: %w", err))
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrReceiptID, receipt.ID.String())
	publishEvents(ctx, s.eventPublisher, receipt)
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// AutoAllocate replaces the receipt's allocations with a proposal from the allocation engine.
// Invoices get min(remaining, balance) each until the amount runs out.
// Open invoices in another currency are skipped unless named explicitly, which is an error.
func (s *ReceiptService) AutoAllocate(ctx context.Context, tenantID, receiptID uuid.UUID, req AutoAllocateRequest) (*AutoAllocateResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentReceipt, "auto_allocate")
	defer span.End()

	receipt, err := s.load(ctx, s.receiptRepo, tenantID, receiptID)
	if err != nil {
		return nil, fail(span, err)
	}
	outstanding, err := s.invoiceRepo.FindOutstanding(ctx, tenantID, receipt.CustomerID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to load outstanding invoices: %w", err))
	}

	candidates := make([]receivable.OutstandingInvoice, 0, len(outstanding))
	strategyType := s.defaultStrategy
	if len(req.InvoiceIDs) > 0 {
		byID := make(map[uuid.UUID]*receivable.Invoice, len(outstanding))
		for i := range outstanding {
			byID[outstanding[i].ID] = &outstanding[i]
		}
		for _, id := range req.InvoiceIDs {
			inv, ok := byID[id]
			if !ok {
				return nil, fail(span, shared.NewNotFoundError("outstanding_invoice", id).
					WithDetail("customer_id", receipt.CustomerID.String()))
			}
			if inv.Currency() != receipt.Currency() {
				return nil, fail(span, shared.NewValidationError(shared.CodeCurrencyMismatch,
					"Invoice currency differs from receipt currency").
					WithEntity("invoice", id).
					WithExpected(receipt.Currency(), inv.Currency()))
			}
			candidates = append(candidates, inv.ToOutstanding())
		}
		strategyType = receivable.AllocationStrategyCallerOrder
	} else {
		for i := range outstanding {
			if outstanding[i].Currency() != receipt.Currency() {
				continue
			}
			candidates = append(candidates, outstanding[i].ToOutstanding())
		}
	}
	if req.Strategy != "" {
		strategyType = receivable.AllocationStrategyType(req.Strategy)
	}
	strategy, err := receivable.NewAllocationStrategy(strategyType)
	if err != nil {
		return nil, fail(span, err)
	}

	plan, err := receivable.NewAllocationEngine(strategy).AutoAllocate(receipt.Amount, candidates)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := receipt.ReplaceAllocations(plan.Allocations); err != nil {
		return nil, fail(span, err)
	}
	if err := s.receiptRepo.SaveWithLock(ctx, receipt); err != nil {
		return nil, fail(span, err)
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrReceiptID, receipt.ID.String(),
		telemetry.SpanAttrAllocations, len(plan.Allocations),
		"strategy", strategyType.String(),
	)
	return &AutoAllocateResponse{
		Receipt:   ToReceiptResponse(receipt),
		Allocated: plan.TotalAllocated.Amount(),
		Remaining: plan.Remaining.Amount(),
	}, nil
}

// SetAllocation sets the amount allocated from the receipt to one invoice.
// The amount may not exceed the invoice's balance; zero removes the allocation.
func (s *ReceiptService) SetAllocation(ctx context.Context, tenantID, receiptID, invoiceID uuid.UUID, req SetAllocationRequest) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentReceipt, "set_allocation")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrReceiptID, receiptID.String(), telemetry.SpanAttrInvoiceID, invoiceID.String())

	receipt, err := s.load(ctx, s.receiptRepo, tenantID, receiptID)
	if err != nil {
		return nil, fail(span, err)
	}
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to load invoice: %w", err))
	}
	if invoice == nil {
		return nil, fail(span, shared.NewNotFoundError(documentInvoice, invoiceID))
	}
	if invoice.CustomerID != receipt.CustomerID {
		return nil, fail(span, shared.NewValidationError("CUSTOMER_MISMATCH",
			fmt.Sprintf("Invoice %s belongs to another customer", invoice.InvoiceNo)).
			WithEntity(documentInvoice, invoice.ID).
			WithExpected(receipt.CustomerID, invoice.CustomerID))
	}
	amount, err := valueobject.NewMoney(req.Amount, receipt.Currency())
	if err != nil {
		return nil, fail(span, err)
	}
	if amount.IsPositive() {
		if err := invoice.CheckAllocatable(amount); err != nil {
			return nil, fail(span, err)
		}
	}
	if err := receipt.SetAllocation(invoice.ToOutstanding(), amount); err != nil {
		return nil, fail(span, err)
	}
	if err := s.receiptRepo.SaveWithLock(ctx, receipt); err != nil {
		return nil, fail(span, err)
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// RemoveAllocation drops the allocation to one invoice
func (s *ReceiptService) RemoveAllocation(ctx context.Context, tenantID, receiptID, invoiceID uuid.UUID) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentReceipt, "remove_allocation")
	defer span.End()

	receipt, err := s.load(ctx, s.receiptRepo, tenantID, receiptID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := receipt.RemoveAllocation(invoiceID); err != nil {
		return nil, fail(span, err)
	}
	if err := s.receiptRepo.SaveWithLock(ctx, receipt); err != nil {
		return nil, fail(span, err)
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// PreviewCommit reports what Commit would do without writing anything
func (s *ReceiptService) PreviewCommit(ctx context.Context, tenantID, receiptID uuid.UUID) (*CommitReceiptResponse, error) {
	receipt, err := s.load(ctx, s.receiptRepo, tenantID, receiptID)
	if err != nil {
		return nil, err
	}
	result, err := receivable.NewAllocationEngine(nil).Evaluate(receipt)
	if err != nil {
		return nil, err
	}
	resp := ToCommitReceiptResponse(receipt, result)
	return &resp, nil
}

// Commit applies the receipt's allocations to its invoices. The invoices are
// locked for the duration of the transaction; any failure leaves every invoice
// and the receipt untouched. A partial allocation without AllowPartial returns
// an uncommitted result carrying a warning.
func (s *ReceiptService) Commit(ctx context.Context, tenantID, receiptID uuid.UUID, req CommitReceiptRequest) (*CommitReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentReceipt, "commit")
	defer span.End()
	defer s.metrics.ObserveOperation(ctx, documentReceipt, "commit", time.Now())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrReceiptID, receiptID.String(),
		"allow_partial", req.AllowPartial,
	)

	var (
		receipt  *receivable.Receipt
		result   *receivable.CommitResult
		invoices []*receivable.Invoice
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := s.load(ctx, repos.ReceiptRepo(), tenantID, receiptID)
		if err != nil {
			return err
		}
		locked, err := s.lockInvoices(ctx, repos.InvoiceRepo(), r)
		if err != nil {
			return err
		}
		res, err := receivable.NewAllocationEngine(nil).Commit(r, locked, receivable.CommitOptions{
			UserID:       req.UserID,
			AllowPartial: req.AllowPartial,
		})
		if err != nil {
			return err
		}
		receipt, result = r, res
		if !res.Committed {
			return nil
		}
		for _, a := range r.Allocations {
			inv := locked[a.InvoiceID]
			if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
				return err
			}
			invoices = append(invoices, inv)
		}
		return repos.ReceiptRepo().SaveWithLock(ctx, r)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	currency := receipt.Currency().String()
	if !result.Committed {
		s.metrics.RecordReceiptCommit(ctx, tenantID, telemetry.OutcomePartialWarned, currency, result.Allocated.Amount())
		telemetry.AddEvent(span, "partial_allocation_warning", "unallocated", result.Unallocated.StringFixed())
		resp := ToCommitReceiptResponse(receipt, result)
		return &resp, nil
	}

	s.metrics.RecordReceiptCommit(ctx, tenantID, telemetry.OutcomeCommitted, currency, result.Allocated.Amount())
	telemetry.SetAttributes(span, telemetry.SpanAttrAllocations, len(receipt.Allocations))
	s.publish(ctx, receipt, invoices)
	resp := ToCommitReceiptResponse(receipt, result)
	return &resp, nil
}

// Cancel voids a receipt. For a committed receipt every allocated amount is
// returned to its invoice in the same transaction.
func (s *ReceiptService) Cancel(ctx context.Context, tenantID, receiptID uuid.UUID, req CancelRequest) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentReceipt, "cancel")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String(), telemetry.SpanAttrReceiptID, receiptID.String())

	var (
		receipt  *receivable.Receipt
		invoices []*receivable.Invoice
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := s.load(ctx, repos.ReceiptRepo(), tenantID, receiptID)
		if err != nil {
			return err
		}
		locked := map[uuid.UUID]*receivable.Invoice{}
		wasCommitted := r.Status == receivable.ReceiptStatusCommitted
		if wasCommitted {
			if locked, err = s.lockInvoices(ctx, repos.InvoiceRepo(), r); err != nil {
				return err
			}
		}
		if err := receivable.NewAllocationEngine(nil).Cancel(r, locked, req.UserID, req.Reason); err != nil {
			return err
		}
		if wasCommitted {
			for _, a := range r.Allocations {
				inv := locked[a.InvoiceID]
				if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
					return err
				}
				invoices = append(invoices, inv)
			}
		}
		receipt = r
		return repos.ReceiptRepo().SaveWithLock(ctx, r)
	})
	if err != nil {
		return nil, fail(span, err)
	}
	s.publish(ctx, receipt, invoices)
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// Delete removes a Draft receipt
func (s *ReceiptService) Delete(ctx context.Context, tenantID, receiptID uuid.UUID) error {
	receipt, err := s.load(ctx, s.receiptRepo, tenantID, receiptID)
	if err != nil {
		return err
	}
	if err := receipt.EnsureDeletable(); err != nil {
		return err
	}
	if err := s.receiptRepo.DeleteForTenant(ctx, tenantID, receiptID); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}

// GetByID returns one receipt
func (s *ReceiptService) GetByID(ctx context.Context, tenantID, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.load(ctx, s.receiptRepo, tenantID, receiptID)
	if err != nil {
		return nil, err
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

// List returns a page of receipts and the total count
func (s *ReceiptService) List(ctx context.Context, tenantID uuid.UUID, filter ReceiptListFilter) ([]ReceiptResponse, int64, error) {
	domainFilter := receivable.ReceiptFilter{
		Filter:     listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		CustomerID: filter.CustomerID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
	}
	if filter.Status != "" {
		status := receivable.ReceiptStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown receipt status %q", filter.Status))
		}
		domainFilter.Status = &status
	}
	receipts, err := s.receiptRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}
	total, err := s.receiptRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return ToReceiptResponses(receipts), total, nil
}

// lockInvoices loads every invoice the receipt allocates to under a row lock
func (s *ReceiptService) lockInvoices(ctx context.Context, repo receivable.InvoiceRepository, r *receivable.Receipt) (map[uuid.UUID]*receivable.Invoice, error) {
	ids := r.InvoiceIDs()
	locked := make(map[uuid.UUID]*receivable.Invoice, len(ids))
	if len(ids) == 0 {
		return locked, nil
	}
	invoices, err := repo.FindByIDsForUpdate(ctx, r.TenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock invoices: %w", err)
	}
	for i := range invoices {
		locked[invoices[i].ID] = &invoices[i]
	}
	return locked, nil
}

func (s *ReceiptService) load(ctx context.Context, repo receivable.ReceiptRepository, tenantID, receiptID uuid.UUID) (*receivable.Receipt, error) {
	receipt, err := repo.FindByIDForTenant(ctx, tenantID, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, shared.NewNotFoundError(documentReceipt, receiptID)
	}
	return receipt, nil
}

func (s *ReceiptService) publish(ctx context.Context, receipt *receivable.Receipt, invoices []*receivable.Invoice) {
	aggregates := make([]shared.AggregateRoot, 0, len(invoices)+1)
	aggregates = append(aggregates, receipt)
	for _, inv := range invoices {
		aggregates = append(aggregates, inv)
	}
	publishEvents(ctx, s.eventPublisher, aggregates...)
}

func fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	return err
}
