package termination

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/erp/leasing/internal/domain/termination"
	"github.com/erp/leasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

const documentTermination = "termination"

// TerminationService settles the security deposit of ending lease contracts
type TerminationService struct {
	repo           termination.Repository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.AccountingMetrics
}

// Option configures a TerminationService
type Option func(*TerminationService)

// WithEventPublisher publishes termination events after each successful write
func WithEventPublisher(publisher shared.EventPublisher) Option {
	return func(s *TerminationService) {
		s.eventPublisher = publisher
	}
}

// WithMetrics records settlement counters
func WithMetrics(metrics *telemetry.AccountingMetrics) Option {
	return func(s *TerminationService) {
		s.metrics = metrics
	}
}

// NewTerminationService creates a TerminationService
func NewTerminationService(repo termination.Repository, opts ...Option) *TerminationService {
	s := &TerminationService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a Draft termination. A contract can have only one open termination.
func (s *TerminationService) Create(ctx context.Context, tenantID uuid.UUID, req CreateTerminationRequest) (*TerminationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentTermination, "create")
	defer span.End()

	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	deposit, err := valueobject.NewMoney(req.SecurityDeposit, currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	open, err := s.repo.ExistsOpenForContract(ctx, tenantID, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open terminations: %w", err)
	}
	if open {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Contract already has an open termination").
			WithDetail("contract_id", req.ContractID.String())
	}

	terminationNo := req.TerminationNo
	if terminationNo == "" {
		if terminationNo, err = s.repo.GenerateTerminationNo(ctx, tenantID, req.TerminationDate); err != nil {
			return nil, fmt.Errorf("failed to generate termination number: %w", err)
		}
	}
	t, err := termination.NewTermination(tenantID, terminationNo, req.ContractID, req.CustomerID, req.TerminationDate, deposit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for _, in := range req.Deductions {
		d, err := newDeduction(currency, in)
		if err != nil {
			return nil, err
		}
		if err := t.AddDeduction(d); err != nil {
			return nil, err
		}
	}
	if !req.AdjustAmount.IsZero() {
		adjust, err := valueobject.NewMoney(req.AdjustAmount, currency)
		if err != nil {
			return nil, err
		}
		if err := t.SetAdjustment(adjust); err != nil {
			return nil, err
		}
	}
	t.Remark = req.Remark
	if req.CreatedBy != uuid.Nil {
		t.SetCreatedBy(req.CreatedBy)
	}

	if err := s.repo.Save(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save termination: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTerminationID, t.ID.String())
	s.publishDomainEvents(ctx, t)
	resp := ToTerminationResponse(t)
	return &resp, nil
}

// AddDeduction appends a deduction line and recalculates the settlement
func (s *TerminationService) AddDeduction(ctx context.Context, tenantID, id uuid.UUID, req DeductionInput) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "add_deduction", func(t *termination.Termination) error {
		d, err := newDeduction(t.Currency(), req)
		if err != nil {
			return err
		}
		return t.AddDeduction(d)
	})
}

// UpdateDeduction reprices a deduction line
func (s *TerminationService) UpdateDeduction(ctx context.Context, tenantID, id, deductionID uuid.UUID, req UpdateDeductionRequest) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "update_deduction", func(t *termination.Termination) error {
		amount, err := valueobject.NewMoney(req.Amount, t.Currency())
		if err != nil {
			return err
		}
		return t.UpdateDeduction(deductionID, req.Description, amount, req.TaxPercentage)
	})
}

// RemoveDeduction drops a deduction line
func (s *TerminationService) RemoveDeduction(ctx context.Context, tenantID, id, deductionID uuid.UUID) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "remove_deduction", func(t *termination.Termination) error {
		return t.RemoveDeduction(deductionID)
	})
}

// SetAdjustment sets the signed adjustment applied after deductions
func (s *TerminationService) SetAdjustment(ctx context.Context, tenantID, id uuid.UUID, req AmountRequest) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "set_adjustment", func(t *termination.Termination) error {
		amount, err := valueobject.NewMoney(req.Amount, t.Currency())
		if err != nil {
			return err
		}
		return t.SetAdjustment(amount)
	})
}

// SetSecurityDeposit replaces the deposit amount
func (s *TerminationService) SetSecurityDeposit(ctx context.Context, tenantID, id uuid.UUID, req AmountRequest) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "set_deposit", func(t *termination.Termination) error {
		amount, err := valueobject.NewMoney(req.Amount, t.Currency())
		if err != nil {
			return err
		}
		return t.SetSecurityDeposit(amount)
	})
}

// Recalculate settles the stored figures again and saves the result
func (s *TerminationService) Recalculate(ctx context.Context, tenantID, id uuid.UUID) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "recalculate", func(t *termination.Termination) error {
		if !t.Status.IsEditable() {
			return shared.NewStateError(shared.CodeLockedForEditing,
				fmt.Sprintf("Cannot recalculate a %s termination", t.Status)).
				WithEntity(documentTermination, t.ID)
		}
		_, err := t.Recalculate()
		return err
	})
}

// Settle computes a settlement from raw figures. Nothing is loaded or stored.
func (s *TerminationService) Settle(req SettleRequest) (*SettlementResponse, error) {
	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	deposit, err := valueobject.NewMoney(req.SecurityDeposit, currency)
	if err != nil {
		return nil, err
	}
	adjustment, err := valueobject.NewMoney(req.Adjustment, currency)
	if err != nil {
		return nil, err
	}
	deductions := make([]termination.Deduction, 0, len(req.Deductions))
	for _, in := range req.Deductions {
		d, err := newDeduction(currency, in)
		if err != nil {
			return nil, err
		}
		deductions = append(deductions, d)
	}
	total, err := termination.ComputeDeductionTotal(currency, deductions)
	if err != nil {
		return nil, err
	}
	settlement, err := termination.Settle(deposit, total, adjustment)
	if err != nil {
		return nil, err
	}
	resp := ToSettlementResponse(settlement)
	return &resp, nil
}

// Submit moves a Draft termination to Pending
func (s *TerminationService) Submit(ctx context.Context, tenantID, id uuid.UUID) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "submit", func(t *termination.Termination) error {
		return t.Submit()
	})
}

// Approve moves a Pending termination to Approved
func (s *TerminationService) Approve(ctx context.Context, tenantID, id uuid.UUID, req ActionRequest) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "approve", func(t *termination.Termination) error {
		return t.Approve(req.UserID)
	})
}

// ProcessRefund pays out the refund of an Approved termination and completes it.
// It fails with ALREADY_PROCESSED on a second call and NO_REFUND_DUE on the credit-note path.
func (s *TerminationService) ProcessRefund(ctx context.Context, tenantID, id uuid.UUID, req ProcessRefundRequest) (*TerminationResponse, error) {
	resp, err := s.update(ctx, tenantID, id, "process_refund", func(t *termination.Termination) error {
		return t.ProcessRefund(req.UserID, derefTime(req.RefundDate), req.Reference)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSettlement(ctx, tenantID, telemetry.OutcomeRefund)
	return resp, nil
}

// CompleteWithCreditNote completes an Approved termination where the tenant owes money
func (s *TerminationService) CompleteWithCreditNote(ctx context.Context, tenantID, id uuid.UUID, req CompleteRequest) (*TerminationResponse, error) {
	resp, err := s.update(ctx, tenantID, id, "complete", func(t *termination.Termination) error {
		return t.CompleteWithCreditNote(req.UserID, req.CreditNoteNo)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSettlement(ctx, tenantID, telemetry.OutcomeCreditNote)
	return resp, nil
}

// Cancel cancels a termination that is not yet Completed
func (s *TerminationService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelRequest) (*TerminationResponse, error) {
	return s.update(ctx, tenantID, id, "cancel", func(t *termination.Termination) error {
		return t.Cancel(req.UserID, req.Reason)
	})
}

// Delete removes a termination that has not been Approved or Completed
func (s *TerminationService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	t, err := s.load(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := t.EnsureDeletable(); err != nil {
		return err
	}
	if err := s.repo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete termination: %w", err)
	}
	return nil
}

// GetByID returns one termination
func (s *TerminationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*TerminationResponse, error) {
	t, err := s.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTerminationResponse(t)
	return &resp, nil
}

// List returns a page of terminations and the total count
func (s *TerminationService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]TerminationResponse, int64, error) {
	domainFilter := termination.Filter{
		Filter:     shared.DefaultFilter(),
		ContractID: filter.ContractID,
		CustomerID: filter.CustomerID,
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := termination.Status(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown termination status %q", filter.Status))
		}
		domainFilter.Status = &status
	}

	list, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list terminations: %w", err)
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count terminations: %w", err)
	}
	return ToTerminationResponses(list), total, nil
}

func (s *TerminationService) update(ctx context.Context, tenantID, id uuid.UUID, operation string, fn func(*termination.Termination) error) (*TerminationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentTermination, operation)
	defer span.End()
	defer s.metrics.ObserveOperation(ctx, documentTermination, operation, time.Now())
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String(), telemetry.SpanAttrTerminationID, id.String())

	t, err := s.load(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := fn(t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "status", t.Status.String())
	s.publishDomainEvents(ctx, t)
	resp := ToTerminationResponse(t)
	return &resp, nil
}

func (s *TerminationService) load(ctx context.Context, tenantID, id uuid.UUID) (*termination.Termination, error) {
	t, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load termination: %w", err)
	}
	if t == nil {
		return nil, shared.NewNotFoundError(documentTermination, id)
	}
	return t, nil
}

func (s *TerminationService) publishDomainEvents(ctx context.Context, t *termination.Termination) {
	events := t.GetDomainEvents()
	t.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func newDeduction(currency valueobject.Currency, in DeductionInput) (termination.Deduction, error) {
	amount, err := valueobject.NewMoney(in.Amount, currency)
	if err != nil {
		return termination.Deduction{}, err
	}
	return termination.NewDeduction(in.Description, amount, in.TaxPercentage)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
