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
)

const documentInvoice = "invoice"

// InvoiceService manages the invoices receipts are allocated against
type InvoiceService struct {
	invoiceRepo    receivable.InvoiceRepository
	eventPublisher shared.EventPublisher
}

// NewInvoiceService creates an InvoiceService
func NewInvoiceService(invoiceRepo receivable.InvoiceRepository) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo}
}

// SetEventPublisher sets the publisher used after each successful write
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates an invoice whose whole amount is outstanding
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentInvoice, "create")
	defer span.End()

	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	total, err := valueobject.NewMoney(req.TotalAmount, currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	invoice, err := receivable.NewInvoice(tenantID, req.InvoiceNo, req.CustomerID, req.ContractID, req.InvoiceDate, derefTime(req.DueDate), total)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.CreatedBy != uuid.Nil {
		invoice.SetCreatedBy(req.CreatedBy)
	}

	exists, err := s.invoiceRepo.ExistsByInvoiceNo(ctx, tenantID, invoice.InvoiceNo)
	if err != nil {
		return nil, fmt.Errorf("failed to check invoice number: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Invoice number already in use").
			WithDetail("invoice_no", invoice.InvoiceNo)
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoice.ID.String())

	s.publishDomainEvents(ctx, invoice)
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// Post marks an invoice as posted to the ledger
func (s *InvoiceService) Post(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.update(ctx, tenantID, invoiceID, "post", func(inv *receivable.Invoice) error {
		return inv.Post()
	})
}

// Unpost reverts posting of an invoice nothing has been allocated to
func (s *InvoiceService) Unpost(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.update(ctx, tenantID, invoiceID, "unpost", func(inv *receivable.Invoice) error {
		return inv.Unpost()
	})
}

// Cancel cancels an invoice that has not been paid against
func (s *InvoiceService) Cancel(ctx context.Context, tenantID, invoiceID uuid.UUID, req CancelRequest) (*InvoiceResponse, error) {
	return s.update(ctx, tenantID, invoiceID, "cancel", func(inv *receivable.Invoice) error {
		return inv.Cancel(req.Reason)
	})
}

// GetByID returns one invoice
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.load(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// ListOutstanding returns the customer's active invoices with a positive balance, oldest due first
func (s *InvoiceService) ListOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) ([]OutstandingInvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindOutstanding(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding invoices: %w", err)
	}
	return ToOutstandingInvoiceResponses(invoices), nil
}

// List returns a page of invoices and the total count
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := receivable.InvoiceFilter{
		Filter:          listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		CustomerID:      filter.CustomerID,
		ContractID:      filter.ContractID,
		OutstandingOnly: filter.OutstandingOnly,
	}
	if filter.Status != "" {
		status := receivable.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", filter.Status))
		}
		domainFilter.Status = &status
	}
	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return ToInvoiceResponses(invoices), total, nil
}

func (s *InvoiceService) update(ctx context.Context, tenantID, invoiceID uuid.UUID, operation string, fn func(*receivable.Invoice) error) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentInvoice, operation)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String(), telemetry.SpanAttrInvoiceID, invoiceID.String())

	invoice, err := s.load(ctx, tenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := fn(invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publishDomainEvents(ctx, invoice)
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

func (s *InvoiceService) load(ctx context.Context, tenantID, invoiceID uuid.UUID) (*receivable.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewNotFoundError(documentInvoice, invoiceID)
	}
	return invoice, nil
}

func (s *InvoiceService) publishDomainEvents(ctx context.Context, invoice *receivable.Invoice) {
	publishEvents(ctx, s.eventPublisher, invoice)
}

// publishEvents publishes and clears the pending events of each aggregate
func publishEvents(ctx context.Context, publisher shared.EventPublisher, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	// the event bus logs handler failures itself
	_ = publisher.Publish(ctx, events...)
}

func listFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	f.Search = search
	return f
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
