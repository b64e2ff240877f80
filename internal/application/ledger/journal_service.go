package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/domain/shared"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/erp/leasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const documentJournalVoucher = "journal_voucher"

// JournalService runs the journal voucher lifecycle
type JournalService struct {
	voucherRepo    ledger.JournalVoucherRepository
	accountRepo    ledger.AccountRepository
	auditRepo      ledger.VoucherAuditLogRepository
	txScope        TransactionScope
	balancer       *ledger.JournalBalancer
	eventPublisher shared.EventPublisher
	metrics        *telemetry.AccountingMetrics
}

// JournalServiceOption configures a JournalService
type JournalServiceOption func(*JournalService)

// WithTransactionScope runs writes inside scope instead of directly on the repositories
func WithTransactionScope(scope TransactionScope) JournalServiceOption {
	return func(s *JournalService) {
		s.txScope = scope
	}
}

// WithAuditLogRepository backs the default non-transactional scope's audit writes
func WithAuditLogRepository(repo ledger.VoucherAuditLogRepository) JournalServiceOption {
	return func(s *JournalService) {
		s.auditRepo = repo
	}
}

// WithEventPublisher publishes voucher events after each successful write
func WithEventPublisher(publisher shared.EventPublisher) JournalServiceOption {
	return func(s *JournalService) {
		s.eventPublisher = publisher
	}
}

// WithMetrics records commit and posting counters
func WithMetrics(metrics *telemetry.AccountingMetrics) JournalServiceOption {
	return func(s *JournalService) {
		s.metrics = metrics
	}
}

// NewJournalService creates a JournalService
func NewJournalService(
	voucherRepo ledger.JournalVoucherRepository,
	accountRepo ledger.AccountRepository,
	opts ...JournalServiceOption,
) *JournalService {
	s := &JournalService{
		voucherRepo: voucherRepo,
		accountRepo: accountRepo,
		balancer:    ledger.NewJournalBalancer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.txScope == nil {
		s.txScope = NewNoOpTransactionScope(voucherRepo, accountRepo, s.auditRepo)
	}
	return s
}

// Create creates a Draft voucher. Entries may be left unbalanced until commit.
func (s *JournalService) Create(ctx context.Context, tenantID uuid.UUID, req CreateVoucherRequest) (*VoucherResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentJournalVoucher, "create")
	defer span.End()
	defer s.metrics.ObserveOperation(ctx, documentJournalVoucher, "create", time.Now())

	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, s.fail(span, err)
	}
	base := currency
	if req.BaseCurrency != "" {
		if base, err = valueobject.ParseCurrency(req.BaseCurrency); err != nil {
			return nil, s.fail(span, err)
		}
	}

	voucher, err := ledger.NewJournalVoucher(tenantID, ledger.VoucherHeader{
		VoucherNo:       req.VoucherNo,
		VoucherType:     ledger.VoucherType(req.VoucherType),
		JournalType:     ledger.JournalType(req.JournalType),
		TransactionDate: req.TransactionDate,
		CompanyID:       req.CompanyID,
		FiscalYearID:    req.FiscalYearID,
		Currency:        currency,
		BaseCurrency:    base,
		ExchangeRate:    req.ExchangeRate,
		Narration:       req.Narration,
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	entries, err := ToEntries(voucher.Currency, voucher.BaseCurrency, voucher.ExchangeRate, req.Entries)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := voucher.SetEntries(entries); err != nil {
		return nil, s.fail(span, err)
	}
	if req.CreatedBy != uuid.Nil {
		voucher.SetCreatedBy(req.CreatedBy)
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherID, voucher.ID.String(),
		telemetry.SpanAttrEntryCount, len(entries),
	)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if voucher.VoucherNo != "" {
			exists, err := repos.VoucherRepo().ExistsByVoucherNo(ctx, tenantID, voucher.VoucherNo)
			if err != nil {
				return fmt.Errorf("failed to check voucher number: %w", err)
			}
			if exists {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Voucher number already in use").
					WithDetail("voucher_no", voucher.VoucherNo)
			}
		}
		if err := repos.VoucherRepo().Save(ctx, voucher); err != nil {
			return fmt.Errorf("failed to save voucher: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.publishDomainEvents(ctx, voucher)
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// SaveDraft replaces the entries (and optionally date and narration) of a Draft or Pending voucher.
// A Pending voucher goes back to Draft.
func (s *JournalService) SaveDraft(ctx context.Context, tenantID, voucherID uuid.UUID, req SaveDraftRequest) (*VoucherResponse, error) {
	voucher, err := s.mutate(ctx, tenantID, voucherID, "save_draft", func(_ TransactionalRepositories, v *ledger.JournalVoucher) error {
		if req.TransactionDate != nil || req.Narration != nil {
			date, narration := v.TransactionDate, v.Narration
			if req.TransactionDate != nil {
				date = *req.TransactionDate
			}
			if req.Narration != nil {
				narration = *req.Narration
			}
			if err := v.UpdateHeader(date, narration); err != nil {
				return err
			}
		}
		entries, err := ToEntries(v.Currency, v.BaseCurrency, v.ExchangeRate, req.Entries)
		if err != nil {
			return err
		}
		return v.SetEntries(entries)
	})
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Validate totals a set of lines without persisting anything. Forms call it on every change.
func (s *JournalService) Validate(ctx context.Context, req ValidateEntriesRequest) (*BalanceResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, documentJournalVoucher, "validate")
	defer span.End()

	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, s.fail(span, err)
	}
	entries, err := ToEntries(currency, currency, decimal.NewFromInt(1), req.Entries)
	if err != nil {
		return nil, s.fail(span, err)
	}
	result, err := s.balancer.Validate(currency, entries)
	if err != nil {
		return nil, s.fail(span, err)
	}
	resp := ToBalanceResponse(result)
	return &resp, nil
}

// Commit checks the voucher balances and references active accounts, then moves it to Pending
func (s *JournalService) Commit(ctx context.Context, tenantID, voucherID uuid.UUID) (*VoucherResponse, error) {
	voucher, err := s.mutate(ctx, tenantID, voucherID, "commit", func(repos TransactionalRepositories, v *ledger.JournalVoucher) error {
		if err := s.ensureAccountsPostable(ctx, repos.AccountRepo(), v); err != nil {
			return err
		}
		if _, err := s.balancer.Commit(v); err != nil {
			if errors.Is(err, shared.ErrUnbalancedEntry) {
				s.metrics.RecordVoucherCommit(ctx, tenantID, telemetry.OutcomeRejected)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordVoucherCommit(ctx, tenantID, telemetry.OutcomeCommitted)
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Approve moves a Pending voucher to Approved
func (s *JournalService) Approve(ctx context.Context, tenantID, voucherID, userID uuid.UUID) (*VoucherResponse, error) {
	voucher, err := s.mutate(ctx, tenantID, voucherID, "approve", func(_ TransactionalRepositories, v *ledger.JournalVoucher) error {
		return v.Approve(userID)
	})
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Reject moves a Pending voucher to Rejected
func (s *JournalService) Reject(ctx context.Context, tenantID, voucherID uuid.UUID, req ActionRequest) (*VoucherResponse, error) {
	voucher, err := s.mutate(ctx, tenantID, voucherID, "reject", func(_ TransactionalRepositories, v *ledger.JournalVoucher) error {
		return v.Reject(req.UserID, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Post moves an Approved voucher to Posted, numbering it first if it has no number
func (s *JournalService) Post(ctx context.Context, tenantID, voucherID uuid.UUID, req PostVoucherRequest) (*VoucherResponse, error) {
	voucher, err := s.mutate(ctx, tenantID, voucherID, "post", func(repos TransactionalRepositories, v *ledger.JournalVoucher) error {
		if err := s.ensureAccountsPostable(ctx, repos.AccountRepo(), v); err != nil {
			return err
		}
		var postingDate time.Time
		if req.PostingDate != nil {
			postingDate = *req.PostingDate
		}
		if v.VoucherNo == "" {
			if err := s.assignVoucherNo(ctx, repos.VoucherRepo(), v, v.TransactionDate); err != nil {
				return err
			}
		}
		return v.Post(req.UserID, postingDate)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordVoucherPosted(ctx, tenantID)
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Reverse creates and saves a Posted voucher with mirrored entries and flags the original as reversed.
// Both writes share one transaction.
func (s *JournalService) Reverse(ctx context.Context, tenantID, voucherID uuid.UUID, req ReverseVoucherRequest) (*ReverseVoucherResponse, error) {
	var reversal *ledger.JournalVoucher
	original, err := s.mutate(ctx, tenantID, voucherID, "reverse", func(repos TransactionalRepositories, v *ledger.JournalVoucher) error {
		var reversalDate time.Time
		if req.ReversalDate != nil {
			reversalDate = *req.ReversalDate
		}
		r, err := v.Reverse(req.UserID, req.Reason, reversalDate)
		if err != nil {
			return err
		}
		if err := s.assignVoucherNo(ctx, repos.VoucherRepo(), r, r.TransactionDate); err != nil {
			return err
		}
		if err := repos.VoucherRepo().Save(ctx, r); err != nil {
			return fmt.Errorf("failed to save reversal voucher: %w", err)
		}
		reversal = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordVoucherPosted(ctx, tenantID)
	return &ReverseVoucherResponse{
		Original: ToVoucherResponse(original),
		Reversal: ToVoucherResponse(reversal),
	}, nil
}

// Cancel cancels a Draft or Pending voucher
func (s *JournalService) Cancel(ctx context.Context, tenantID, voucherID uuid.UUID, req ActionRequest) (*VoucherResponse, error) {
	voucher, err := s.mutate(ctx, tenantID, voucherID, "cancel", func(_ TransactionalRepositories, v *ledger.JournalVoucher) error {
		return v.Cancel(req.UserID, req.Reason)
	})
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// ResetForEdit unlocks an Approved or Rejected voucher back to Draft.
// The unlock audit row is written in the same transaction as the status change.
func (s *JournalService) ResetForEdit(ctx context.Context, tenantID, voucherID uuid.UUID, req ActionRequest) (*VoucherResponse, error) {
	voucher, err := s.mutate(ctx, tenantID, voucherID, "reset", func(repos TransactionalRepositories, v *ledger.JournalVoucher) error {
		auditRepo := repos.AuditLogRepo()
		if auditRepo == nil {
			return errors.New("voucher audit log repository is not configured")
		}
		previous := v.Status
		if err := v.ResetForEdit(req.UserID, req.Reason); err != nil {
			return err
		}
		entry := ledger.NewVoucherAuditLog(tenantID, v.ID, req.UserID, ledger.AuditActionUnlock,
			previous, v.Status, req.Reason)
		if err := auditRepo.Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save unlock audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Delete removes a Draft voucher together with its entries
func (s *JournalService) Delete(ctx context.Context, tenantID, voucherID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, documentJournalVoucher, "delete")
	defer span.End()

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		voucher, err := s.load(ctx, repos.VoucherRepo(), tenantID, voucherID)
		if err != nil {
			return err
		}
		if err := voucher.EnsureDeletable(); err != nil {
			return err
		}
		if err := repos.VoucherRepo().DeleteForTenant(ctx, tenantID, voucherID); err != nil {
			return fmt.Errorf("failed to delete voucher: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail(span, err)
	}
	return nil
}

// GetByID returns one voucher
func (s *JournalService) GetByID(ctx context.Context, tenantID, voucherID uuid.UUID) (*VoucherResponse, error) {
	voucher, err := s.load(ctx, s.voucherRepo, tenantID, voucherID)
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// List returns a page of vouchers and the total count
func (s *JournalService) List(ctx context.Context, tenantID uuid.UUID, filter VoucherListFilter) ([]VoucherListItemResponse, int64, error) {
	domainFilter := ledger.JournalVoucherFilter{
		Filter:    listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		CompanyID: filter.CompanyID,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
	}
	if filter.Status != "" {
		status := ledger.VoucherStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATUS", fmt.Sprintf("Unknown voucher status %q", filter.Status))
		}
		domainFilter.Status = &status
	}
	if filter.VoucherType != "" {
		voucherType := ledger.VoucherType(filter.VoucherType)
		if !voucherType.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_VOUCHER_TYPE", fmt.Sprintf("Unknown voucher type %q", filter.VoucherType))
		}
		domainFilter.VoucherType = &voucherType
	}

	vouchers, err := s.voucherRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vouchers: %w", err)
	}
	total, err := s.voucherRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count vouchers: %w", err)
	}
	return ToVoucherListItemResponses(vouchers), total, nil
}

// mutate loads a voucher inside a transaction, applies fn and saves it with a version check.
// Events are published only after the transaction has committed.
func (s *JournalService) mutate(
	ctx context.Context,
	tenantID, voucherID uuid.UUID,
	operation string,
	fn func(repos TransactionalRepositories, v *ledger.JournalVoucher) error,
) (*ledger.JournalVoucher, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, documentJournalVoucher, operation)
	defer span.End()
	defer s.metrics.ObserveOperation(ctx, documentJournalVoucher, operation, time.Now())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherID, voucherID.String(),
	)

	var voucher *ledger.JournalVoucher
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		v, err := s.load(ctx, repos.VoucherRepo(), tenantID, voucherID)
		if err != nil {
			return err
		}
		if err := fn(repos, v); err != nil {
			return err
		}
		if err := repos.VoucherRepo().SaveWithLock(ctx, v); err != nil {
			return err
		}
		voucher = v
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrVoucherStatus, voucher.Status.String())
	s.publishDomainEvents(ctx, voucher)
	return voucher, nil
}

func (s *JournalService) load(ctx context.Context, repo ledger.JournalVoucherRepository, tenantID, voucherID uuid.UUID) (*ledger.JournalVoucher, error) {
	voucher, err := repo.FindByIDForTenant(ctx, tenantID, voucherID)
	if err != nil {
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}
	if voucher == nil {
		return nil, shared.NewNotFoundError(documentJournalVoucher, voucherID)
	}
	return voucher, nil
}

// ensureAccountsPostable fails if any line points at an unknown or inactive account
func (s *JournalService) ensureAccountsPostable(ctx context.Context, repo ledger.AccountRepository, v *ledger.JournalVoucher) error {
	ids := v.AccountIDs()
	if len(ids) == 0 {
		return nil
	}
	accounts, err := repo.FindByIDsForTenant(ctx, v.TenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	byID := make(map[uuid.UUID]*ledger.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}
	for _, id := range ids {
		account, ok := byID[id]
		if !ok {
			return shared.NewNotFoundError("account", id)
		}
		if !account.IsActive {
			return shared.NewValidationError(ledger.CodeInactiveAccount,
				fmt.Sprintf("Account %s is inactive", account.Code)).
				WithEntity("account", id)
		}
	}
	return nil
}

func (s *JournalService) assignVoucherNo(ctx context.Context, repo ledger.JournalVoucherRepository, v *ledger.JournalVoucher, date time.Time) error {
	voucherNo, err := repo.GenerateVoucherNo(ctx, v.TenantID, date)
	if err != nil {
		return fmt.Errorf("failed to generate voucher number: %w", err)
	}
	return v.AssignVoucherNo(voucherNo)
}

// publishDomainEvents publishes and clears the voucher's pending events
func (s *JournalService) publishDomainEvents(ctx context.Context, v *ledger.JournalVoucher) {
	if s.eventPublisher == nil {
		v.ClearDomainEvents()
		return
	}
	events := v.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// the event bus logs handler failures itself
	_ = s.eventPublisher.Publish(ctx, events...)
	v.ClearDomainEvents()
}

func (s *JournalService) fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	return err
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
