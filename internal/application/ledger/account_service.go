package ledger

import (
	"context"
	"fmt"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountService maintains the chart of accounts that journal lines post to
type AccountService struct {
	accountRepo ledger.AccountRepository
}

// NewAccountService creates an AccountService
func NewAccountService(accountRepo ledger.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// Create adds an account; codes are unique per tenant
func (s *AccountService) Create(ctx context.Context, tenantID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	account, err := ledger.NewAccount(tenantID, req.Code, req.Name, ledger.AccountType(req.Type))
	if err != nil {
		return nil, err
	}
	exists, err := s.accountRepo.ExistsByCode(ctx, tenantID, account.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check account code: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Account code already exists").
			WithDetail("code", account.Code)
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// SetActive activates or deactivates an account
func (s *AccountService) SetActive(ctx context.Context, tenantID, accountID uuid.UUID, active bool) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByIDForTenant(ctx, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, shared.NewNotFoundError("account", accountID)
	}
	if active {
		account.Activate()
	} else {
		account.Deactivate()
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// List returns accounts matching filter
func (s *AccountService) List(ctx context.Context, tenantID uuid.UUID, filter AccountListFilter) ([]AccountResponse, error) {
	domainFilter := ledger.AccountFilter{
		Filter:     listFilter(filter.Page, filter.PageSize, "code", "asc", filter.Search),
		ActiveOnly: filter.ActiveOnly,
	}
	if filter.Type != "" {
		accountType := ledger.AccountType(filter.Type)
		if !accountType.IsValid() {
			return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", fmt.Sprintf("Unknown account type %q", filter.Type))
		}
		domainFilter.Type = &accountType
	}
	accounts, err := s.accountRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	result := make([]AccountResponse, len(accounts))
	for i := range accounts {
		result[i] = ToAccountResponse(&accounts[i])
	}
	return result, nil
}
