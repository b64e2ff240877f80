package ledger

import (
	"fmt"
	"strings"

	"github.com/erp/leasing/internal/domain/shared"
	"github.com/google/uuid"
)

// CodeInactiveAccount is returned when an entry posts to a deactivated account
const CodeInactiveAccount = "INACTIVE_ACCOUNT"

// AccountType classifies a general-ledger account
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is known
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Account is chart-of-accounts reference data. Entries may only post to active accounts.
type Account struct {
	shared.TenantAggregateRoot
	Code     string
	Name     string
	Type     AccountType
	IsActive bool
}

// NewAccount creates an active account
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Account code cannot be empty")
	}
	if len(code) > 30 {
		return nil, shared.NewValidationError("INVALID_CODE", "Account code cannot exceed 30 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACCOUNT_TYPE", fmt.Sprintf("Unknown account type %q", accountType))
	}
	return &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Type:                accountType,
		IsActive:            true,
	}, nil
}

// Deactivate stops new postings to the account
func (a *Account) Deactivate() {
	a.IsActive = false
	a.Touch()
}

// Activate re-enables postings
func (a *Account) Activate() {
	a.IsActive = true
	a.Touch()
}
