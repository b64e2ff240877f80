package models

import (
	"time"

	"github.com/erp/leasing/internal/domain/ledger"
	"github.com/erp/leasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for chart-of-accounts rows
type AccountModel struct {
	TenantAggregateModel
	Code     string             `gorm:"type:varchar(30);not null;index"`
	Name     string             `gorm:"type:varchar(200);not null"`
	Type     ledger.AccountType `gorm:"type:varchar(20);not null"`
	IsActive bool               `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Type:                m.Type,
		IsActive:            m.IsActive,
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{
		Code:     a.Code,
		Name:     a.Name,
		Type:     a.Type,
		IsActive: a.IsActive,
	}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// JournalVoucherModel is the persistence model for the JournalVoucher aggregate root
type JournalVoucherModel struct {
	TenantAggregateModel
	VoucherNo       string               `gorm:"type:varchar(50);index"`
	VoucherType     ledger.VoucherType   `gorm:"type:varchar(30);not null"`
	JournalType     ledger.JournalType   `gorm:"type:varchar(30);not null"`
	TransactionDate time.Time            `gorm:"not null;index"`
	PostingDate     *time.Time
	CompanyID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	FiscalYearID    uuid.UUID            `gorm:"type:uuid;not null"`
	Currency        string               `gorm:"type:varchar(3);not null"`
	BaseCurrency    string               `gorm:"type:varchar(3);not null"`
	ExchangeRate    decimal.Decimal      `gorm:"type:decimal(18,6);not null"`
	Narration       string               `gorm:"type:text"`
	Status          ledger.VoucherStatus `gorm:"type:varchar(20);not null;index"`
	Entries         []LedgerEntryModel   `gorm:"foreignKey:VoucherID;references:ID"`

	SubmittedAt  *time.Time
	ApprovedAt   *time.Time
	ApprovedBy   *uuid.UUID `gorm:"type:uuid"`
	RejectedAt   *time.Time
	RejectedBy   *uuid.UUID `gorm:"type:uuid"`
	RejectReason string     `gorm:"type:varchar(500)"`
	PostedAt     *time.Time
	PostedBy     *uuid.UUID `gorm:"type:uuid"`
	CancelledAt  *time.Time
	CancelledBy  *uuid.UUID `gorm:"type:uuid"`
	CancelReason string     `gorm:"type:varchar(500)"`

	IsReversed     bool       `gorm:"not null;default:false"`
	ReversedByID   *uuid.UUID `gorm:"type:uuid"`
	ReversalOfID   *uuid.UUID `gorm:"type:uuid;index"`
	ReversalReason string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (JournalVoucherModel) TableName() string {
	return "journal_vouchers"
}

// ToDomain converts the persistence model to a domain JournalVoucher
func (m *JournalVoucherModel) ToDomain() *ledger.JournalVoucher {
	v := &ledger.JournalVoucher{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		VoucherNo:           m.VoucherNo,
		VoucherType:         m.VoucherType,
		JournalType:         m.JournalType,
		TransactionDate:     m.TransactionDate,
		PostingDate:         m.PostingDate,
		CompanyID:           m.CompanyID,
		FiscalYearID:        m.FiscalYearID,
		Currency:            valueobject.Currency(m.Currency),
		BaseCurrency:        valueobject.Currency(m.BaseCurrency),
		ExchangeRate:        m.ExchangeRate,
		Narration:           m.Narration,
		Status:              m.Status,
		Entries:             make([]ledger.LedgerEntry, len(m.Entries)),
		SubmittedAt:         m.SubmittedAt,
		ApprovedAt:          m.ApprovedAt,
		ApprovedBy:          m.ApprovedBy,
		RejectedAt:          m.RejectedAt,
		RejectedBy:          m.RejectedBy,
		RejectReason:        m.RejectReason,
		PostedAt:            m.PostedAt,
		PostedBy:            m.PostedBy,
		CancelledAt:         m.CancelledAt,
		CancelledBy:         m.CancelledBy,
		CancelReason:        m.CancelReason,
		IsReversed:          m.IsReversed,
		ReversedByID:        m.ReversedByID,
		ReversalOfID:        m.ReversalOfID,
		ReversalReason:      m.ReversalReason,
	}
	for i := range m.Entries {
		v.Entries[i] = m.Entries[i].ToDomain(m.Currency, m.BaseCurrency)
	}
	return v
}

// JournalVoucherModelFromDomain creates a persistence model from a domain JournalVoucher
func JournalVoucherModelFromDomain(v *ledger.JournalVoucher) *JournalVoucherModel {
	m := &JournalVoucherModel{
		VoucherNo:       v.VoucherNo,
		VoucherType:     v.VoucherType,
		JournalType:     v.JournalType,
		TransactionDate: v.TransactionDate,
		PostingDate:     v.PostingDate,
		CompanyID:       v.CompanyID,
		FiscalYearID:    v.FiscalYearID,
		Currency:        v.Currency.String(),
		BaseCurrency:    v.BaseCurrency.String(),
		ExchangeRate:    v.ExchangeRate,
		Narration:       v.Narration,
		Status:          v.Status,
		Entries:         make([]LedgerEntryModel, len(v.Entries)),
		SubmittedAt:     v.SubmittedAt,
		ApprovedAt:      v.ApprovedAt,
		ApprovedBy:      v.ApprovedBy,
		RejectedAt:      v.RejectedAt,
		RejectedBy:      v.RejectedBy,
		RejectReason:    v.RejectReason,
		PostedAt:        v.PostedAt,
		PostedBy:        v.PostedBy,
		CancelledAt:     v.CancelledAt,
		CancelledBy:     v.CancelledBy,
		CancelReason:    v.CancelReason,
		IsReversed:      v.IsReversed,
		ReversedByID:    v.ReversedByID,
		ReversalOfID:    v.ReversalOfID,
		ReversalReason:  v.ReversalReason,
	}
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	for i := range v.Entries {
		m.Entries[i] = ledgerEntryModelFromDomain(v.ID, &v.Entries[i])
	}
	return m
}

// LedgerEntryModel is one debit or credit line of a journal voucher.
// Cost centers are flattened into four nullable columns.
type LedgerEntryModel struct {
	ID              uuid.UUID              `gorm:"type:uuid;primaryKey"`
	VoucherID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	LineNo          int                    `gorm:"not null"`
	AccountID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	TransactionType ledger.TransactionType `gorm:"type:varchar(6);not null"`
	Amount          decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	ExchangeRate    decimal.Decimal        `gorm:"type:decimal(18,6);not null"`
	BaseAmount      decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	TaxPercentage   decimal.Decimal        `gorm:"type:decimal(5,2);not null"`
	TaxAmount       decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	CostCenter1     *uuid.UUID             `gorm:"type:uuid"`
	CostCenter2     *uuid.UUID             `gorm:"type:uuid"`
	CostCenter3     *uuid.UUID             `gorm:"type:uuid"`
	CostCenter4     *uuid.UUID             `gorm:"type:uuid"`
	ReferenceType   string                 `gorm:"type:varchar(30)"`
	ReferenceID     *uuid.UUID             `gorm:"type:uuid;index"`
	Description     string                 `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the row to a domain LedgerEntry in the voucher's currencies
func (m *LedgerEntryModel) ToDomain(currency, baseCurrency string) ledger.LedgerEntry {
	e := ledger.LedgerEntry{
		ID:              m.ID,
		LineNo:          m.LineNo,
		AccountID:       m.AccountID,
		TransactionType: m.TransactionType,
		Amount:          money(m.Amount, currency),
		ExchangeRate:    m.ExchangeRate,
		BaseAmount:      money(m.BaseAmount, baseCurrency),
		TaxPercentage:   m.TaxPercentage,
		TaxAmount:       money(m.TaxAmount, baseCurrency),
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Description:     m.Description,
	}
	for _, cc := range []*uuid.UUID{m.CostCenter1, m.CostCenter2, m.CostCenter3, m.CostCenter4} {
		if cc != nil {
			e.CostCenters = append(e.CostCenters, *cc)
		}
	}
	return e
}

func ledgerEntryModelFromDomain(voucherID uuid.UUID, e *ledger.LedgerEntry) LedgerEntryModel {
	m := LedgerEntryModel{
		ID:              e.ID,
		VoucherID:       voucherID,
		LineNo:          e.LineNo,
		AccountID:       e.AccountID,
		TransactionType: e.TransactionType,
		Amount:          e.Amount.Amount(),
		ExchangeRate:    e.ExchangeRate,
		BaseAmount:      e.BaseAmount.Amount(),
		TaxPercentage:   e.TaxPercentage,
		TaxAmount:       e.TaxAmount.Amount(),
		ReferenceType:   e.ReferenceType,
		ReferenceID:     e.ReferenceID,
		Description:     e.Description,
	}
	slots := []**uuid.UUID{&m.CostCenter1, &m.CostCenter2, &m.CostCenter3, &m.CostCenter4}
	for i, cc := range e.CostCenters {
		if i == len(slots) {
			break
		}
		id := cc
		*slots[i] = &id
	}
	return m
}

// VoucherAuditLogModel is an append-only record of a privileged voucher action
type VoucherAuditLogModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_audit_tenant_voucher,priority:1"`
	VoucherID  uuid.UUID            `gorm:"type:uuid;not null;index:idx_audit_tenant_voucher,priority:2"`
	Action     string               `gorm:"type:varchar(30);not null"`
	FromStatus ledger.VoucherStatus `gorm:"type:varchar(20);not null"`
	ToStatus   ledger.VoucherStatus `gorm:"type:varchar(20);not null"`
	ActorID    uuid.UUID            `gorm:"type:uuid;not null"`
	Reason     string               `gorm:"type:varchar(500)"`
	CreatedAt  time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VoucherAuditLogModel) TableName() string {
	return "voucher_audit_logs"
}

// ToDomain converts the persistence model to a domain VoucherAuditLog
func (m *VoucherAuditLogModel) ToDomain() ledger.VoucherAuditLog {
	return ledger.VoucherAuditLog{
		ID:         m.ID,
		TenantID:   m.TenantID,
		VoucherID:  m.VoucherID,
		Action:     m.Action,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		ActorID:    m.ActorID,
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
	}
}

// VoucherAuditLogModelFromDomain creates a persistence model from a domain VoucherAuditLog
func VoucherAuditLogModelFromDomain(l *ledger.VoucherAuditLog) *VoucherAuditLogModel {
	return &VoucherAuditLogModel{
		ID:         l.ID,
		TenantID:   l.TenantID,
		VoucherID:  l.VoucherID,
		Action:     l.Action,
		FromStatus: l.FromStatus,
		ToStatus:   l.ToStatus,
		ActorID:    l.ActorID,
		Reason:     l.Reason,
		CreatedAt:  l.CreatedAt,
	}
}
