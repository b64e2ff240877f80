package models

import (
	"time"

	"github.com/erp/leasing/internal/domain/receivable"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNo     string                   `gorm:"type:varchar(50);not null;index"`
	CustomerID    uuid.UUID                `gorm:"type:uuid;not null;index"`
	ContractID    uuid.UUID                `gorm:"type:uuid;not null;index"`
	InvoiceDate   time.Time                `gorm:"not null"`
	DueDate       time.Time                `gorm:"not null;index"`
	Currency      string                   `gorm:"type:varchar(3);not null"`
	TotalAmount   decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	BalanceAmount decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Status        receivable.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	PostingStatus receivable.PostingStatus `gorm:"type:varchar(20);not null"`
	PostedAt      *time.Time
	CancelledAt   *time.Time
	CancelReason  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *receivable.Invoice {
	return &receivable.Invoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		InvoiceNo:           m.InvoiceNo,
		CustomerID:          m.CustomerID,
		ContractID:          m.ContractID,
		InvoiceDate:         m.InvoiceDate,
		DueDate:             m.DueDate,
		TotalAmount:         money(m.TotalAmount, m.Currency),
		BalanceAmount:       money(m.BalanceAmount, m.Currency),
		Status:              m.Status,
		PostingStatus:       m.PostingStatus,
		PostedAt:            m.PostedAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *receivable.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNo:     inv.InvoiceNo,
		CustomerID:    inv.CustomerID,
		ContractID:    inv.ContractID,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Currency:      inv.Currency().String(),
		TotalAmount:   inv.TotalAmount.Amount(),
		BalanceAmount: inv.BalanceAmount.Amount(),
		Status:        inv.Status,
		PostingStatus: inv.PostingStatus,
		PostedAt:      inv.PostedAt,
		CancelledAt:   inv.CancelledAt,
		CancelReason:  inv.CancelReason,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	return m
}

// ReceiptModel is the persistence model for the Receipt aggregate root
type ReceiptModel struct {
	TenantAggregateModel
	ReceiptNo          string                   `gorm:"type:varchar(50);not null;index"`
	CustomerID         uuid.UUID                `gorm:"type:uuid;not null;index"`
	ContractID         *uuid.UUID               `gorm:"type:uuid;index"`
	ReceiptDate        time.Time                `gorm:"not null;index"`
	Currency           string                   `gorm:"type:varchar(3);not null"`
	Amount             decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	ExchangeRate       decimal.Decimal          `gorm:"type:decimal(18,6);not null"`
	Status             receivable.ReceiptStatus `gorm:"type:varchar(20);not null;index"`
	PartiallyAllocated bool                     `gorm:"not null;default:false"`
	Allocations        []AllocationModel        `gorm:"foreignKey:ReceiptID;references:ID"`
	Remark             string                   `gorm:"type:text"`
	CommittedAt        *time.Time
	CommittedBy        *uuid.UUID `gorm:"type:uuid"`
	CancelledAt        *time.Time
	CancelledBy        *uuid.UUID `gorm:"type:uuid"`
	CancelReason       string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt
func (m *ReceiptModel) ToDomain() *receivable.Receipt {
	r := &receivable.Receipt{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		ReceiptNo:           m.ReceiptNo,
		CustomerID:          m.CustomerID,
		ContractID:          m.ContractID,
		ReceiptDate:         m.ReceiptDate,
		Amount:              money(m.Amount, m.Currency),
		ExchangeRate:        m.ExchangeRate,
		Status:              m.Status,
		PartiallyAllocated:  m.PartiallyAllocated,
		Allocations:         make([]receivable.Allocation, len(m.Allocations)),
		Remark:              m.Remark,
		CommittedAt:         m.CommittedAt,
		CommittedBy:         m.CommittedBy,
		CancelledAt:         m.CancelledAt,
		CancelledBy:         m.CancelledBy,
		CancelReason:        m.CancelReason,
	}
	for i := range m.Allocations {
		r.Allocations[i] = m.Allocations[i].ToDomain(m.Currency)
	}
	return r
}

// ReceiptModelFromDomain creates a persistence model from a domain Receipt
func ReceiptModelFromDomain(r *receivable.Receipt) *ReceiptModel {
	m := &ReceiptModel{
		ReceiptNo:          r.ReceiptNo,
		CustomerID:         r.CustomerID,
		ContractID:         r.ContractID,
		ReceiptDate:        r.ReceiptDate,
		Currency:           r.Amount.Currency().String(),
		Amount:             r.Amount.Amount(),
		ExchangeRate:       r.ExchangeRate,
		Status:             r.Status,
		PartiallyAllocated: r.PartiallyAllocated,
		Allocations:        make([]AllocationModel, len(r.Allocations)),
		Remark:             r.Remark,
		CommittedAt:        r.CommittedAt,
		CommittedBy:        r.CommittedBy,
		CancelledAt:        r.CancelledAt,
		CancelledBy:        r.CancelledBy,
		CancelReason:       r.CancelReason,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	for i, a := range r.Allocations {
		m.Allocations[i] = AllocationModel{
			ID:              a.ID,
			ReceiptID:       r.ID,
			LineNo:          i + 1,
			InvoiceID:       a.InvoiceID,
			InvoiceNo:       a.InvoiceNo,
			AllocatedAmount: a.AllocatedAmount.Amount(),
			OriginalBalance: a.OriginalBalance.Amount(),
		}
	}
	return m
}

// AllocationModel is one receipt-to-invoice allocation. LineNo preserves allocation order.
type AllocationModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceiptID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceNo       string          `gorm:"type:varchar(50);not null"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	OriginalBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "receipt_allocations"
}

// ToDomain converts the row to a domain Allocation in the receipt currency
func (m *AllocationModel) ToDomain(currency string) receivable.Allocation {
	return receivable.Allocation{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		InvoiceNo:       m.InvoiceNo,
		AllocatedAmount: money(m.AllocatedAmount, currency),
		OriginalBalance: money(m.OriginalBalance, currency),
	}
}
