package models

import (
	"time"

	"github.com/erp/leasing/internal/domain/termination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TerminationModel is the persistence model for the Termination aggregate root
type TerminationModel struct {
	TenantAggregateModel
	TerminationNo    string             `gorm:"type:varchar(50);not null;index"`
	ContractID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	TerminationDate  time.Time          `gorm:"not null"`
	Currency         string             `gorm:"type:varchar(3);not null"`
	SecurityDeposit  decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	AdjustAmount     decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	RefundAmount     decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	CreditNoteAmount decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Status           termination.Status `gorm:"type:varchar(20);not null;index"`
	Remark           string             `gorm:"type:text"`
	Deductions       []DeductionModel   `gorm:"foreignKey:TerminationID;references:ID"`

	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	RefundProcessed bool       `gorm:"not null;default:false"`
	RefundDate      *time.Time
	RefundReference string     `gorm:"type:varchar(100)"`
	CreditNoteNo    string     `gorm:"type:varchar(50)"`
	CompletedAt     *time.Time
	CompletedBy     *uuid.UUID `gorm:"type:uuid"`
	CancelledAt     *time.Time
	CancelledBy     *uuid.UUID `gorm:"type:uuid"`
	CancelReason    string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (TerminationModel) TableName() string {
	return "terminations"
}

// ToDomain converts the persistence model to a domain Termination
func (m *TerminationModel) ToDomain() *termination.Termination {
	t := &termination.Termination{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		TerminationNo:       m.TerminationNo,
		ContractID:          m.ContractID,
		CustomerID:          m.CustomerID,
		TerminationDate:     m.TerminationDate,
		SecurityDeposit:     money(m.SecurityDeposit, m.Currency),
		Deductions:          make([]termination.Deduction, len(m.Deductions)),
		AdjustAmount:        money(m.AdjustAmount, m.Currency),
		RefundAmount:        money(m.RefundAmount, m.Currency),
		CreditNoteAmount:    money(m.CreditNoteAmount, m.Currency),
		Status:              m.Status,
		Remark:              m.Remark,
		SubmittedAt:         m.SubmittedAt,
		ApprovedAt:          m.ApprovedAt,
		ApprovedBy:          m.ApprovedBy,
		RefundProcessed:     m.RefundProcessed,
		RefundDate:          m.RefundDate,
		RefundReference:     m.RefundReference,
		CreditNoteNo:        m.CreditNoteNo,
		CompletedAt:         m.CompletedAt,
		CompletedBy:         m.CompletedBy,
		CancelledAt:         m.CancelledAt,
		CancelledBy:         m.CancelledBy,
		CancelReason:        m.CancelReason,
	}
	for i, d := range m.Deductions {
		t.Deductions[i] = termination.Deduction{
			ID:            d.ID,
			LineNo:        d.LineNo,
			Description:   d.Description,
			Amount:        money(d.Amount, m.Currency),
			TaxPercentage: d.TaxPercentage,
			TaxAmount:     money(d.TaxAmount, m.Currency),
			TotalAmount:   money(d.TotalAmount, m.Currency),
		}
	}
	return t
}

// TerminationModelFromDomain creates a persistence model from a domain Termination
func TerminationModelFromDomain(t *termination.Termination) *TerminationModel {
	m := &TerminationModel{
		TerminationNo:    t.TerminationNo,
		ContractID:       t.ContractID,
		CustomerID:       t.CustomerID,
		TerminationDate:  t.TerminationDate,
		Currency:         t.Currency().String(),
		SecurityDeposit:  t.SecurityDeposit.Amount(),
		AdjustAmount:     t.AdjustAmount.Amount(),
		RefundAmount:     t.RefundAmount.Amount(),
		CreditNoteAmount: t.CreditNoteAmount.Amount(),
		Status:           t.Status,
		Remark:           t.Remark,
		Deductions:       make([]DeductionModel, len(t.Deductions)),
		SubmittedAt:      t.SubmittedAt,
		ApprovedAt:       t.ApprovedAt,
		ApprovedBy:       t.ApprovedBy,
		RefundProcessed:  t.RefundProcessed,
		RefundDate:       t.RefundDate,
		RefundReference:  t.RefundReference,
		CreditNoteNo:     t.CreditNoteNo,
		CompletedAt:      t.CompletedAt,
		CompletedBy:      t.CompletedBy,
		CancelledAt:      t.CancelledAt,
		CancelledBy:      t.CancelledBy,
		CancelReason:     t.CancelReason,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	for i, d := range t.Deductions {
		m.Deductions[i] = DeductionModel{
			ID:            d.ID,
			TerminationID: t.ID,
			LineNo:        d.LineNo,
			Description:   d.Description,
			Amount:        d.Amount.Amount(),
			TaxPercentage: d.TaxPercentage,
			TaxAmount:     d.TaxAmount.Amount(),
			TotalAmount:   d.TotalAmount.Amount(),
		}
	}
	return m
}

// DeductionModel is one charge withheld from a termination's deposit
type DeductionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TerminationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo        int             `gorm:"not null"`
	Description   string          `gorm:"type:varchar(500);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (DeductionModel) TableName() string {
	return "termination_deductions"
}
