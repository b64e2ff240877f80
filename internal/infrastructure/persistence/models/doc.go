// Package models contains the GORM persistence models behind the repositories.
// Domain types stay free of ORM tags; each model converts to and from its
// aggregate with ToDomain and a ...ModelFromDomain constructor.
//
// Layout:
//   - base.go: columns shared by tenant-scoped aggregates
//   - ledger.go: accounts, journal vouchers, ledger entries, voucher audit logs
//   - receivable.go: invoices, receipts, receipt allocations
//   - termination.go: terminations and their deductions
//
// Monetary amounts are stored as decimal(18,2) next to a currency column.
package models
