package persistence

import (
	"fmt"
	"strings"

	"github.com/erp/leasing/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// AccountSortFields contains allowed sort fields for accounts
var AccountSortFields = map[string]bool{
	"created_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
}

// JournalVoucherSortFields contains allowed sort fields for journal vouchers
var JournalVoucherSortFields = map[string]bool{
	"created_at":       true,
	"updated_at":       true,
	"voucher_no":       true,
	"transaction_date": true,
	"posting_date":     true,
	"status":           true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":     true,
	"invoice_no":     true,
	"invoice_date":   true,
	"due_date":       true,
	"total_amount":   true,
	"balance_amount": true,
	"status":         true,
}

// ReceiptSortFields contains allowed sort fields for receipts
var ReceiptSortFields = map[string]bool{
	"created_at":   true,
	"receipt_no":   true,
	"receipt_date": true,
	"amount":       true,
	"status":       true,
}

// TerminationSortFields contains allowed sort fields for terminations
var TerminationSortFields = map[string]bool{
	"created_at":       true,
	"termination_no":   true,
	"termination_date": true,
	"status":           true,
}

// applyListOptions adds the whitelisted ORDER BY and LIMIT/OFFSET of filter
func applyListOptions(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	query = query.Order(fmt.Sprintf("%s %s", field, ValidateSortOrder(filter.OrderDir)))
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}
