package shared

import (
	"fmt"
)

// ErrorKind classifies a domain error for callers that need to branch on it
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "VALIDATION"
	ErrorKindState      ErrorKind = "STATE"
	ErrorKindNotFound   ErrorKind = "NOT_FOUND"
	ErrorKindConflict   ErrorKind = "CONFLICT"
)

// DomainError represents a domain-level error.
// Details carries the context needed to render a specific message
// (entity id, expected vs actual values).
type DomainError struct {
	Code    string         `json:"code"`
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets sentinel errors match errors that were enriched with details.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error. The kind is derived from the code.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Kind: ErrorKindValidation, Message: message}
}

// NewStateError creates an error for an operation rejected by the current state
func NewStateError(code, message string) *DomainError {
	return &DomainError{Code: code, Kind: ErrorKindState, Message: message}
}

// NewNotFoundError creates an error for an unknown entity id
func NewNotFoundError(entity string, id any) *DomainError {
	return (&DomainError{
		Code:    CodeNotFound,
		Kind:    ErrorKindNotFound,
		Message: fmt.Sprintf("%s not found: %v", entity, id),
	}).WithEntity(entity, id)
}

// WithDetail returns a copy of the error with an additional detail
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Details: details,
	}
}

// WithEntity records which entity the error is about
func (e *DomainError) WithEntity(entity string, id any) *DomainError {
	return e.WithDetail("entity", entity).WithDetail("entity_id", fmt.Sprint(id))
}

// WithExpected records the expected and actual values
func (e *DomainError) WithExpected(expected, actual any) *DomainError {
	return e.WithDetail("expected", fmt.Sprint(expected)).WithDetail("actual", fmt.Sprint(actual))
}

// Error codes shared across the accounting domains
const (
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidState           = "INVALID_STATE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeAlreadyExists          = "ALREADY_EXISTS"

	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeCurrencyMismatch      = "CURRENCY_MISMATCH"
	CodeInvalidEntry          = "INVALID_ENTRY"
	CodeUnbalancedEntry       = "UNBALANCED_ENTRY"
	CodeEmptyVoucher          = "EMPTY_VOUCHER"
	CodeExceedsInvoiceBalance = "EXCEEDS_INVOICE_BALANCE"
	CodeNegativeAllocation    = "NEGATIVE_ALLOCATION"
	CodeOverAllocated         = "OVER_ALLOCATED"

	CodeLockedForEditing = "LOCKED_FOR_EDITING"
	CodeAlreadyProcessed = "ALREADY_PROCESSED"
	CodeNoRefundDue      = "NO_REFUND_DUE"
)

// Common domain errors, usable as errors.Is targets
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")

	ErrInvalidAmount         = NewDomainError(CodeInvalidAmount, "Invalid amount")
	ErrCurrencyMismatch      = NewDomainError(CodeCurrencyMismatch, "Currency mismatch")
	ErrInvalidEntry          = NewDomainError(CodeInvalidEntry, "Invalid ledger entry")
	ErrUnbalancedEntry       = NewDomainError(CodeUnbalancedEntry, "Debits and credits do not balance")
	ErrEmptyVoucher          = NewDomainError(CodeEmptyVoucher, "Voucher has no entries")
	ErrExceedsInvoiceBalance = NewDomainError(CodeExceedsInvoiceBalance, "Allocation exceeds invoice balance")
	ErrNegativeAllocation    = NewDomainError(CodeNegativeAllocation, "Allocation cannot be negative")
	ErrOverAllocated         = NewDomainError(CodeOverAllocated, "Allocations exceed receipt amount")

	ErrLockedForEditing = NewDomainError(CodeLockedForEditing, "Document is locked for editing")
	ErrAlreadyProcessed = NewDomainError(CodeAlreadyProcessed, "Already processed")
	ErrNoRefundDue      = NewDomainError(CodeNoRefundDue, "No refund is due")
)

func kindForCode(code string) ErrorKind {
	switch code {
	case CodeNotFound:
		return ErrorKindNotFound
	case CodeConcurrentModification, CodeAlreadyExists:
		return ErrorKindConflict
	case CodeInvalidState, CodeLockedForEditing, CodeAlreadyProcessed, CodeNoRefundDue:
		return ErrorKindState
	default:
		return ErrorKindValidation
	}
}
