package dto

import (
	"errors"
	"net/http"

	"github.com/erp/leasing/internal/domain/shared"
)

// Transport-level error codes. Domain codes pass through unchanged.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInvalidID        = "INVALID_ID"
	ErrCodeMissingTenant    = "MISSING_TENANT"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeBodyTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus pins codes whose status differs from their kind's default
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidID:        http.StatusBadRequest,
	ErrCodeMissingTenant:    http.StatusBadRequest,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeDuplicateRequest: http.StatusConflict,
	ErrCodeBodyTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:      http.StatusServiceUnavailable,

	// Well-formed requests that break an accounting rule
	shared.CodeUnbalancedEntry:       http.StatusUnprocessableEntity,
	shared.CodeEmptyVoucher:          http.StatusUnprocessableEntity,
	shared.CodeExceedsInvoiceBalance: http.StatusUnprocessableEntity,
	shared.CodeOverAllocated:         http.StatusUnprocessableEntity,
	shared.CodeCurrencyMismatch:      http.StatusUnprocessableEntity,
	"INACTIVE_ACCOUNT":               http.StatusUnprocessableEntity,

	shared.CodeNoRefundDue: http.StatusUnprocessableEntity,
}

// kindHTTPStatus is the fallback status per domain error kind
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.ErrorKindValidation: http.StatusBadRequest,
	shared.ErrorKindState:      http.StatusConflict,
	shared.ErrorKindNotFound:   http.StatusNotFound,
	shared.ErrorKindConflict:   http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status for a transport error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorStatus returns the HTTP status for a domain error
func DomainErrorStatus(err *shared.DomainError) int {
	if status, ok := ErrorCodeHTTPStatus[err.Code]; ok {
		return status
	}
	if status, ok := kindHTTPStatus[err.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponseFor converts any error into a status and envelope.
// Errors that are not domain errors are reported as internal without leaking their text.
func ErrorResponseFor(err error, requestID string) (int, Response) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return DomainErrorStatus(domainErr),
			NewErrorResponseWithDetails(domainErr.Code, domainErr.Message, requestID, domainErr.Details)
	}
	return http.StatusInternalServerError,
		NewErrorResponse(ErrCodeInternal, "An internal error occurred", requestID)
}
