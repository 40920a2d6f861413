package dto

import (
	"net/http"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/domain/shared"
)

// Error code constants, formatted ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when the body is not valid JSON
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// ErrCodeValidation reports one or more rejected input fields
const ErrCodeValidation = "ERR_VALIDATION"

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Registry error codes
const (
	ErrCodeDuplicateIdentification = "ERR_DUPLICATE_IDENTIFICATION"
	ErrCodeNotRegistered           = "ERR_NOT_REGISTERED"
	ErrCodeAddressNotOwned         = "ERR_ADDRESS_NOT_OWNED"
	// ErrCodePostalLookup is used when the postal code service cannot be reached
	ErrCodePostalLookup = "ERR_POSTAL_LOOKUP"
)

// ErrCodeRateLimited is used when a client exceeds its request budget
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// A taken CPF is an input problem for the caller, not a resource conflict.
	ErrCodeDuplicateIdentification: http.StatusBadRequest,
	ErrCodeNotRegistered:           http.StatusNotFound,
	ErrCodeAddressNotOwned:         http.StatusConflict,
	ErrCodePostalLookup:            http.StatusBadGateway,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes translates domain error codes to API error codes
var domainErrorCodes = map[string]string{
	shared.ErrNotFound.Code:            ErrCodeNotFound,
	shared.ErrAlreadyExists.Code:       ErrCodeConflict,
	shared.ErrInvalidInput.Code:        ErrCodeBadRequest,
	shared.ErrConcurrencyConflict.Code: ErrCodeConcurrencyConflict,
	shared.CodeValidation:              ErrCodeValidation,

	registry.CodeDuplicateIdentification: ErrCodeDuplicateIdentification,
	registry.CodeNotRegistered:           ErrCodeNotRegistered,
	registry.CodeAddressNotOwned:         ErrCodeAddressNotOwned,
	registry.CodePostalCodeNotFound:      ErrCodeValidation,
	registry.CodePostalLookupUnavailable: ErrCodePostalLookup,
}

// NormalizeErrorCode converts a domain error code to its API form. Codes
// that are already API codes, or unknown, come back unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	return code
}
