package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeConflict        = "ERR_CONFLICT"
	ErrCodeAlreadyExported = "ERR_ALREADY_EXPORTED"

	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"

	ErrCodeQueueFull          = "ERR_QUEUE_FULL"
	ErrCodeRemoteUnavailable  = "ERR_REMOTE_UNAVAILABLE"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeAlreadyExported: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeQueueFull:          http.StatusTooManyRequests,
	ErrCodeRemoteUnavailable:  http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"ALREADY_EXPORTED":    ErrCodeAlreadyExported,
	"INVALID_TITLE":       ErrCodeValidation,
	"INVALID_EXTERNAL_ID": ErrCodeValidation,
	"INVALID_CATEGORY":    ErrCodeValidation,
	"INVALID_ADDRESS":     ErrCodeValidation,
	"INVALID_ATTRIBUTES":  ErrCodeValidation,
	"INVALID_RELATIONS":   ErrCodeValidation,
	"INVALID_ITEMS":       ErrCodeValidation,
	"EMPTY_ORDER":         ErrCodeValidation,
	"ORPHAN_PARENT":       ErrCodeBusinessRule,
	"INVALID_STATE":       ErrCodeInvalidState,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
