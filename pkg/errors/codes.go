package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodePreconditionFailed ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Short aliases used at call sites throughout the codebase.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeDatabaseError  = ErrCodeDatabaseError
	CodeDBQueryError   = ErrCodeDatabaseError
	CodeCacheError     = ErrCodeCacheError
	CodeStorageError   = ErrCodeExternalService
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
)

// Index Module Error Codes
const (
	ErrCodeIndexNotFound        ErrorCode = "IDX_001"
	ErrCodeIndexAlreadyExists   ErrorCode = "IDX_002"
	ErrCodeIndexNotCompleted    ErrorCode = "IDX_003"
	ErrCodeIndexTypeMismatch    ErrorCode = "IDX_004"
	ErrCodeIndexCircularLink    ErrorCode = "IDX_005"
	ErrCodeIndexNotLinked       ErrorCode = "IDX_006"
	ErrCodeIndexStatusInvalid   ErrorCode = "IDX_007"
	ErrCodeIndexCodeInvalid     ErrorCode = "IDX_008"
	ErrCodeIndexSelfLink        ErrorCode = "IDX_009"
	ErrCodeIndexAlreadyComplete ErrorCode = "IDX_010"
)

// Requirement Module Error Codes
const (
	ErrCodeRequirementNotFound      ErrorCode = "REQ_001"
	ErrCodeRequirementAlreadyExists ErrorCode = "REQ_002"
	ErrCodeAnswerTransitionInvalid  ErrorCode = "REQ_003"
	ErrCodeAnswerEmpty              ErrorCode = "REQ_004"
	ErrCodeRequirementIndexMismatch ErrorCode = "REQ_005"
)

// Section Mapping Module Error Codes
const (
	ErrCodeMappingNotFound      ErrorCode = "MAP_001"
	ErrCodeMappingAlreadyExists ErrorCode = "MAP_002"
	ErrCodeMappingLevelInvalid  ErrorCode = "MAP_003"
	ErrCodeMappingPairInvalid   ErrorCode = "MAP_004"
)

// Recommendation Module Error Codes
const (
	ErrCodeRecommendationNotFound      ErrorCode = "REC_001"
	ErrCodeRecommendationTextEmpty     ErrorCode = "REC_002"
	ErrCodeRecommendationStatusInvalid ErrorCode = "REC_003"
)

// Matching Engine Error Codes
const (
	ErrCodeMatchThresholdInvalid ErrorCode = "MATCH_001"
	ErrCodeMatchStrategyUnknown  ErrorCode = "MATCH_002"
)

// Upload Module Error Codes
const (
	ErrCodeUploadSheetMalformed ErrorCode = "UPL_001"
	ErrCodeUploadNoRequirements ErrorCode = "UPL_002"
	ErrCodeUploadEmptySheet     ErrorCode = "UPL_003"
	ErrCodeUploadArchiveFailed  ErrorCode = "UPL_004"
	ErrCodeUploadInProgress     ErrorCode = "UPL_005"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodePreconditionFailed: http.StatusBadRequest,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeIndexNotFound:        http.StatusNotFound,
	ErrCodeIndexAlreadyExists:   http.StatusConflict,
	ErrCodeIndexNotCompleted:    http.StatusBadRequest,
	ErrCodeIndexTypeMismatch:    http.StatusBadRequest,
	ErrCodeIndexCircularLink:    http.StatusBadRequest,
	ErrCodeIndexNotLinked:       http.StatusBadRequest,
	ErrCodeIndexStatusInvalid:   http.StatusBadRequest,
	ErrCodeIndexCodeInvalid:     http.StatusBadRequest,
	ErrCodeIndexSelfLink:        http.StatusBadRequest,
	ErrCodeIndexAlreadyComplete: http.StatusConflict,

	ErrCodeRequirementNotFound:      http.StatusNotFound,
	ErrCodeRequirementAlreadyExists: http.StatusConflict,
	ErrCodeAnswerTransitionInvalid:  http.StatusBadRequest,
	ErrCodeAnswerEmpty:              http.StatusBadRequest,
	ErrCodeRequirementIndexMismatch: http.StatusBadRequest,

	ErrCodeMappingNotFound:      http.StatusNotFound,
	ErrCodeMappingAlreadyExists: http.StatusConflict,
	ErrCodeMappingLevelInvalid:  http.StatusBadRequest,
	ErrCodeMappingPairInvalid:   http.StatusBadRequest,

	ErrCodeRecommendationNotFound:      http.StatusNotFound,
	ErrCodeRecommendationTextEmpty:     http.StatusBadRequest,
	ErrCodeRecommendationStatusInvalid: http.StatusBadRequest,

	ErrCodeMatchThresholdInvalid: http.StatusInternalServerError,
	ErrCodeMatchStrategyUnknown:  http.StatusInternalServerError,

	ErrCodeUploadSheetMalformed: http.StatusBadRequest,
	ErrCodeUploadNoRequirements: http.StatusBadRequest,
	ErrCodeUploadEmptySheet:     http.StatusBadRequest,
	ErrCodeUploadArchiveFailed:  http.StatusInternalServerError,
	ErrCodeUploadInProgress:     http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodePreconditionFailed: "precondition failed",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeIndexNotFound:        "index not found",
	ErrCodeIndexAlreadyExists:   "index already exists",
	ErrCodeIndexNotCompleted:    "previous index is not completed",
	ErrCodeIndexTypeMismatch:    "index types do not match",
	ErrCodeIndexCircularLink:    "linking would create a circular reference",
	ErrCodeIndexNotLinked:       "index has no previous index linked",
	ErrCodeIndexStatusInvalid:   "invalid index status",
	ErrCodeIndexCodeInvalid:     "index code carries an invalid assessment year",
	ErrCodeIndexSelfLink:        "index cannot be linked to itself",
	ErrCodeIndexAlreadyComplete: "index is already completed",

	ErrCodeRequirementNotFound:      "requirement not found",
	ErrCodeRequirementAlreadyExists: "requirement already exists",
	ErrCodeAnswerTransitionInvalid:  "invalid answer status transition",
	ErrCodeAnswerEmpty:              "answer text is empty",
	ErrCodeRequirementIndexMismatch: "requirement does not belong to index",

	ErrCodeMappingNotFound:      "section mapping not found",
	ErrCodeMappingAlreadyExists: "section mapping already exists for this source section",
	ErrCodeMappingLevelInvalid:  "invalid section mapping level",
	ErrCodeMappingPairInvalid:   "invalid index pair for section mapping",

	ErrCodeRecommendationNotFound:      "recommendation not found",
	ErrCodeRecommendationTextEmpty:     "recommendation text is empty",
	ErrCodeRecommendationStatusInvalid: "invalid recommendation status",

	ErrCodeMatchThresholdInvalid: "invalid match confidence threshold",
	ErrCodeMatchStrategyUnknown:  "unknown recommendation matching strategy",

	ErrCodeUploadSheetMalformed: "uploaded sheet is malformed",
	ErrCodeUploadNoRequirements: "target index has no requirements",
	ErrCodeUploadEmptySheet:     "uploaded sheet contains no data rows",
	ErrCodeUploadArchiveFailed:  "failed to archive uploaded sheet",
	ErrCodeUploadInProgress:     "another upload for this index is in progress",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
