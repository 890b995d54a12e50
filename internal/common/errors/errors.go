// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeProfileNotFound    ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileFetchFailed ErrorCode = "PROFILE_FETCH_FAILED"
	ErrCodeProfileSaveFailed  ErrorCode = "PROFILE_SAVE_FAILED"

	ErrCodeCatalogFetchFailed ErrorCode = "CATALOG_FETCH_FAILED"

	ErrCodeMatchDeleteFailed ErrorCode = "MATCH_DELETE_FAILED"
	ErrCodeMatchInsertFailed ErrorCode = "MATCH_INSERT_FAILED"
	ErrCodeMatchQueryFailed  ErrorCode = "MATCH_QUERY_FAILED"

	ErrCodeEventPublishFailed ErrorCode = "EVENT_PUBLISH_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newStandardError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return newStandardError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// NewProfileNotFoundError creates a non-retryable missing profile error.
func NewProfileNotFoundError(userID string) *StandardError {
	return newStandardError(ErrCodeProfileNotFound, "Student profile not found",
		fmt.Sprintf("userId: %s", userID), false, nil)
}

// NewProfileFetchFailedError creates a retryable profile lookup error.
func NewProfileFetchFailedError(err error) *StandardError {
	return newStandardError(ErrCodeProfileFetchFailed, "Failed to load student profile", err.Error(), true, err)
}

// NewProfileSaveFailedError creates a retryable profile write error.
func NewProfileSaveFailedError(err error) *StandardError {
	return newStandardError(ErrCodeProfileSaveFailed, "Failed to save student profile", err.Error(), true, err)
}

// NewCatalogFetchFailedError creates a retryable catalog load error.
func NewCatalogFetchFailedError(err error) *StandardError {
	return newStandardError(ErrCodeCatalogFetchFailed, "Failed to load program catalog", err.Error(), true, err)
}

// NewMatchDeleteFailedError creates a retryable error for clearing old matches.
func NewMatchDeleteFailedError(err error) *StandardError {
	return newStandardError(ErrCodeMatchDeleteFailed, "Failed to delete existing matches", err.Error(), true, err)
}

// NewMatchInsertFailedError creates a retryable bulk insert error.
func NewMatchInsertFailedError(err error) *StandardError {
	return newStandardError(ErrCodeMatchInsertFailed, "Failed to insert matches", err.Error(), true, err)
}

// NewMatchQueryFailedError creates a retryable read error for matches or stats.
func NewMatchQueryFailedError(queryType string, err error) *StandardError {
	return newStandardError(ErrCodeMatchQueryFailed, "Match query failed",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

// NewEventPublishFailedError creates a retryable event publishing error.
func NewEventPublishFailedError(eventType string, err error) *StandardError {
	return newStandardError(ErrCodeEventPublishFailed, "Event publishing failed",
		fmt.Sprintf("type: %s, error: %s", eventType, err.Error()), true, err)
}

// NewExternalServiceError creates a retryable error for an unavailable dependency.
func NewExternalServiceError(service string, err error) *StandardError {
	return newStandardError(ErrCodeExternalService, fmt.Sprintf("External service '%s' failed", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newStandardError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:       "INVALID_INPUT",
	ErrCodeProfileNotFound:    "PROFILE_NOT_FOUND",
	ErrCodeProfileFetchFailed: "PROFILE_FETCH_FAILED",
	ErrCodeProfileSaveFailed:  "PROFILE_SAVE_FAILED",
	ErrCodeCatalogFetchFailed: "CATALOG_FETCH_FAILED",
	ErrCodeMatchDeleteFailed:  "MATCH_DELETE_FAILED",
	ErrCodeMatchInsertFailed:  "MATCH_INSERT_FAILED",
	ErrCodeMatchQueryFailed:   "MATCH_QUERY_FAILED",
	ErrCodeEventPublishFailed: "EVENT_PUBLISH_FAILED",
	ErrCodeExternalService:    "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:            "TIMEOUT_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileFetchFailed,
		ErrCodeProfileSaveFailed,
		ErrCodeCatalogFetchFailed,
		ErrCodeMatchDeleteFailed,
		ErrCodeMatchInsertFailed,
		ErrCodeMatchQueryFailed,
		ErrCodeEventPublishFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err looking for a StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "MATCH"):
		return "DATABASE"
	case strings.Contains(codeStr, "EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "EXTERNAL"):
		return "EXTERNAL"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
