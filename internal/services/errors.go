package services

import "errors"

// Workflow error codes surfaced to clients. Input errors are
// field-attributable and never retried; storage and conflict errors are
// safe to retry because nothing was persisted.
const (
	CodeInvalidAsset          = "invalid_asset"
	CodeInvalidTitle          = "invalid_title"
	CodeInvalidComponentScope = "invalid_component_scope"
	CodeInvalidSymptomTag     = "invalid_symptom_tag"
	CodeInvalidResolution     = "invalid_resolution"
	CodeCandidateNotFound     = "candidate_not_found"
	CodeStorageUnavailable    = "storage_unavailable"
	CodeConcurrentConflict    = "concurrent_conflict"
)

// WorkflowError is a client-visible workflow failure with a
// machine-readable code and optional field attribution.
type WorkflowError struct {
	Code    string
	Field   string
	Message string
}

// Error implements the error interface
func (e *WorkflowError) Error() string {
	return e.Message
}

// IsClientError reports whether the error is correctable by the client
// (as opposed to a transient storage or concurrency failure).
func (e *WorkflowError) IsClientError() bool {
	switch e.Code {
	case CodeStorageUnavailable, CodeConcurrentConflict:
		return false
	}
	return true
}

// IsRetryable reports whether resubmitting the same request may succeed.
// Retry is safe only because failed transitions leave no partial writes.
func (e *WorkflowError) IsRetryable() bool {
	return e.Code == CodeStorageUnavailable || e.Code == CodeConcurrentConflict
}

func newWorkflowError(code, field, message string) *WorkflowError {
	return &WorkflowError{Code: code, Field: field, Message: message}
}

// AsWorkflowError extracts a WorkflowError from an error chain
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// ErrorHasCode reports whether err is a WorkflowError with the given code
func ErrorHasCode(err error, code string) bool {
	if we, ok := AsWorkflowError(err); ok {
		return we.Code == code
	}
	return false
}
