package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeRetrieval  = "RETRIEVAL_ERROR"
	ErrCodeGeneration = "GENERATION_ERROR"
	ErrCodeProtocol   = "PROTOCOL_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion    = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrQuestionTooLong  = NewDomainError(ErrCodeValidation, "question exceeds maximum length")
	ErrEmptySearchTerms = NewDomainError(ErrCodeValidation, "question yields no searchable terms")
)

// Not found errors
var (
	ErrKnowledgeNotFound = NewDomainError(ErrCodeNotFound, "knowledge item not found")
)

// Retrieval and generation errors
var (
	ErrStoreUnavailable   = NewDomainError(ErrCodeRetrieval, "knowledge store unavailable")
	ErrGenerationFailed   = NewDomainError(ErrCodeGeneration, "answer generation failed")
	ErrGenerationTimedOut = NewDomainError(ErrCodeGeneration, "answer generation timed out")
)

// Protocol errors (always an internal bug, never user-caused)
var (
	ErrProtocolViolation = NewDomainError(ErrCodeProtocol, "message emitted out of protocol order")
)

// ErrorCode extracts the domain error code from err, defaulting to
// INTERNAL_ERROR for unknown error types.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}
