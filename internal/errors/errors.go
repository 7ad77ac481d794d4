// Package errors defines the structured error taxonomy used across the
// guardrail engine and its MCP surface.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCategory classifies the type of error
type ErrorCategory string

const (
	// ClientError indicates the error was caused by the caller's input
	ClientError ErrorCategory = "CLIENT_ERROR"
	// ServerError indicates the error originated inside the engine
	ServerError ErrorCategory = "SERVER_ERROR"
	// ExternalError indicates the error was caused by an external dependency
	ExternalError ErrorCategory = "EXTERNAL_ERROR"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Client errors
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeParseError       ErrorCode = "PARSE_ERROR"
	CodePolicyViolation  ErrorCode = "POLICY_VIOLATION"
	CodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"

	// Server errors
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeTimeout       ErrorCode = "TIMEOUT"

	// External errors
	CodeNetworkError ErrorCode = "NETWORK_ERROR"
)

// StructuredError represents a detailed error with category, code, and recovery suggestion
type StructuredError struct {
	Code       ErrorCode     `json:"code"`
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Details    interface{}   `json:"details,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// ToJSON converts the error to JSON string
func (e *StructuredError) ToJSON() string {
	bytes, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"code":"%s","category":"%s","message":"%s"}`, e.Code, e.Category, e.Message)
	}
	return string(bytes)
}

// New creates a new structured error
func New(code ErrorCode, category ErrorCategory, message string) *StructuredError {
	return &StructuredError{
		Code:     code,
		Category: category,
		Message:  message,
	}
}

// WithDetails adds details to the error
func (e *StructuredError) WithDetails(details interface{}) *StructuredError {
	e.Details = details
	return e
}

// WithSuggestion adds a recovery suggestion to the error
func (e *StructuredError) WithSuggestion(suggestion string) *StructuredError {
	e.Suggestion = suggestion
	return e
}

// Common error constructors

// NewInvalidInput creates an invalid input error
func NewInvalidInput(message string) *StructuredError {
	return New(CodeInvalidInput, ClientError, message).
		WithSuggestion("Check the input parameters and try again")
}

// NewMissingParameter creates a missing parameter error
func NewMissingParameter(param string) *StructuredError {
	return New(CodeMissingParameter, ClientError, fmt.Sprintf("Required parameter '%s' is missing", param)).
		WithSuggestion(fmt.Sprintf("Provide the '%s' parameter", param))
}

// NewParseError creates a parse error for extractor and document failures
func NewParseError(message string) *StructuredError {
	return New(CodeParseError, ClientError, message).
		WithSuggestion("Check the selector or pattern against the fetched document")
}

// NewPolicyViolation creates a policy violation error. Adapters surface it
// when a verdict comes back blocked.
func NewPolicyViolation(reason string) *StructuredError {
	return New(CodePolicyViolation, ClientError, fmt.Sprintf("Run blocked by guardrail policy: %s", reason)).
		WithSuggestion("Review the verdict findings and adjust the agent run or the policy")
}

// NewResourceNotFound creates a resource not found error
func NewResourceNotFound(resourceType, id string) *StructuredError {
	return New(CodeResourceNotFound, ClientError, fmt.Sprintf("%s with ID '%s' not found", resourceType, id)).
		WithSuggestion("Verify the ID and try again")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *StructuredError {
	return New(CodeInternalError, ServerError, message).
		WithSuggestion("Try again later or file an issue if the problem persists")
}

// NewTimeout creates a timeout error
func NewTimeout(operation string) *StructuredError {
	return New(CodeTimeout, ServerError, fmt.Sprintf("Operation '%s' timed out", operation)).
		WithSuggestion("Try again or adjust timeout settings")
}

// NewNetworkError creates a network error for failed evidence fetches
func NewNetworkError(message string) *StructuredError {
	return New(CodeNetworkError, ExternalError, message).
		WithSuggestion("Check the evidence URL and your network connection")
}

// IsParseError reports whether err is a structured PARSE_ERROR.
func IsParseError(err error) bool {
	se, ok := err.(*StructuredError)
	return ok && se.Code == CodeParseError
}

// IsNetworkError reports whether err is a structured NETWORK_ERROR.
func IsNetworkError(err error) bool {
	se, ok := err.(*StructuredError)
	return ok && se.Code == CodeNetworkError
}
