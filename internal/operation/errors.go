package operation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tombee/conductor-ntfy/internal/operation/transport"
)

// ErrorType classifies operation errors for appropriate handling.
type ErrorType string

const (
	// ErrorTypeAuth indicates authentication or authorization failure (401, 403)
	ErrorTypeAuth ErrorType = "auth_error"

	// ErrorTypeNotFound indicates resource not found (404)
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeValidation indicates invalid inputs or a rejected request (400, 422)
	ErrorTypeValidation ErrorType = "validation_error"

	// ErrorTypeRateLimit indicates rate limit exceeded (429)
	ErrorTypeRateLimit ErrorType = "rate_limited"

	// ErrorTypeServer indicates server-side error (5xx)
	ErrorTypeServer ErrorType = "server_error"

	// ErrorTypeTimeout indicates operation timeout
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeConnection indicates network/DNS error
	ErrorTypeConnection ErrorType = "connection_error"

	// ErrorTypeCancelled indicates the caller cancelled the operation
	ErrorTypeCancelled ErrorType = "cancelled"

	// ErrorTypeTransform indicates response transform failure
	ErrorTypeTransform ErrorType = "transform_error"

	// ErrorTypeUnhealthy indicates the service answered but reported itself unhealthy
	ErrorTypeUnhealthy ErrorType = "unhealthy"
)

// Error represents an operation execution error with classification.
type Error struct {
	// Type classifies the error
	Type ErrorType

	// Message is the human-readable error description
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// SuggestText provides guidance on how to resolve the error.
	SuggestText string

	// RequestID from the external service
	RequestID string

	// CorrelationID links this error to the invocation that produced it
	CorrelationID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("OperationError: %s", e.Message)

	if e.Type != "" {
		msg = fmt.Sprintf("%s (type: %s)", msg, e.Type)
	}

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}

	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements pkg/errors.UserVisibleError.
// Operation errors are always user-visible.
func (e *Error) IsUserVisible() bool {
	return true
}

// UserMessage implements pkg/errors.UserVisibleError.
func (e *Error) UserMessage() string {
	return e.Message
}

// Suggestion implements pkg/errors.UserVisibleError.
func (e *Error) Suggestion() string {
	return e.SuggestText
}

// ClassifyHTTPError classifies an HTTP status code into an error type.
func ClassifyHTTPError(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusRequestTimeout:
		return ErrorTypeTimeout
	case statusCode >= 500:
		return ErrorTypeServer
	default:
		return ErrorTypeValidation
	}
}

// suggestionFor returns the default suggestion for an error type.
func suggestionFor(errType ErrorType) string {
	switch errType {
	case ErrorTypeAuth:
		return "Check the credential's auth type, username/password or access token"
	case ErrorTypeNotFound:
		return "Verify the server URL and topic are correct"
	case ErrorTypeValidation:
		return "Check the operation inputs. See logs for details"
	case ErrorTypeRateLimit:
		return "Wait for the rate limit window or lower http.rate_limit"
	case ErrorTypeServer:
		return "Retry later or contact the server operator"
	case ErrorTypeConnection:
		return "Check network connectivity, DNS resolution and the server URL"
	case ErrorTypeTimeout:
		return "Increase http.timeout or check server responsiveness"
	}
	return ""
}

// ErrorFromHTTPStatus creates an Error from an HTTP response.
// Response body is NOT included in the error message; the caller may set a
// service-reported message instead.
func ErrorFromHTTPStatus(statusCode int, requestID string) *Error {
	errType := ClassifyHTTPError(statusCode)
	return &Error{
		Type:        errType,
		StatusCode:  statusCode,
		Message:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		RequestID:   requestID,
		SuggestText: suggestionFor(errType),
	}
}

// FromTransportError converts a transport failure into an operation Error.
// Errors that are not *transport.TransportError are classified as connection errors.
func FromTransportError(err error) *Error {
	if err == nil {
		return nil
	}

	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr
	}

	var te *transport.TransportError
	if !errors.As(err, &te) {
		return NewConnectionError(err)
	}

	if te.StatusCode != 0 {
		e := ErrorFromHTTPStatus(te.StatusCode, te.RequestID)
		e.Cause = te
		return e
	}

	var errType ErrorType
	switch te.Type {
	case transport.ErrorTypeTimeout:
		errType = ErrorTypeTimeout
	case transport.ErrorTypeCancelled:
		errType = ErrorTypeCancelled
	case transport.ErrorTypeInvalidReq:
		errType = ErrorTypeValidation
	default:
		errType = ErrorTypeConnection
	}

	return &Error{
		Type:        errType,
		Message:     te.Message,
		Cause:       te,
		SuggestText: suggestionFor(errType),
	}
}

// NewTransformError creates an error for response transform failures.
func NewTransformError(expression string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeTransform,
		Message:     fmt.Sprintf("response transform failed: %s", expression),
		Cause:       cause,
		SuggestText: "Check jq expression syntax and ensure it matches the response structure",
	}
}

// NewConnectionError creates an error for network/DNS failures.
func NewConnectionError(cause error) *Error {
	return &Error{
		Type:        ErrorTypeConnection,
		Message:     "connection failed",
		Cause:       cause,
		SuggestText: suggestionFor(ErrorTypeConnection),
	}
}

// NewValidationError creates an error for rejected operation inputs.
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeValidation,
		Message:     message,
		Cause:       cause,
		SuggestText: suggestionFor(ErrorTypeValidation),
	}
}
