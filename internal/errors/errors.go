package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeNetwork            ErrorCode = "AUTH-001"
	ErrCodeUnauthorized       ErrorCode = "AUTH-002"
	ErrCodeInvalidCredentials ErrorCode = "AUTH-003"
	ErrCodeMalformedResponse  ErrorCode = "AUTH-004"
	ErrCodeNoSession          ErrorCode = "AUTH-005"
	ErrCodeSignupRejected     ErrorCode = "AUTH-006"

	// Directory errors (DIR-001 to DIR-099)
	ErrCodeDirectoryFetch  ErrorCode = "DIR-001"
	ErrCodeUserNotFound    ErrorCode = "DIR-002"
	ErrCodeRoleInvalid     ErrorCode = "DIR-003"
	ErrCodeNoEditInFlight  ErrorCode = "DIR-004"

	// Session storage errors (STORE-001 to STORE-099)
	ErrCodeStoreRead  ErrorCode = "STORE-001"
	ErrCodeStoreWrite ErrorCode = "STORE-002"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
)

// TeamdeckError represents an enhanced error with code and suggestions
type TeamdeckError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *TeamdeckError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *TeamdeckError) Unwrap() error {
	return e.Cause
}

// New creates a new TeamdeckError
func New(code ErrorCode, message string) *TeamdeckError {
	return &TeamdeckError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new TeamdeckError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *TeamdeckError {
	return &TeamdeckError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *TeamdeckError) WithSuggestion(suggestion string) *TeamdeckError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var te *TeamdeckError
		if errors.As(err, &te) {
			if te.Code == code {
				return true
			}
			err = te.Cause
			continue
		}
		return false
	}
	return false
}

// Code returns the error code carried by err, or "" for plain errors.
func Code(err error) ErrorCode {
	var te *TeamdeckError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// Common error constructors for frequently used errors

// NewNetworkError creates a transport-level failure error
func NewNetworkError(op string, cause error) *TeamdeckError {
	return Wrap(ErrCodeNetwork, fmt.Sprintf("network failure during %s", op), cause).
		WithSuggestion("Check your network connection").
		WithSuggestion("Verify the service URL configuration")
}

// NewUnauthorizedError creates an invalid/expired token error
func NewUnauthorizedError(detail string) *TeamdeckError {
	return New(ErrCodeUnauthorized, detail).
		WithSuggestion("Run 'teamdeck signin' to authenticate again")
}

// NewInvalidCredentialsError creates a sign-in rejection error
func NewInvalidCredentialsError(detail string) *TeamdeckError {
	return New(ErrCodeInvalidCredentials, detail).
		WithSuggestion("Check your email and password").
		WithSuggestion("Run 'teamdeck signup' if you don't have an account")
}

// NewMalformedResponseError creates an unusable-2xx-body error
func NewMalformedResponseError(op string, detail string) *TeamdeckError {
	return New(ErrCodeMalformedResponse, fmt.Sprintf("unusable response from %s: %s", op, detail))
}

// NewUserNotFoundError creates an unknown directory user error
func NewUserNotFoundError(userID string) *TeamdeckError {
	return New(ErrCodeUserNotFound, fmt.Sprintf("no directory user with id %q", userID)).
		WithSuggestion("Refresh the directory; the user may have been removed")
}
