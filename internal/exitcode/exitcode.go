package exitcode

import (
	"os"

	"github.com/teamdeck/teamdeck/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication failure
	AuthError = 3

	// NetworkError indicates a network connectivity issue
	NetworkError = 4

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error's code onto an exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.Code(err) {
	case errors.ErrCodeNetwork:
		return NetworkError
	case errors.ErrCodeUnauthorized,
		errors.ErrCodeInvalidCredentials,
		errors.ErrCodeNoSession,
		errors.ErrCodeSignupRejected:
		return AuthError
	case errors.ErrCodeConfigInvalid:
		return UsageError
	default:
		return GeneralError
	}
}
