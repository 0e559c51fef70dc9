package exitcode

import (
	"context"
	"errors"
	"os"
	"strings"

	rerrors "github.com/felixgeelhaar/resgen/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates config.xml could not be read, parsed or written
	ConfigError = 3

	// NoOutput indicates no platform/category produced any usable resource
	NoOutput = 4

	// NetworkError indicates the image service could not be reached
	NetworkError = 6

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Coded errors are mapped by code; anything else falls back to message matching.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	switch rerrors.CodeOf(err) {
	case rerrors.ErrCodeConfigNotFound, rerrors.ErrCodeConfigInvalid,
		rerrors.ErrCodeConfigWriteFailed, rerrors.ErrCodeSettingsInvalid,
		rerrors.ErrCodeFileNotFound:
		return ConfigError
	case rerrors.ErrCodeNoOutput, rerrors.ErrCodeTransformAllFailed:
		return NoOutput
	case rerrors.ErrCodeNetworkUnreachable:
		return NetworkError
	case rerrors.ErrCodeNoPlatforms, rerrors.ErrCodeUsage:
		return UsageError
	}

	errMsg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration document error"
	case NoOutput:
		return "No resources generated"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
