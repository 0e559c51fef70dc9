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
	// Configuration document errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid     ErrorCode = "CONFIG-002"
	ErrCodeConfigWriteFailed ErrorCode = "CONFIG-003"
	ErrCodeSettingsInvalid   ErrorCode = "CONFIG-004"

	// Source artwork errors (SOURCE-001 to SOURCE-099)
	ErrCodeSourceNotFound ErrorCode = "SOURCE-001"
	ErrCodeSourceTooSmall ErrorCode = "SOURCE-002"
	ErrCodeSourceRead     ErrorCode = "SOURCE-003"

	// Upload errors (UPLOAD-001 to UPLOAD-099)
	ErrCodeUploadFailed ErrorCode = "UPLOAD-001"

	// Transform errors (TRANSFORM-001 to TRANSFORM-099)
	ErrCodeTransformFailed    ErrorCode = "TRANSFORM-001"
	ErrCodeTransformAllFailed ErrorCode = "TRANSFORM-002"

	// Network errors (NET-001 to NET-099)
	ErrCodeNetworkUnreachable ErrorCode = "NET-001"

	// Run errors (RUN-001 to RUN-099)
	ErrCodeNoPlatforms ErrorCode = "RUN-001"
	ErrCodeNoOutput    ErrorCode = "RUN-002"
	ErrCodeUsage       ErrorCode = "RUN-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
)

const docsBase = "https://github.com/felixgeelhaar/resgen"

// ResgenError represents an enhanced error with code, suggestions, and documentation
type ResgenError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *ResgenError) Error() string {
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

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ResgenError) Unwrap() error {
	return e.Cause
}

// New creates a new ResgenError
func New(code ErrorCode, message string) *ResgenError {
	return &ResgenError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ResgenError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ResgenError {
	return &ResgenError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ResgenError) WithSuggestion(suggestion string) *ResgenError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ResgenError) WithSuggestions(suggestions ...string) *ResgenError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *ResgenError) WithDocs(url string) *ResgenError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first ResgenError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var rerr *ResgenError
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}

// HasCode reports whether any ResgenError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var rerr *ResgenError
		if !errors.As(err, &rerr) {
			return false
		}
		if rerr.Code == code {
			return true
		}
		err = rerr.Cause
	}
	return false
}

// Common error constructors for frequently used errors

// NewConfigNotFoundError creates a missing config.xml error
func NewConfigNotFoundError(path string, cause error) *ResgenError {
	return Wrap(ErrCodeConfigNotFound, fmt.Sprintf("configuration document not found: %s", path), cause).
		WithSuggestion("Run resgen from the root of a Cordova/Capacitor project").
		WithSuggestion("Pass --project to point at the directory containing config.xml").
		WithDocs(docsBase + "#project-layout")
}

// NewConfigInvalidError creates an unparsable config.xml error
func NewConfigInvalidError(path string, cause error) *ResgenError {
	return Wrap(ErrCodeConfigInvalid, fmt.Sprintf("failed to parse configuration document: %s", path), cause).
		WithSuggestion("Check config.xml for malformed markup").
		WithSuggestion("Ensure the root element is <widget>")
}

// NewConfigWriteError creates a config.xml write failure
func NewConfigWriteError(path string, cause error) *ResgenError {
	return Wrap(ErrCodeConfigWriteFailed, fmt.Sprintf("failed to write configuration document: %s", path), cause).
		WithSuggestion("Generated images were committed; re-run after fixing permissions to update config.xml")
}

// NewSourceNotFoundError creates a missing source artwork error
func NewSourceNotFoundError(platform, category string, dirs, names []string) *ResgenError {
	return New(ErrCodeSourceNotFound,
		fmt.Sprintf("no %s source image found for %s", category, platform)).
		WithSuggestion(fmt.Sprintf("Add one of %s to %s", strings.Join(names, ", "), strings.Join(dirs, " or "))).
		WithSuggestion("Run 'resgen generate --default' to create placeholder artwork")
}

// NewNoPlatformsError creates an error for runs without any target platform
func NewNoPlatformsError(platformsDir string) *ResgenError {
	return New(ErrCodeNoPlatforms, "no platforms to generate resources for").
		WithSuggestion(fmt.Sprintf("Add a native platform so that %s is populated", platformsDir)).
		WithSuggestion("Or name platforms explicitly: resgen generate android ios")
}

// NewNoOutputError creates an error for runs that produced nothing usable
func NewNoOutputError() *ResgenError {
	return New(ErrCodeNoOutput, "no platform produced any usable resource").
		WithSuggestion("Check the diagnostics above for skipped outputs").
		WithSuggestion("Use larger or vector source artwork")
}

// NewNetworkUnreachableError creates an error for total inability to reach the image service
func NewNetworkUnreachableError(apiURL string, cause error) *ResgenError {
	return Wrap(ErrCodeNetworkUnreachable, fmt.Sprintf("image service unreachable: %s", apiURL), cause).
		WithSuggestion("Check your network connection").
		WithSuggestion("Set HTTPS_PROXY if you are behind a proxy").
		WithSuggestion("Use --api to point at a different image service")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *ResgenError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestions(
			"Check if the file path is correct",
			"Verify the file exists and you have read permissions",
		)
}
