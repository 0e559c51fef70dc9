package ux

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/remote"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a suggestion to uncoded errors whose cause is
// recognizable. Coded errors already carry their own suggestions.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var coded *errors.ResgenError
	if stderrors.As(err, &coded) {
		return err
	}

	switch {
	case stderrors.Is(err, remote.ErrUnreachable):
		return NewErrorWithSuggestion(err,
			"Check your network connection or set HTTPS_PROXY; use --api to target another image service")
	case stderrors.Is(err, remote.ErrNotFound):
		return NewErrorWithSuggestion(err,
			"The image service does not expose this endpoint; check the --api base URL")
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check that the project, resources and cache directories are writable")
	}

	if strings.Contains(errMsg, "no such file or directory") && strings.Contains(errMsg, "config.xml") {
		return NewErrorWithSuggestion(err,
			"Run resgen from the project root or pass --project")
	}

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and firewall settings")
	}

	return err
}

// RenderError formats err for the terminal, listing suggestions and the
// documentation link of coded errors.
func RenderError(err error, noColor bool) string {
	if err == nil {
		return ""
	}

	st := newStyles(noColor)
	var b strings.Builder

	var coded *errors.ResgenError
	if stderrors.As(err, &coded) {
		b.WriteString(st.failure.Render(fmt.Sprintf("Error [%s]:", coded.Code)))
		b.WriteString(" " + coded.Message)
		if coded.Cause != nil {
			b.WriteString("\n  " + st.label.Render("cause: ") + coded.Cause.Error())
		}
		if len(coded.Suggestions) > 0 {
			b.WriteString("\n\n" + st.header.Render("Suggestions:"))
			for _, s := range coded.Suggestions {
				b.WriteString("\n  • " + s)
			}
		}
		if coded.DocsURL != "" {
			b.WriteString("\n\n" + st.label.Render("Docs: ") + coded.DocsURL)
		}
		return b.String()
	}

	b.WriteString(st.failure.Render("Error:"))
	b.WriteString(" " + EnhanceError(err).Error())
	return b.String()
}

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
