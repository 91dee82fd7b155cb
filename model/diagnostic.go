package model

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies a diagnostic raised during parsing.
type Severity int

const (
	// SeverityWarning is informational and never halts a stage.
	SeverityWarning Severity = iota
	// SeverityError means a stage or strategy failed to produce a usable
	// result, but sibling strategies may still succeed via fallback.
	SeverityError
	// SeverityFatal halts the pipeline before a BookDocument can be produced.
	SeverityFatal
)

// String returns a human-readable representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is a single issue raised by a pipeline stage. Diagnostics are
// collected in emission order across all stages and strategies, including
// strategies that were not ultimately selected, and are never deduplicated.
type Diagnostic struct {
	// Severity is the diagnostic level.
	Severity Severity

	// Stage names the pipeline stage that raised the diagnostic.
	Stage string

	// Message is the human-readable description.
	Message string

	// Suggestion is an optional remediation hint.
	Suggestion string

	// Location is an optional source location (archive entry, element).
	Location string

	// Time is when the diagnostic was raised.
	Time time.Time
}

// NewWarning creates a warning-level diagnostic.
func NewWarning(stage, message string) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Stage: stage, Message: message, Time: time.Now()}
}

// NewError creates an error-level diagnostic.
func NewError(stage, message string) Diagnostic {
	return Diagnostic{Severity: SeverityError, Stage: stage, Message: message, Time: time.Now()}
}

// NewFatal creates a fatal-level diagnostic.
func NewFatal(stage, message string) Diagnostic {
	return Diagnostic{Severity: SeverityFatal, Stage: stage, Message: message, Time: time.Now()}
}

// WithSuggestion returns a copy of the diagnostic with a remediation hint.
func (d Diagnostic) WithSuggestion(s string) Diagnostic {
	d.Suggestion = s
	return d
}

// WithLocation returns a copy of the diagnostic with a source location.
func (d Diagnostic) WithLocation(loc string) Diagnostic {
	d.Location = loc
	return d
}

// String formats the diagnostic as a single line.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", d.Severity, d.Stage, d.Message)
	if d.Location != "" {
		fmt.Fprintf(&b, " (%s)", d.Location)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "; suggestion: %s", d.Suggestion)
	}
	return b.String()
}

// HasFatal reports whether any diagnostic in the list is fatal.
func HasFatal(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// FirstFatal returns the first fatal diagnostic in the list, if any.
func FirstFatal(diags []Diagnostic) (Diagnostic, bool) {
	for _, d := range diags {
		if d.Severity == SeverityFatal {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// CountSeverity returns the number of diagnostics at the given severity.
func CountSeverity(diags []Diagnostic, s Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// FormatDiagnostics renders a diagnostic list as newline-separated lines
// suitable for display to a user.
func FormatDiagnostics(diags []Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	lines := make([]string, 0, len(diags))
	for _, d := range diags {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}
