// SPDX-License-Identifier: MPL-2.0

package catalog

const (
	// SeverityInfo records a decision the caller may want to surface.
	SeverityInfo Severity = "info"
	// SeverityWarning indicates a declaration that was skipped.
	SeverityWarning Severity = "warning"
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// Diagnostic is a structured, non-fatal discovery finding returned to callers
	// rather than written to stderr, so the CLI controls rendering.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier (e.g., "declaration_excluded").
		Code    string
		Message string
		// Module is the module the finding belongs to (optional).
		Module string
		Cause  error
	}
)
