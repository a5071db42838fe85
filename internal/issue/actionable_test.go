// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load modules"},
			expected: "failed to load modules",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "read order file", Resource: "./loadorder.cue"},
			expected: "failed to read order file: ./loadorder.cue",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "load config", Cause: errors.New("syntax error at line 5")},
			expected: "failed to load config: syntax error at line 5",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "read order file",
				Resource:  "./loadorder.toml",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to read order file: ./loadorder.toml: file not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "test"}).Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error non-verbose",
			err:      &ActionableError{Operation: "load config"},
			contains: []string{"failed to load config"},
			excludes: []string{"•"},
		},
		{
			name: "suggestions",
			err: &ActionableError{
				Operation:   "read order file",
				Resource:    "./loadorder.cue",
				Suggestions: []string{"Check the priorities", "Remove negative values"},
			},
			contains: []string{"./loadorder.cue", "• Check the priorities", "• Remove negative values"},
		},
		{
			name:     "issue link becomes a suggestion",
			err:      &ActionableError{Operation: "read order file", Issue: OrderFileInvalidId},
			contains: []string{"• run 'loom explain order-file-invalid' for details"},
		},
		{
			name:     "chain only when verbose",
			err:      &ActionableError{Operation: "load config", Cause: errors.New("syntax error")},
			contains: []string{"failed to load config: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested chain verbose",
			err: &ActionableError{
				Operation: "load modules",
				Cause:     &ActionableError{Operation: "read order file", Cause: errors.New("file not found")},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to read order file: file not found",
				"2. file not found",
			},
		},
		{
			name: "joined chain verbose",
			err: &ActionableError{
				Operation: "load modules",
				Cause:     errors.Join(errors.New("first"), errors.New("second")),
			},
			verbose:  true,
			contains: []string{"2.   first", "3.   second"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestActionableError_FormatDoesNotMutateSuggestions(t *testing.T) {
	t.Parallel()

	suggestions := make([]string, 1, 4)
	suggestions[0] = "first"
	err := &ActionableError{Operation: "x", Suggestions: suggestions, Issue: CannotInitializeId}
	_ = err.Format(false)
	_ = err.Format(false)
	if len(err.Suggestions) != 1 {
		t.Errorf("Suggestions = %v, want unchanged", err.Suggestions)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("load modules").
		WithResource("core").
		WithSuggestion("one").
		WithSuggestions("two", "three").
		WithIssue(MissingDependencyId).
		Wrap(cause).
		Build()
	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "load modules" || ae.Resource != "core" || ae.Issue != MissingDependencyId || ae.Cause != cause {
		t.Errorf("unexpected fields: %+v", ae)
	}
	if !slices.Equal(ae.Suggestions, []string{"one", "two", "three"}) {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if !ae.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}
	var target *ActionableError
	if err := NewErrorContext().WithOperation("x").BuildError(); !errors.As(err, &target) {
		t.Errorf("BuildError() = %T, want *ActionableError", err)
	}
}

func TestWrapHelpers(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil || WrapWithContext(nil, "x", "y") != nil {
		t.Error("wrapping nil should return nil")
	}
	cause := errors.New("cause")
	if got := WrapWithOperation(cause, "load").Error(); got != "failed to load: cause" {
		t.Errorf("WrapWithOperation() = %q", got)
	}
	if got := WrapWithContext(cause, "load", "core").Error(); got != "failed to load: core: cause" {
		t.Errorf("WrapWithContext() = %q", got)
	}
	if got := NewActionableError("load").Error(); got != "failed to load" {
		t.Errorf("NewActionableError() = %q", got)
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	base := errors.New("base")
	wrapped := fmt.Errorf("outer: %w", base)
	joined := errors.Join(wrapped, errors.New("sibling"))

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"nil", nil, nil},
		{"single", base, []string{"base"}},
		{"wrapped", wrapped, []string{"outer: base", "base"}},
		{"joined", joined, []string{"outer: base\nsibling", "  outer: base", "  base", "  sibling"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Chain(tt.err); !slices.Equal(got, tt.want) {
				t.Errorf("Chain() = %q, want %q", got, tt.want)
			}
		})
	}
}
