// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"

	"github.com/loomkit/loom/internal/catalog"
)

type (
	// Summary counts what a load achieved.
	Summary struct {
		Modules              int  `json:"modules" yaml:"modules"`
		Candidates           int  `json:"candidates" yaml:"candidates"`
		Initialized          int  `json:"initialized" yaml:"initialized"`
		Finished             int  `json:"finished" yaml:"finished"`
		InitializationPasses int  `json:"initialization_passes" yaml:"initialization_passes"`
		FinalizationPasses   int  `json:"finalization_passes" yaml:"finalization_passes"`
		Frozen               bool `json:"frozen" yaml:"frozen"`
	}

	// Report is the outcome of one load.
	Report struct {
		RunID       string
		Universe    string
		Summary     Summary
		Failures    []Failure
		Cycles      [][]string
		Diagnostics []catalog.Diagnostic
	}

	// AggregateError carries every failure of a load as a single error.
	AggregateError struct {
		Report *Report
	}
)

// HasFailures reports whether any failure was recorded.
func (r *Report) HasFailures() bool { return len(r.Failures) > 0 }

// Err returns an *AggregateError when the report has failures, nil otherwise.
func (r *Report) Err() error {
	if !r.HasFailures() {
		return nil
	}
	return &AggregateError{Report: r}
}

// CountByKind returns the number of failures per kind.
func (r *Report) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, f := range r.Failures {
		counts[f.Kind]++
	}
	return counts
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	n := len(e.Report.Failures)
	noun := "failures"
	if n == 1 {
		noun = "failure"
	}
	msg := fmt.Sprintf("%d %s while loading universe %q", n, noun, e.Report.Universe)
	if n > 0 {
		msg += ": " + e.Report.Failures[0].Error()
		if n > 1 {
			msg += fmt.Sprintf(" (and %d more)", n-1)
		}
	}
	return msg
}

// Unwrap exposes every failure to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Report.Failures))
	for i := range e.Report.Failures {
		errs[i] = &e.Report.Failures[i]
	}
	return errs
}
