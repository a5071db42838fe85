// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"time"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/report"
)

const (
	OutcomeInitialized Outcome = "initialized"
	OutcomeRetry       Outcome = "retry"
	OutcomeFailed      Outcome = "failed"
)

type (
	// Outcome is the result of one construction attempt.
	Outcome string

	// Recorder receives load measurements. internal/metrics provides a
	// Prometheus implementation.
	Recorder interface {
		ObserveAttempt(category catalog.Category, outcome Outcome)
		ObservePasses(phase report.Phase, passes int)
		ObserveFailure(kind report.Kind)
		ObserveDuration(phase report.Phase, d time.Duration)
	}

	nopRecorder struct{}
)

func (nopRecorder) ObserveAttempt(catalog.Category, Outcome) {}
func (nopRecorder) ObservePasses(report.Phase, int) {}
func (nopRecorder) ObserveFailure(report.Kind) {}
func (nopRecorder) ObserveDuration(report.Phase, time.Duration) {}
