// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/issue"
	"github.com/loomkit/loom/pkg/universe"
)

const (
	// KindMissingDependency marks a type whose declared dependencies never initialized.
	KindMissingDependency Kind = "missing_dependency"
	// KindFailedToConfigure marks a type whose construction kept failing transiently.
	KindFailedToConfigure Kind = "failed_to_configure"
	// KindCannotInitialize marks a type that failed with a non-retryable error.
	KindCannotInitialize Kind = "cannot_initialize"
	// KindConfiguration marks invalid framework usage, such as a rejected modification.
	KindConfiguration Kind = "configuration"
)

const (
	// PhaseEnumerate realizes enumeration values before any pass.
	PhaseEnumerate Phase = "enumerate"
	// PhaseInitialize runs the component, archetype and model passes.
	PhaseInitialize Phase = "initialize"
	// PhaseModify runs each module's modification once.
	PhaseModify Phase = "modify"
	// PhaseFinalize runs archetype finish hooks before the freeze.
	PhaseFinalize Phase = "finalize"
)

// Phases lists the load phases in the order they run.
var Phases = []Phase{PhaseEnumerate, PhaseInitialize, PhaseModify, PhaseFinalize}

type (
	// Kind classifies a failure.
	Kind string

	// Phase names the lifecycle phase a failure happened in.
	Phase string

	// Failure is one type that did not make it into the universe, or one
	// lifecycle hook that failed.
	Failure struct {
		Phase    Phase
		Category catalog.Category
		ID       universe.TypeID
		Module   string
		Kind     Kind
		// Attempts is the number of times the item was tried.
		Attempts int
		Err      error
		// Cycle is set when the item sits on a dependency cycle among unresolved items.
		Cycle []string
	}
)

// Transient reports whether the kind is retried by the scheduler.
func (k Kind) Transient() bool {
	return k == KindMissingDependency || k == KindFailedToConfigure
}

// Issue returns the catalog page explaining the kind.
func (k Kind) Issue() issue.Id {
	switch k {
	case KindMissingDependency:
		return issue.MissingDependencyId
	case KindFailedToConfigure:
		return issue.FailedToConfigureId
	case KindConfiguration:
		return issue.ModificationRejectedId
	default:
		return issue.CannotInitializeId
	}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s %s %s", f.Phase, f.Category, f.ID)
	if f.Module != "" {
		msg += " (module " + f.Module + ")"
	}
	msg += ": " + string(f.Kind)
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error { return f.Err }

// Chain returns the full causal chain of the failure.
func (f *Failure) Chain() []string { return issue.Chain(f.Err) }
