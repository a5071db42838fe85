// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/loomkit/loom/internal/report"
	"github.com/loomkit/loom/pkg/universe"
)

var (
	// ErrAlreadyLoaded is returned when Load is called twice on one Loader.
	ErrAlreadyLoaded = errors.New("loader already ran")

	// ErrNotLoaded is returned by InitializeLate before Load has run.
	ErrNotLoaded = errors.New("loader has not run")

	// ErrLateInitDenied is the sentinel matched by *LateInitError.
	ErrLateInitDenied = errors.New("late initialization denied")
)

type (
	// FatalError aborts a fail-fast load. It carries the failure that caused it.
	FatalError struct {
		Failure report.Failure
	}

	// StructuralError reports a type that can never be constructed as declared,
	// such as an archetype constructor with an unsupported shape.
	StructuralError struct {
		Type   reflect.Type
		Reason string
	}

	// PanicError reports a recovered panic raised by content code.
	PanicError struct {
		Value any
		Stack []byte
	}

	// LateInitError reports a refused InitializeLate call.
	LateInitError struct {
		Type   reflect.Type
		Reason string
	}
)

// Error implements the error interface.
func (e *FatalError) Error() string {
	return "load aborted: " + e.Failure.Error()
}

// Unwrap returns the failure's underlying error.
func (e *FatalError) Unwrap() error { return e.Failure.Err }

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Error implements the error interface.
func (e *LateInitError) Error() string {
	return fmt.Sprintf("late initialization of %s denied: %s", e.Type, e.Reason)
}

// Unwrap returns ErrLateInitDenied.
func (e *LateInitError) Unwrap() error { return ErrLateInitDenied }

// transient reports whether err asks for another attempt. Structural errors
// and panics are never transient, whatever they wrap.
func transient(err error) bool {
	var (
		structural *StructuralError
		panicked   *PanicError
		missing    *universe.MissingDependencyError
	)
	if errors.As(err, &structural) || errors.As(err, &panicked) {
		return false
	}
	return errors.As(err, &missing) || errors.Is(err, universe.ErrNotReady)
}

// transientKind maps a transient error to its failure kind.
func transientKind(err error) report.Kind {
	var missing *universe.MissingDependencyError
	if errors.As(err, &missing) {
		return report.KindMissingDependency
	}
	return report.KindFailedToConfigure
}

func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
