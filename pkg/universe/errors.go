// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrFrozen is returned by every registration attempted after Freeze for a
	// type that was not marked late-initializable.
	ErrFrozen = errors.New("universe is frozen")

	// ErrNotReady may be wrapped by content hooks to ask the loader to retry the
	// type in a later pass.
	ErrNotReady = errors.New("not ready")

	// ErrConfiguration is the sentinel for invalid framework configuration,
	// such as a modification touching a closed archetype.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAlreadyRegistered is returned when a type, key or identity is registered twice.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrNotAModel is returned by the builder for types that do not embed ModelBase.
	ErrNotAModel = errors.New("type does not embed universe.ModelBase")

	// ErrNoContract is returned by ExecuteContract when no contract links two component types.
	ErrNoContract = errors.New("no contract between components")
)

type (
	// MissingDependencyError reports that a dependency has not been initialized yet.
	// The loader treats it as transient and retries the dependent type.
	MissingDependencyError struct {
		Dependency TypeID
	}

	// FrozenError reports a registration attempted on a frozen universe.
	FrozenError struct {
		Type      reflect.Type
		Operation string
	}

	// ConfigurationError reports invalid framework usage. It matches
	// ErrConfiguration and, when set, the wrapped cause.
	ConfigurationError struct {
		Subject string
		Reason  string
		Cause   error
	}
)

// Error implements the error interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("dependency %s is not initialized", e.Dependency)
}

// Error implements the error interface.
func (e *FrozenError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Operation, typeName(e.Type), ErrFrozen)
}

// Unwrap returns ErrFrozen for errors.Is checks.
func (e *FrozenError) Unwrap() error { return ErrFrozen }

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Subject, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns ErrConfiguration and the cause, if any.
func (e *ConfigurationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Cause}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
