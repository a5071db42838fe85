// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"fmt"
	"reflect"
)

// DefaultFactory is the universe's own archetype for models that declare no
// archetype family. Obtain one with Universe.DefaultFactory.
type DefaultFactory struct {
	ArchetypeBase
	model reflect.Type
}

// ModelType returns the model type the factory builds.
func (f *DefaultFactory) ModelType() reflect.Type { return f.model }

// DefaultFactoryType is the reflect.Type of DefaultFactory. A model whose
// ArchetypeFamily returns it is built by the default factory and records no root.
var DefaultFactoryType = reflect.TypeFor[DefaultFactory]()

// Build allocates a model of type t, runs its Initializer with params and then
// its Validator.
func Build(t reflect.Type, params Params) (Model, error) {
	t = Deref(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("build %s: not a struct type", typeName(t))
	}
	v := reflect.New(t).Interface()
	m, ok := v.(Model)
	if !ok {
		return nil, fmt.Errorf("build %s: %w", t, ErrNotAModel)
	}
	if in, ok := v.(Initializer); ok {
		if err := in.Initialize(params); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", t, err)
		}
	}
	return m, validate(m)
}

// Make builds a model from archetype a. Archetypes implementing Maker construct
// the model themselves; otherwise the archetype's produced model type is built.
func (u *Universe) Make(a Archetype, params Params) (Model, error) {
	if mk, ok := a.(Maker); ok {
		m, err := mk.Make(params)
		if err != nil {
			return nil, fmt.Errorf("make %s: %w", a.ArchetypeID(), err)
		}
		if m == nil {
			return nil, fmt.Errorf("make %s: archetype returned no model", a.ArchetypeID())
		}
		return m, validate(m)
	}
	t := u.ProducedModel(a)
	if t == nil {
		return nil, fmt.Errorf("make %s: archetype has no model type", a.ArchetypeID())
	}
	return Build(t, params)
}

func validate(m Model) error {
	if v, ok := m.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate %s: %w", TypeOfValue(m), err)
		}
	}
	return nil
}

// ArchetypeOf returns the registered archetype of type A. When A is not registered
// yet the error is a *MissingDependencyError, which the loader retries.
func ArchetypeOf[A Archetype](u *Universe) (A, error) {
	var zero A
	t := Deref(reflect.TypeFor[A]())
	a, ok := u.Archetype(t)
	if !ok {
		return zero, &MissingDependencyError{Dependency: ID(t)}
	}
	typed, ok := a.(A)
	if !ok {
		return zero, fmt.Errorf("archetype %s has type %T", t, a)
	}
	return typed, nil
}

// EnumerationOf returns the value of enumeration type E registered under key.
func EnumerationOf[E Enumeration](u *Universe, key string) (E, error) {
	var zero E
	t := Deref(reflect.TypeFor[E]())
	e, ok := u.Enumeration(t, key)
	if !ok {
		return zero, &MissingDependencyError{Dependency: TypeID{Type: t, Member: key}}
	}
	typed, ok := e.(E)
	if !ok {
		return zero, fmt.Errorf("enumeration %s %q has type %T", t, key, e)
	}
	return typed, nil
}

// As narrows v to T.
func As[T any](v any) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%T is not %s", v, reflect.TypeFor[T]())
	}
	return typed, nil
}

// Require returns a *MissingDependencyError unless every type is initialized.
func (u *Universe) Require(types ...reflect.Type) error {
	for _, t := range types {
		if id := ID(t); !u.IsInitialized(id) {
			return &MissingDependencyError{Dependency: id}
		}
	}
	return nil
}
