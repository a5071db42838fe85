// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"fmt"
	"reflect"
)

// Modifier is handed to a Modification. Every mutation is gated: the archetype
// must be registered and initialized, must accept external configuration and the
// universe must not be frozen. Violations return a *ConfigurationError.
type Modifier struct {
	u      *Universe
	module string
}

// NewModifier returns a Modifier acting on behalf of module.
func NewModifier(u *Universe, module string) *Modifier {
	return &Modifier{u: u, module: module}
}

// Universe returns the universe being modified.
func (m *Modifier) Universe() *Universe { return m.u }

// Module returns the name of the module the modification belongs to.
func (m *Modifier) Module() string { return m.module }

// Archetype returns the initialized archetype of type t.
func (m *Modifier) Archetype(t reflect.Type) (Archetype, error) {
	a, ok := m.u.Archetype(t)
	if !ok || !m.u.IsInitialized(ID(t)) {
		return nil, &MissingDependencyError{Dependency: ID(t)}
	}
	return a, nil
}

// AddComponent attaches c to archetype a.
func (m *Modifier) AddComponent(a Archetype, c Component) error {
	set, err := m.gate(a, "add component to")
	if err != nil {
		return err
	}
	if err := set.Add(c); err != nil {
		return m.reject(a, "add component to", err)
	}
	return nil
}

// RemoveComponent detaches the component stored under key from archetype a.
func (m *Modifier) RemoveComponent(a Archetype, key string) error {
	set, err := m.gate(a, "remove component from")
	if err != nil {
		return err
	}
	if !set.Remove(key) {
		return m.reject(a, "remove component from", fmt.Errorf("no component %q", key))
	}
	return nil
}

// ReplaceComponent attaches c to archetype a, replacing the component with the same key.
func (m *Modifier) ReplaceComponent(a Archetype, c Component) error {
	set, err := m.gate(a, "replace component of")
	if err != nil {
		return err
	}
	if err := set.Replace(c); err != nil {
		return m.reject(a, "replace component of", err)
	}
	return nil
}

func (m *Modifier) gate(a Archetype, op string) (*ComponentSet, error) {
	if a == nil {
		return nil, m.reject(nil, op, fmt.Errorf("nil archetype"))
	}
	if m.u.Frozen() {
		return nil, m.reject(a, op, ErrFrozen)
	}
	t := TypeOfValue(a)
	if registered, ok := m.u.Archetype(t); !ok || registered != a || !m.u.IsInitialized(ID(t)) {
		return nil, m.reject(a, op, fmt.Errorf("archetype is not initialized"))
	}
	cfg, ok := a.(Configurable)
	if !ok || !cfg.AllowsExternalConfiguration() {
		return nil, m.reject(a, op, fmt.Errorf("archetype does not allow external configuration"))
	}
	holder, ok := a.(ComponentHolder)
	if !ok {
		return nil, m.reject(a, op, fmt.Errorf("archetype holds no components"))
	}
	return holder.Components(), nil
}

func (m *Modifier) reject(a Archetype, op string, cause error) error {
	subject := "modification of module " + m.module
	reason := "cannot " + op + " archetype"
	if a != nil {
		reason += " " + a.ArchetypeID().String()
	}
	return &ConfigurationError{Subject: subject, Reason: reason, Cause: cause}
}
