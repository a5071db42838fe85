// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"fmt"
	"slices"
)

// ComponentSet is an ordered, keyed set of components. The zero value is ready
// to use. It is not safe for concurrent mutation.
type ComponentSet struct {
	keys  []string
	byKey map[string]Component
}

// KeyOf returns the key a component is stored under.
func KeyOf(c Component) string {
	if k, ok := c.(Keyed); ok {
		if key := k.ComponentKey(); key != "" {
			return key
		}
	}
	return TypeOfValue(c).Name()
}

// Add attaches c. A component with the same key must not already be present.
func (s *ComponentSet) Add(c Component) error {
	if c == nil {
		return fmt.Errorf("add component: nil component")
	}
	key := KeyOf(c)
	if _, exists := s.byKey[key]; exists {
		return fmt.Errorf("component %q: %w", key, ErrAlreadyRegistered)
	}
	if s.byKey == nil {
		s.byKey = make(map[string]Component)
	}
	s.byKey[key] = c
	s.keys = append(s.keys, key)
	return nil
}

// Replace attaches c, replacing any component stored under the same key.
func (s *ComponentSet) Replace(c Component) error {
	if c == nil {
		return fmt.Errorf("replace component: nil component")
	}
	key := KeyOf(c)
	if _, exists := s.byKey[key]; exists {
		s.byKey[key] = c
		return nil
	}
	return s.Add(c)
}

// Remove detaches the component stored under key and reports whether one existed.
func (s *ComponentSet) Remove(key string) bool {
	if _, exists := s.byKey[key]; !exists {
		return false
	}
	delete(s.byKey, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	return true
}

// Get returns the component stored under key.
func (s *ComponentSet) Get(key string) (Component, bool) {
	c, ok := s.byKey[key]
	return c, ok
}

// Keys returns the component keys in insertion order.
func (s *ComponentSet) Keys() []string { return slices.Clone(s.keys) }

// Len returns the number of components.
func (s *ComponentSet) Len() int { return len(s.keys) }

// All returns the components in insertion order.
func (s *ComponentSet) All() []Component {
	out := make([]Component, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.byKey[k])
	}
	return out
}

// ComponentOf returns the first component in s of type C.
func ComponentOf[C Component](s *ComponentSet) (C, bool) {
	for _, k := range s.keys {
		if c, ok := s.byKey[k].(C); ok {
			return c, true
		}
	}
	var zero C
	return zero, false
}
