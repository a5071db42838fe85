// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"reflect"
	"slices"
)

var (
	frameworkPkgPath = reflect.TypeFor[ModelBase]().PkgPath()

	modelIface       = reflect.TypeFor[Model]()
	componentIface   = reflect.TypeFor[Component]()
	archetypeIface   = reflect.TypeFor[Archetype]()
	enumerationIface = reflect.TypeFor[Enumeration]()
)

// Deref strips pointer indirections from t.
func Deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeOfValue returns the dereferenced dynamic type of v.
func TypeOfValue(v any) reflect.Type {
	return Deref(reflect.TypeOf(v))
}

// Lineage returns the embedding chain of t, most-ancestral first and ending with
// t itself. Each step follows the first anonymous struct field. Framework base
// types (ModelBase and friends) are part of the chain.
func Lineage(t reflect.Type) []reflect.Type {
	t = Deref(t)
	var chain []reflect.Type
	seen := make(map[reflect.Type]bool)
	for t != nil && t.Kind() == reflect.Struct && !seen[t] {
		seen[t] = true
		chain = append(chain, t)
		t = firstEmbedded(t)
	}
	slices.Reverse(chain)
	return chain
}

// IsFrameworkType reports whether t is one of this package's base types.
func IsFrameworkType(t reflect.Type) bool {
	t = Deref(t)
	return t != nil && t.PkgPath() == frameworkPkgPath
}

// BaseModelType returns the most-ancestral non-framework type in t's lineage that
// is still a Model. For a component this is its structural base component.
func BaseModelType(t reflect.Type) reflect.Type {
	return firstInLineage(t, modelIface)
}

// ArchetypeCollection returns the root archetype type of t's family: the
// most-ancestral non-framework archetype in its lineage.
func ArchetypeCollection(t reflect.Type) reflect.Type {
	return firstInLineage(t, archetypeIface)
}

// Implements reports whether *t (or t for interface and pointer types) implements iface.
func Implements(t, iface reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Struct {
		return reflect.PointerTo(t).Implements(iface)
	}
	return t.Implements(iface)
}

// IsModelType reports whether *t is a Model.
func IsModelType(t reflect.Type) bool { return Implements(Deref(t), modelIface) }

// IsComponentType reports whether *t is a Component.
func IsComponentType(t reflect.Type) bool { return Implements(Deref(t), componentIface) }

// IsArchetypeType reports whether *t is an Archetype.
func IsArchetypeType(t reflect.Type) bool { return Implements(Deref(t), archetypeIface) }

// IsEnumerationType reports whether t (or *t) is an Enumeration.
func IsEnumerationType(t reflect.Type) bool {
	return t != nil && (t.Implements(enumerationIface) || Implements(Deref(t), enumerationIface))
}

func firstInLineage(t, iface reflect.Type) reflect.Type {
	for _, anc := range Lineage(t) {
		if IsFrameworkType(anc) {
			continue
		}
		if Implements(anc, iface) {
			return anc
		}
	}
	return Deref(t)
}

func firstEmbedded(t reflect.Type) reflect.Type {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := Deref(f.Type)
		if ft.Kind() == reflect.Struct {
			return ft
		}
	}
	return nil
}
