// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"fmt"
	"reflect"

	"github.com/loomkit/loom/pkg/universe"
)

const (
	// CategoryEnumeration is a fixed enumeration value.
	CategoryEnumeration Category = iota + 1
	// CategoryComponent is a modular data component.
	CategoryComponent
	// CategoryArchetype is a singleton factory for a model family.
	CategoryArchetype
	// CategoryModel is a data-model type.
	CategoryModel
	// CategoryModification is a per-module post-initialization hook.
	CategoryModification
)

var (
	modificationIface = reflect.TypeFor[universe.Modification]()
	lazyIface         = reflect.TypeFor[universe.LazyEnumeration]()

	// InitializationCategories lists the categories swept by each scheduler pass, in order.
	InitializationCategories = []Category{CategoryComponent, CategoryArchetype, CategoryModel}
)

// Category is the kind of loadable unit a type belongs to.
type Category int

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategoryEnumeration:
		return "enumeration"
	case CategoryComponent:
		return "component"
	case CategoryArchetype:
		return "archetype"
	case CategoryModel:
		return "model"
	case CategoryModification:
		return "modification"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Categorize returns the category of a declared struct type by its structure.
// Archetype is checked before Component, and Component before Model, since
// components are models too. Enumeration sets are recognized by EnumerationFields.
func Categorize(t reflect.Type) (Category, bool) {
	t = universe.Deref(t)
	if t == nil || t.Kind() != reflect.Struct {
		return 0, false
	}
	switch {
	case universe.IsArchetypeType(t):
		return CategoryArchetype, true
	case universe.IsComponentType(t):
		return CategoryComponent, true
	case universe.IsModelType(t):
		return CategoryModel, true
	case universe.Implements(t, modificationIface):
		return CategoryModification, true
	case len(EnumerationFields(t)) > 0:
		return CategoryEnumeration, true
	default:
		return 0, false
	}
}

// EnumerationFields returns the exported fields of t whose type implements
// universe.LazyEnumeration, in declaration order.
func EnumerationFields(t reflect.Type) []reflect.StructField {
	t = universe.Deref(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var fields []reflect.StructField
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		if f.Type.Implements(lazyIface) {
			fields = append(fields, f)
		}
	}
	return fields
}
