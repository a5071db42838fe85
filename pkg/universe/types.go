// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"fmt"
	"reflect"
)

type (
	// Identity is the token an archetype is registered under. The zero value means
	// "use the default identity", which RegisterArchetype derives from the type.
	Identity struct {
		// Name is the human-readable archetype name (e.g. "Sword").
		Name string
		// Key is the unique registry key (e.g. "arms.Sword").
		Key string
	}

	// TypeID is the stable handle of one loadable unit. Member is empty for
	// ordinary types and holds the field name for enumeration values.
	TypeID struct {
		Type   reflect.Type
		Member string
	}

	// Params carries named values into the builder. Keys are case-sensitive.
	Params map[string]any

	// Model is implemented by every type that embeds ModelBase.
	Model interface {
		isModel()
	}

	// Component is implemented by every type that embeds ComponentBase.
	Component interface {
		Model
		isComponent()
	}

	// Archetype is implemented by every type that embeds ArchetypeBase and names
	// the model type it produces.
	Archetype interface {
		isArchetype()
		ArchetypeID() Identity
		ModelType() reflect.Type
	}

	// Enumeration is a fixed, named value registered by realizing a Lazy field.
	Enumeration interface {
		EnumKey() string
	}

	// Modification is a per-module hook that runs once after initialization and
	// may reshape archetypes that are open to external configuration.
	Modification interface {
		Initialize(m *Modifier) error
	}

	// Finisher is implemented by archetypes that need a finishing pass once every
	// type has been initialized and modifications have run.
	Finisher interface {
		Finish(u *Universe) error
	}

	// Brancher is implemented by archetypes whose produced model differs from the
	// nominal one returned by ModelType.
	Brancher interface {
		BranchModel() reflect.Type
	}

	// Configurable is implemented by archetypes that accept component changes from
	// Modification units.
	Configurable interface {
		AllowsExternalConfiguration() bool
	}

	// FamilyMember is implemented by models produced by a specific archetype
	// family. ArchetypeFamily returns the family's root archetype type.
	FamilyMember interface {
		ArchetypeFamily() reflect.Type
	}

	// ComponentHolder is implemented by anything that carries a ComponentSet.
	ComponentHolder interface {
		Components() *ComponentSet
	}

	// Keyed lets a component choose its registry key. The default key is the
	// component's type name.
	Keyed interface {
		ComponentKey() string
	}

	// Initializer is called by the builder right after a model is allocated.
	Initializer interface {
		Initialize(params Params) error
	}

	// Validator is called by the builder once a model is fully built.
	Validator interface {
		Validate() error
	}

	// Maker lets an archetype take over model construction entirely. The result
	// is still validated by the builder.
	Maker interface {
		Make(params Params) (Model, error)
	}

	// ModelBase is embedded by data-model types.
	ModelBase struct {
		components ComponentSet
	}

	// ComponentBase is embedded by component types.
	ComponentBase struct {
		ModelBase
	}

	// ArchetypeBase is embedded by archetype types.
	ArchetypeBase struct {
		id         Identity
		components ComponentSet
	}
)

func (*ModelBase) isModel() {}

// Components returns the components attached to the model.
func (m *ModelBase) Components() *ComponentSet { return &m.components }

func (*ComponentBase) isComponent() {}

// WithIdentity returns an ArchetypeBase bound to id. Archetype constructors that
// accept an identity token use it to honor a non-nil token.
func WithIdentity(id Identity) ArchetypeBase {
	return ArchetypeBase{id: id}
}

func (*ArchetypeBase) isArchetype() {}

// ArchetypeID returns the identity the archetype is registered under.
func (a *ArchetypeBase) ArchetypeID() Identity { return a.id }

// Components returns the components attached to the archetype.
func (a *ArchetypeBase) Components() *ComponentSet { return &a.components }

func (a *ArchetypeBase) bindIdentity(id Identity) {
	if a.id.IsZero() {
		a.id = id
	}
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool { return id.Name == "" && id.Key == "" }

// String returns the identity key, falling back to the name.
func (id Identity) String() string {
	if id.Key != "" {
		return id.Key
	}
	return id.Name
}

// ID returns the TypeID of an ordinary type.
func ID(t reflect.Type) TypeID { return TypeID{Type: Deref(t)} }

// IDOf returns the TypeID of T.
func IDOf[T any]() TypeID { return ID(reflect.TypeFor[T]()) }

// String renders the id as "pkg.Type" or "pkg.Type.Member".
func (id TypeID) String() string {
	if id.Type == nil {
		return "<nil>"
	}
	if id.Member != "" {
		return fmt.Sprintf("%s.%s", id.Type.String(), id.Member)
	}
	return id.Type.String()
}

// IsZero reports whether the id has no type.
func (id TypeID) IsZero() bool { return id.Type == nil }

// Param returns params[key] narrowed to T, or def when absent or of another type.
func Param[T any](params Params, key string, def T) T {
	v, ok := params[key]
	if !ok {
		return def
	}
	typed, ok := v.(T)
	if !ok {
		return def
	}
	return typed
}
