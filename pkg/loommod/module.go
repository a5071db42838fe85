// SPDX-License-Identifier: MPL-2.0

package loommod

import (
	"reflect"
	"slices"

	"github.com/loomkit/loom/pkg/universe"
)

// Exclusion controls whether a declaration and its descendants become candidates.
type Exclusion int

const (
	// ExcludeNone keeps the declaration.
	ExcludeNone Exclusion = iota
	// ExcludeSelf drops the declaration only.
	ExcludeSelf
	// ExcludeSelfAndDescendants drops the declaration and every type embedding it.
	ExcludeSelfAndDescendants
)

type (
	// Module is a unit of content. Name must be unique among loaded modules.
	Module interface {
		Name() string
		Declare(m *Manifest)
	}

	// Manifest collects a module's declarations.
	Manifest struct {
		module string
		decls  []Declaration
	}

	// Declaration describes one type to the loader.
	Declaration struct {
		// Type is the declared struct type.
		Type reflect.Type
		// Values is the enumeration set (a pointer to a struct of Lazy fields).
		// It is nil for every other kind of declaration.
		Values any
		// Abstract declarations are visible to lineage lookups but never constructed.
		Abstract bool
		// Exclusion removes the type (and optionally descendants) from loading.
		Exclusion Exclusion
		// DependsOn lists types that must be initialized in an earlier pass.
		DependsOn []reflect.Type
		// AllowLateInit keeps the type registrable after the universe is frozen.
		AllowLateInit bool
		// Bootstrap runs once, the first time this type or a descendant is constructed.
		Bootstrap func(u *universe.Universe) error
		// Setup runs before each construction attempt of this type.
		Setup func(u *universe.Universe) error
		// New constructs an archetype. Accepted shapes are func() A and
		// func(*universe.Identity) A where A implements universe.Archetype.
		New any
		// TestParams are handed to the builder for the validation build.
		TestParams universe.Params
	}

	// Option configures a Declaration.
	Option func(*Declaration)

	funcModule struct {
		name    string
		declare func(m *Manifest)
	}
)

// NewManifest returns an empty manifest for module.
func NewManifest(module string) *Manifest {
	return &Manifest{module: module}
}

// Module returns the name of the module the manifest belongs to.
func (m *Manifest) Module() string { return m.module }

// Add appends declarations in order.
func (m *Manifest) Add(decls ...Declaration) {
	m.decls = append(m.decls, decls...)
}

// Declarations returns the declarations in the order they were added.
func (m *Manifest) Declarations() []Declaration {
	return slices.Clone(m.decls)
}

// Declare declares type T.
func Declare[T any](opts ...Option) Declaration {
	return newDeclaration(universe.Deref(reflect.TypeFor[T]()), nil, opts)
}

// DeclareType declares t.
func DeclareType(t reflect.Type, opts ...Option) Declaration {
	return newDeclaration(universe.Deref(t), nil, opts)
}

// DeclareValues declares an enumeration set. set must be a pointer to a struct
// whose exported fields are *universe.Lazy values.
func DeclareValues(set any, opts ...Option) Declaration {
	return newDeclaration(universe.TypeOfValue(set), set, opts)
}

func newDeclaration(t reflect.Type, values any, opts []Option) Declaration {
	d := Declaration{Type: t, Values: values}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Abstract marks the declaration as never constructed.
func Abstract() Option {
	return func(d *Declaration) { d.Abstract = true }
}

// Exclude sets the exclusion mode.
func Exclude(e Exclusion) Option {
	return func(d *Declaration) { d.Exclusion = e }
}

// DependsOn adds explicit dependencies.
func DependsOn(types ...reflect.Type) Option {
	return func(d *Declaration) {
		for _, t := range types {
			d.DependsOn = append(d.DependsOn, universe.Deref(t))
		}
	}
}

// After adds T as an explicit dependency.
func After[T any]() Option {
	return DependsOn(reflect.TypeFor[T]())
}

// AllowLateInit keeps the type registrable after freeze.
func AllowLateInit() Option {
	return func(d *Declaration) { d.AllowLateInit = true }
}

// WithBootstrap sets the once-per-type bootstrap hook.
func WithBootstrap(fn func(u *universe.Universe) error) Option {
	return func(d *Declaration) { d.Bootstrap = fn }
}

// WithSetup sets the per-attempt setup hook.
func WithSetup(fn func(u *universe.Universe) error) Option {
	return func(d *Declaration) { d.Setup = fn }
}

// WithConstructor sets the archetype constructor.
func WithConstructor(fn any) Option {
	return func(d *Declaration) { d.New = fn }
}

// WithTestParams sets the parameters of the validation build.
func WithTestParams(p universe.Params) Option {
	return func(d *Declaration) { d.TestParams = p }
}

// New returns a Module backed by a declare function.
func New(name string, declare func(m *Manifest)) Module {
	return &funcModule{name: name, declare: declare}
}

func (f *funcModule) Name() string { return f.name }

func (f *funcModule) Declare(m *Manifest) {
	if f.declare != nil {
		f.declare(m)
	}
}

// Collect runs mod.Declare on a fresh manifest and returns the declarations.
func Collect(mod Module) []Declaration {
	m := NewManifest(mod.Name())
	mod.Declare(m)
	return m.Declarations()
}

// Names returns the names of mods in order.
func Names(mods []Module) []string {
	names := make([]string, len(mods))
	for i, mod := range mods {
		names[i] = mod.Name()
	}
	return names
}
