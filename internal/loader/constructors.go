// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/pkg/universe"
)

// contractPrefix marks component methods registered as contracts.
const contractPrefix = "Contract"

var (
	identityPtrType = reflect.TypeFor[*universe.Identity]()
	archetypeIface  = reflect.TypeFor[universe.Archetype]()
	componentIface  = reflect.TypeFor[universe.Component]()
	errorIface      = reflect.TypeFor[error]()
)

type contract struct {
	partner reflect.Type
	method  reflect.Method
}

// construct runs the category constructor for d. Panics raised by content code
// come back as *PanicError.
func (l *Loader) construct(d *catalog.Descriptor) error {
	return safely(func() error {
		switch d.Category {
		case catalog.CategoryComponent:
			return l.constructComponent(d)
		case catalog.CategoryArchetype:
			return l.constructArchetype(d)
		case catalog.CategoryModel:
			return l.constructModel(d)
		default:
			return &StructuralError{Type: d.ID.Type, Reason: fmt.Sprintf("%s candidates are not constructed", d.Category)}
		}
	})
}

// prepare runs the lineage bootstrap and then the type's setup hook.
func (l *Loader) prepare(d *catalog.Descriptor) error {
	t := d.ID.Type
	if err := l.bootstrap(t); err != nil {
		return err
	}
	if setup := d.Declaration.Setup; setup != nil {
		if err := setup(l.universe); err != nil {
			return fmt.Errorf("setup %s: %w", t, err)
		}
	}
	return nil
}

// bootstrap runs the bootstrap hook of every type in t's lineage, ancestors
// first. A type is bootstrapped at most once per Loader; a failed hook is not
// recorded and runs again on the next attempt.
func (l *Loader) bootstrap(t reflect.Type) error {
	for _, anc := range universe.Lineage(t) {
		if l.bootstrapped[anc] {
			continue
		}
		if decl, ok := l.catalog.Declaration(anc); ok && decl.Bootstrap != nil {
			if err := decl.Bootstrap(l.universe); err != nil {
				return fmt.Errorf("bootstrap %s: %w", anc, err)
			}
			l.logger.Debug("bootstrapped", "type", anc)
		}
		l.bootstrapped[anc] = true
	}
	return nil
}

func (l *Loader) constructComponent(d *catalog.Descriptor) error {
	t := d.ID.Type
	if err := l.prepare(d); err != nil {
		return err
	}
	inst, err := universe.Build(t, d.Declaration.TestParams)
	if err != nil {
		return err
	}
	c, ok := inst.(universe.Component)
	if !ok {
		return &StructuralError{Type: t, Reason: "does not embed universe.ComponentBase"}
	}
	if err := l.universe.RegisterModelBaseType(t, universe.BaseModelType(t)); err != nil {
		return err
	}
	if err := l.universe.RegisterComponentKey(universe.KeyOf(c), t); err != nil {
		return err
	}
	for _, ct := range contractMethods(t) {
		if err := l.universe.RegisterContract(t, ct.partner, ct.method); err != nil {
			return err
		}
	}
	return nil
}

// contractMethods finds the Contract* methods of *t that take one component
// pointer and return an error.
func contractMethods(t reflect.Type) []contract {
	pt := reflect.PointerTo(t)
	var out []contract
	for i := range pt.NumMethod() {
		m := pt.Method(i)
		if !strings.HasPrefix(m.Name, contractPrefix) {
			continue
		}
		// In(0) is the receiver.
		mt := m.Type
		if mt.NumIn() != 2 || mt.NumOut() != 1 || mt.Out(0) != errorIface {
			continue
		}
		partner := mt.In(1)
		if partner.Kind() != reflect.Pointer || !partner.Implements(componentIface) {
			continue
		}
		out = append(out, contract{partner: partner.Elem(), method: m})
	}
	return out
}

func (l *Loader) constructArchetype(d *catalog.Descriptor) error {
	t := d.ID.Type
	if err := l.prepare(d); err != nil {
		return err
	}
	a, err := invokeConstructor(t, d.Declaration.New)
	if err != nil {
		return err
	}
	if err := l.universe.RegisterArchetype(a, universe.ArchetypeCollection(t)); err != nil {
		return err
	}
	// A panicking test build must roll back too.
	if err := safely(func() error { return l.completeArchetype(t, a, d) }); err != nil {
		l.universe.RemoveArchetype(t)
		return err
	}
	return nil
}

// completeArchetype resolves the produced model, applying a branch directive,
// and proves the archetype can build a valid instance.
func (l *Loader) completeArchetype(t reflect.Type, a universe.Archetype, d *catalog.Descriptor) error {
	model := universe.Deref(a.ModelType())
	if b, ok := a.(universe.Brancher); ok {
		if branch := universe.Deref(b.BranchModel()); branch != nil {
			l.logger.Debug("archetype branched", "archetype", t, "from", model, "to", branch)
			model = branch
		}
	}
	if model == nil || !universe.IsModelType(model) {
		return &StructuralError{Type: t, Reason: fmt.Sprintf("produced type %v is not a model", model)}
	}
	if err := l.universe.RecordProducedModel(t, model); err != nil {
		return err
	}
	if _, err := l.universe.Make(a, d.Declaration.TestParams); err != nil {
		return fmt.Errorf("test build of %s: %w", t, err)
	}
	return nil
}

// invokeConstructor calls an archetype constructor of shape func() A or
// func(*universe.Identity) A and checks that it built t. The identity token is
// always nil, which asks for the default identity.
func invokeConstructor(t reflect.Type, ctor any) (universe.Archetype, error) {
	if ctor == nil {
		return nil, &StructuralError{Type: t, Reason: "no constructor declared"}
	}
	fn := reflect.ValueOf(ctor)
	ft := fn.Type()
	if ft.Kind() != reflect.Func || ft.IsVariadic() || ft.NumOut() != 1 || !ft.Out(0).Implements(archetypeIface) {
		return nil, &StructuralError{Type: t, Reason: fmt.Sprintf("constructor %s must be func() A or func(*universe.Identity) A", ft)}
	}
	var args []reflect.Value
	switch {
	case ft.NumIn() == 0:
	case ft.NumIn() == 1 && ft.In(0) == identityPtrType:
		args = []reflect.Value{reflect.Zero(identityPtrType)}
	default:
		return nil, &StructuralError{Type: t, Reason: fmt.Sprintf("constructor %s takes unsupported parameters", ft)}
	}
	out := fn.Call(args)[0]
	if (out.Kind() == reflect.Pointer || out.Kind() == reflect.Interface) && out.IsNil() {
		return nil, &StructuralError{Type: t, Reason: "constructor returned nil"}
	}
	a, ok := out.Interface().(universe.Archetype)
	if !ok {
		return nil, &StructuralError{Type: t, Reason: "constructor did not return an archetype"}
	}
	if got := universe.TypeOfValue(a); got != t {
		return nil, &StructuralError{Type: t, Reason: fmt.Sprintf("constructor built %s", got)}
	}
	return a, nil
}

func (l *Loader) constructModel(d *catalog.Descriptor) error {
	t := d.ID.Type
	if err := l.prepare(d); err != nil {
		return err
	}
	var root reflect.Type
	if fm, ok := reflect.New(t).Interface().(universe.FamilyMember); ok {
		root = universe.Deref(fm.ArchetypeFamily())
	}
	params := d.Declaration.TestParams
	if root == nil || root == universe.DefaultFactoryType {
		if _, err := l.universe.Make(l.universe.DefaultFactory(t), params); err != nil {
			return err
		}
		return l.universe.RegisterModelBaseType(t, universe.BaseModelType(t))
	}

	a := l.familyArchetype(root, t)
	if a == nil {
		return &universe.MissingDependencyError{Dependency: universe.ID(root)}
	}
	var err error
	if l.universe.ProducedModel(a) == t {
		_, err = l.universe.Make(a, params)
	} else {
		_, err = universe.Build(t, params)
	}
	if err != nil {
		return err
	}
	if err := l.universe.RecordArchetypeRoot(t, root); err != nil {
		return err
	}
	return l.universe.RegisterModelBaseType(t, universe.BaseModelType(t))
}

// familyArchetype picks the family archetype producing model, or else the
// family's first archetype.
func (l *Loader) familyArchetype(root, model reflect.Type) universe.Archetype {
	archs := l.universe.ArchetypesIn(root)
	for _, a := range archs {
		if l.universe.ProducedModel(a) == model {
			return a
		}
	}
	if len(archs) > 0 {
		return archs[0]
	}
	return nil
}
