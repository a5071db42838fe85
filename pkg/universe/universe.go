// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
)

type contractKey [2]reflect.Type

// Universe is the shared registry a load populates. It is safe for concurrent use.
type Universe struct {
	mu     sync.RWMutex
	name   string
	frozen bool

	late        map[reflect.Type]bool
	initialized map[TypeID]bool

	archetypes  map[reflect.Type]Archetype
	identities  map[string]Archetype
	collections map[reflect.Type][]Archetype
	produced    map[reflect.Type]reflect.Type
	roots       map[reflect.Type]reflect.Type
	factories   map[reflect.Type]*DefaultFactory

	modelBases    map[reflect.Type]reflect.Type
	componentKeys map[string]reflect.Type

	enumerations map[reflect.Type][]Enumeration
	enumKeys     map[reflect.Type]map[string]Enumeration

	contracts map[contractKey]reflect.Method
}

// New creates an empty universe.
func New(name string) *Universe {
	return &Universe{
		name:          name,
		late:          make(map[reflect.Type]bool),
		initialized:   make(map[TypeID]bool),
		archetypes:    make(map[reflect.Type]Archetype),
		identities:    make(map[string]Archetype),
		collections:   make(map[reflect.Type][]Archetype),
		produced:      make(map[reflect.Type]reflect.Type),
		roots:         make(map[reflect.Type]reflect.Type),
		factories:     make(map[reflect.Type]*DefaultFactory),
		modelBases:    make(map[reflect.Type]reflect.Type),
		componentKeys: make(map[string]reflect.Type),
		enumerations:  make(map[reflect.Type][]Enumeration),
		enumKeys:      make(map[reflect.Type]map[string]Enumeration),
		contracts:     make(map[contractKey]reflect.Method),
	}
}

// Name returns the universe name.
func (u *Universe) Name() string { return u.name }

// writable must be called with u.mu held.
func (u *Universe) writable(t reflect.Type, op string) error {
	if u.frozen && !u.late[Deref(t)] {
		return &FrozenError{Type: t, Operation: op}
	}
	return nil
}

// AllowLateInitialization marks t as registrable after Freeze. It must be called
// before the universe is frozen.
func (u *Universe) AllowLateInitialization(t reflect.Type) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.frozen {
		return &FrozenError{Type: t, Operation: "allow late initialization of"}
	}
	u.late[Deref(t)] = true
	return nil
}

// RegisterArchetype registers the singleton archetype a under collection, the
// root type of its family. An archetype without an identity receives the default
// identity derived from its type.
func (u *Universe) RegisterArchetype(a Archetype, collection reflect.Type) error {
	t := TypeOfValue(a)
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(t, "register archetype"); err != nil {
		return err
	}
	if _, exists := u.archetypes[t]; exists {
		return fmt.Errorf("archetype %s: %w", t, ErrAlreadyRegistered)
	}
	if b, ok := a.(interface{ bindIdentity(Identity) }); ok {
		b.bindIdentity(DefaultIdentity(t))
	}
	key := a.ArchetypeID().String()
	if key == "" {
		return fmt.Errorf("archetype %s has an empty identity", t)
	}
	if other, exists := u.identities[key]; exists {
		return fmt.Errorf("identity %q of %s already used by %s: %w", key, t, TypeOfValue(other), ErrAlreadyRegistered)
	}
	collection = Deref(collection)
	if collection == nil {
		collection = t
	}
	u.archetypes[t] = a
	u.identities[key] = a
	u.collections[collection] = append(u.collections[collection], a)
	return nil
}

// RemoveArchetype undoes RegisterArchetype. The loader uses it to roll back an
// archetype whose test build failed, so a later pass can register it again.
func (u *Universe) RemoveArchetype(t reflect.Type) {
	t = Deref(t)
	u.mu.Lock()
	defer u.mu.Unlock()
	a, ok := u.archetypes[t]
	if !ok {
		return
	}
	delete(u.archetypes, t)
	delete(u.identities, a.ArchetypeID().String())
	delete(u.produced, t)
	for c, list := range u.collections {
		u.collections[c] = slices.DeleteFunc(list, func(x Archetype) bool { return x == a })
		if len(u.collections[c]) == 0 {
			delete(u.collections, c)
		}
	}
}

// RecordProducedModel records the concrete model type archetype t produces.
func (u *Universe) RecordProducedModel(archetype, model reflect.Type) error {
	archetype, model = Deref(archetype), Deref(model)
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(archetype, "record produced model of"); err != nil {
		return err
	}
	u.produced[archetype] = model
	return nil
}

// RecordArchetypeRoot records the archetype family root of a model type.
func (u *Universe) RecordArchetypeRoot(model, root reflect.Type) error {
	model, root = Deref(model), Deref(root)
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(model, "record archetype root of"); err != nil {
		return err
	}
	u.roots[model] = root
	return nil
}

// RegisterModelBaseType records the structural base type of a model or component.
func (u *Universe) RegisterModelBaseType(t, base reflect.Type) error {
	t, base = Deref(t), Deref(base)
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(t, "register base type of"); err != nil {
		return err
	}
	u.modelBases[t] = base
	return nil
}

// RegisterComponentKey binds a component key to its type. Rebinding a key to the
// same type is a no-op.
func (u *Universe) RegisterComponentKey(key string, t reflect.Type) error {
	t = Deref(t)
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(t, "register component key of"); err != nil {
		return err
	}
	if existing, ok := u.componentKeys[key]; ok && existing != t {
		return fmt.Errorf("component key %q of %s already bound to %s: %w", key, t, existing, ErrAlreadyRegistered)
	}
	u.componentKeys[key] = t
	return nil
}

// RegisterEnumeration registers an enumeration value under its key.
func (u *Universe) RegisterEnumeration(e Enumeration) error {
	t := TypeOfValue(e)
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(t, "register enumeration"); err != nil {
		return err
	}
	key := e.EnumKey()
	if key == "" {
		return fmt.Errorf("enumeration of type %s has an empty key", t)
	}
	if _, exists := u.enumKeys[t][key]; exists {
		return fmt.Errorf("enumeration %s %q: %w", t, key, ErrAlreadyRegistered)
	}
	if u.enumKeys[t] == nil {
		u.enumKeys[t] = make(map[string]Enumeration)
	}
	u.enumKeys[t][key] = e
	u.enumerations[t] = append(u.enumerations[t], e)
	return nil
}

// RegisterContract caches method m as the contract between component types a and b.
func (u *Universe) RegisterContract(a, b reflect.Type, m reflect.Method) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(a, "register contract of"); err != nil {
		return err
	}
	u.contracts[contractKey{Deref(a), Deref(b)}] = m
	return nil
}

// MarkInitialized records id as initialized.
func (u *Universe) MarkInitialized(id TypeID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.writable(id.Type, "mark initialized"); err != nil {
		return err
	}
	u.initialized[id] = true
	return nil
}

// IsInitialized reports whether id has been committed as initialized.
func (u *Universe) IsInitialized(id TypeID) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.initialized[id]
}

// Initialized returns every initialized id, sorted by name.
func (u *Universe) Initialized() []TypeID {
	u.mu.RLock()
	ids := make([]TypeID, 0, len(u.initialized))
	for id := range u.initialized {
		ids = append(ids, id)
	}
	u.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Freeze seals the universe. It is idempotent.
func (u *Universe) Freeze() {
	u.mu.Lock()
	u.frozen = true
	u.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (u *Universe) Frozen() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.frozen
}

// Archetype returns the archetype registered for type t.
func (u *Universe) Archetype(t reflect.Type) (Archetype, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	a, ok := u.archetypes[Deref(t)]
	return a, ok
}

// ArchetypeByIdentity returns the archetype registered under the identity key.
func (u *Universe) ArchetypeByIdentity(key string) (Archetype, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	a, ok := u.identities[key]
	return a, ok
}

// Archetypes returns every registered archetype ordered by identity key.
func (u *Universe) Archetypes() []Archetype {
	u.mu.RLock()
	out := make([]Archetype, 0, len(u.archetypes))
	for _, a := range u.archetypes {
		out = append(out, a)
	}
	u.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ArchetypeID().String() < out[j].ArchetypeID().String() })
	return out
}

// ArchetypesIn returns the archetypes of a family in registration order.
func (u *Universe) ArchetypesIn(collection reflect.Type) []Archetype {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.collections[Deref(collection)])
}

// ProducedModel returns the concrete model type a produces, falling back to its
// nominal ModelType.
func (u *Universe) ProducedModel(a Archetype) reflect.Type {
	u.mu.RLock()
	m, ok := u.produced[TypeOfValue(a)]
	u.mu.RUnlock()
	if ok {
		return m
	}
	return Deref(a.ModelType())
}

// ArchetypeRoot returns the recorded family root of a model type.
func (u *Universe) ArchetypeRoot(model reflect.Type) (reflect.Type, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	r, ok := u.roots[Deref(model)]
	return r, ok
}

// ModelBaseType returns the recorded base type of a model or component.
func (u *Universe) ModelBaseType(t reflect.Type) (reflect.Type, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	b, ok := u.modelBases[Deref(t)]
	return b, ok
}

// ComponentType returns the component type bound to key.
func (u *Universe) ComponentType(key string) (reflect.Type, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	t, ok := u.componentKeys[key]
	return t, ok
}

// Enumerations returns the registered values of enumeration type t in
// registration order.
func (u *Universe) Enumerations(t reflect.Type) []Enumeration {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.enumerations[Deref(t)])
}

// Enumeration returns the value of enumeration type t registered under key.
func (u *Universe) Enumeration(t reflect.Type, key string) (Enumeration, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	e, ok := u.enumKeys[Deref(t)][key]
	return e, ok
}

// Contract returns the cached contract method between component types a and b.
func (u *Universe) Contract(a, b reflect.Type) (reflect.Method, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	m, ok := u.contracts[contractKey{Deref(a), Deref(b)}]
	return m, ok
}

// ExecuteContract runs the contract linking a and b, in either direction.
func (u *Universe) ExecuteContract(a, b Component) error {
	ta, tb := TypeOfValue(a), TypeOfValue(b)
	m, ok := u.Contract(ta, tb)
	if !ok {
		if m, ok = u.Contract(tb, ta); !ok {
			return fmt.Errorf("%w: %s and %s", ErrNoContract, ta, tb)
		}
		a, b = b, a
	}
	out := m.Func.Call([]reflect.Value{reflect.ValueOf(a), reflect.ValueOf(b)})
	if err, _ := out[0].Interface().(error); err != nil {
		return fmt.Errorf("contract %s: %w", m.Name, err)
	}
	return nil
}

// DefaultFactory returns the universe's factory for models declared without an
// archetype family. Factories are created on demand and cached per model type.
func (u *Universe) DefaultFactory(model reflect.Type) *DefaultFactory {
	model = Deref(model)
	u.mu.Lock()
	defer u.mu.Unlock()
	f, ok := u.factories[model]
	if !ok {
		f = &DefaultFactory{
			ArchetypeBase: WithIdentity(Identity{Name: model.Name() + "Factory", Key: model.String() + "#factory"}),
			model:         model,
		}
		u.factories[model] = f
	}
	return f
}

// DefaultIdentity is the identity an archetype of type t is registered under
// when its constructor was given a nil token and bound no identity itself.
func DefaultIdentity(t reflect.Type) Identity {
	t = Deref(t)
	return Identity{Name: t.Name(), Key: t.String()}
}
