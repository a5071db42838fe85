// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/loomkit/loom/pkg/loommod"
	"github.com/loomkit/loom/pkg/universe"
)

type (
	fxMetal string

	fxMetals struct {
		Iron *universe.Lazy[fxMetal]
		Gold *universe.Lazy[fxMetal]
	}

	fxEdge struct {
		universe.ComponentBase
		Sharpness int
	}

	fxWeight struct {
		universe.ComponentBase
	}

	fxItem struct {
		universe.ModelBase
		Metal string
	}

	fxSword struct {
		fxItem
		Damage int
	}

	fxDagger struct {
		fxItem
	}

	fxRelic struct {
		fxItem
	}

	fxCoin struct {
		universe.ModelBase
	}

	fxBroken struct {
		universe.ModelBase
	}

	fxItemArchetype struct {
		universe.ArchetypeBase
	}

	fxSwordArchetype struct {
		fxItemArchetype
		finished int
	}

	fxDaggerArchetype struct {
		fxItemArchetype
	}

	fxForge struct{}

	// fxShatter panics in Validate, so its archetype's test build panics.
	fxShatter struct {
		universe.ModelBase
	}

	fxShatterArchetype struct {
		universe.ArchetypeBase
	}

	fxShard struct {
		universe.ModelBase
	}

	fxCloth struct {
		universe.ModelBase
	}

	// fxLoomArchetype reports ErrNotReady from Finish for its first busy calls.
	fxLoomArchetype struct {
		universe.ArchetypeBase
		busy  int
		calls int
	}

	fxLockedForge struct{}
)

var errFixture = errors.New("fixture failure")

func (m fxMetal) EnumKey() string { return string(m) }

func newMetals() *fxMetals {
	return &fxMetals{
		Iron: universe.Enum(fxMetal("iron")),
		Gold: universe.Enum(fxMetal("gold")),
	}
}

func (*fxEdge) ComponentKey() string { return "edge" }

func (e *fxEdge) ContractWeight(*fxWeight) error {
	if e.Sharpness > 100 {
		return errFixture
	}
	return nil
}

func (*fxItem) ArchetypeFamily() reflect.Type { return reflect.TypeFor[fxItemArchetype]() }

func (s *fxSword) Initialize(params universe.Params) error {
	s.Damage = universe.Param(params, "damage", 5)
	return nil
}

func (s *fxSword) Validate() error {
	if s.Damage <= 0 {
		return errFixture
	}
	return nil
}

func (*fxBroken) Validate() error { return errFixture }

func (*fxShatter) Validate() error { panic("shattered") }

func (*fxShard) ArchetypeFamily() reflect.Type { return reflect.TypeFor[fxShatterArchetype]() }

func (*fxShatterArchetype) ModelType() reflect.Type { return reflect.TypeFor[fxShatter]() }

func (*fxLoomArchetype) ModelType() reflect.Type { return reflect.TypeFor[fxCloth]() }

func (a *fxLoomArchetype) Finish(*universe.Universe) error {
	a.calls++
	if a.calls <= a.busy {
		return fmt.Errorf("loom warming up: %w", universe.ErrNotReady)
	}
	return nil
}

func (*fxItemArchetype) ModelType() reflect.Type { return reflect.TypeFor[fxItem]() }

func (*fxSwordArchetype) ModelType() reflect.Type { return reflect.TypeFor[fxSword]() }

func (*fxSwordArchetype) AllowsExternalConfiguration() bool { return true }

func (a *fxSwordArchetype) Finish(*universe.Universe) error {
	a.finished++
	return nil
}

func (*fxDaggerArchetype) BranchModel() reflect.Type { return reflect.TypeFor[fxDagger]() }

func (*fxForge) Initialize(m *universe.Modifier) error {
	a, err := m.Archetype(reflect.TypeFor[fxSwordArchetype]())
	if err != nil {
		return err
	}
	return m.AddComponent(a, &fxWeight{})
}

// fxLockedForge targets an archetype that refuses external configuration.
func (*fxLockedForge) Initialize(m *universe.Modifier) error {
	a, err := m.Archetype(reflect.TypeFor[fxItemArchetype]())
	if err != nil {
		return err
	}
	return m.AddComponent(a, &fxWeight{})
}

func newItemArchetype() *fxItemArchetype { return &fxItemArchetype{} }

func newSwordArchetype(id *universe.Identity) *fxSwordArchetype {
	key := universe.DefaultIdentity(reflect.TypeFor[fxSwordArchetype]()).Key
	if id != nil {
		key = id.Key
	}
	return &fxSwordArchetype{fxItemArchetype: fxItemArchetype{ArchetypeBase: universe.WithIdentity(universe.Identity{Name: "Sword", Key: key})}}
}

// coreModule declares one candidate of every initialization category.
func coreModule(metals *fxMetals) loommod.Module {
	return loommod.New("core", func(m *loommod.Manifest) {
		m.Add(
			loommod.DeclareValues(metals),
			loommod.Declare[fxEdge](),
			loommod.Declare[fxWeight](),
			loommod.Declare[fxItemArchetype](loommod.WithConstructor(newItemArchetype)),
			loommod.Declare[fxItem](),
			loommod.Declare[fxCoin](loommod.After[fxMetals]()),
		)
	})
}

// armsModule builds on core: the sword chain takes three passes.
func armsModule() loommod.Module {
	return loommod.New("arms", func(m *loommod.Manifest) {
		m.Add(
			loommod.Declare[fxSwordArchetype](
				loommod.WithConstructor(newSwordArchetype),
				loommod.After[fxEdge](),
				loommod.WithTestParams(universe.Params{"damage": 3}),
			),
			loommod.Declare[fxSword](loommod.After[fxSwordArchetype]()),
			loommod.Declare[fxForge](),
		)
	})
}

func module(name string, decls ...loommod.Declaration) loommod.Module {
	return loommod.New(name, func(m *loommod.Manifest) { m.Add(decls...) })
}

func fixedRunID() string { return "run-1" }
