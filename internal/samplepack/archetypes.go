// SPDX-License-Identifier: MPL-2.0

package samplepack

import (
	"fmt"
	"reflect"

	"github.com/loomkit/loom/pkg/universe"
)

type (
	// FabricArchetype is the root archetype of the fabric family.
	FabricArchetype struct {
		universe.ArchetypeBase
	}

	// TapestryArchetype accepts modifications and checks its dye during
	// finalization.
	TapestryArchetype struct {
		FabricArchetype
		finished bool
	}

	// ScarfArchetype branches to Shawl.
	ScarfArchetype struct {
		FabricArchetype
	}
)

// NewFabricArchetype is the FabricArchetype constructor.
func NewFabricArchetype() *FabricArchetype { return &FabricArchetype{} }

// ModelType implements universe.Archetype.
func (*FabricArchetype) ModelType() reflect.Type { return reflect.TypeFor[Fabric]() }

// NewTapestryArchetype builds the tapestry archetype with a plain weave
// attached. A nil id keeps the default registry key.
func NewTapestryArchetype(id *universe.Identity) *TapestryArchetype {
	key := universe.DefaultIdentity(reflect.TypeFor[TapestryArchetype]()).Key
	if id != nil {
		key = id.Key
	}
	a := &TapestryArchetype{
		FabricArchetype: FabricArchetype{
			ArchetypeBase: universe.WithIdentity(universe.Identity{Name: "Tapestry", Key: key}),
		},
	}
	// A fresh set cannot hold a duplicate key.
	_ = a.Components().Add(&Weave{Pattern: "plain", Density: 8})
	return a
}

// ModelType implements universe.Archetype.
func (*TapestryArchetype) ModelType() reflect.Type { return reflect.TypeFor[Tapestry]() }

// AllowsExternalConfiguration implements universe.Configurable.
func (*TapestryArchetype) AllowsExternalConfiguration() bool { return true }

// Finish implements universe.Finisher. A dye added by a modification must
// satisfy the weave/dye contract.
func (a *TapestryArchetype) Finish(u *universe.Universe) error {
	weave, ok := universe.ComponentOf[*Weave](a.Components())
	if !ok {
		return fmt.Errorf("tapestry %s has no weave", a.ArchetypeID())
	}
	if dye, ok := universe.ComponentOf[*Dye](a.Components()); ok {
		if err := u.ExecuteContract(weave, dye); err != nil {
			return err
		}
	}
	a.finished = true
	return nil
}

// Finished reports whether Finish succeeded.
func (a *TapestryArchetype) Finished() bool { return a.finished }

// NewScarfArchetype is the ScarfArchetype constructor.
func NewScarfArchetype() *ScarfArchetype { return &ScarfArchetype{} }

// BranchModel implements universe.Brancher.
func (*ScarfArchetype) BranchModel() reflect.Type { return reflect.TypeFor[Shawl]() }
