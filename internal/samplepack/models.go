// SPDX-License-Identifier: MPL-2.0

package samplepack

import (
	"errors"
	"reflect"

	"github.com/loomkit/loom/pkg/universe"
)

// DefaultPanels is the panel count of a tapestry built without parameters.
const DefaultPanels = 4

var errNoPanels = errors.New("tapestry needs at least one panel")

type (
	// Fabric is the root of the fabric family.
	Fabric struct {
		universe.ModelBase
		Fiber string
	}

	// Tapestry is a woven wall hanging.
	Tapestry struct {
		Fabric
		Panels int
	}

	// Scarf is what ScarfArchetype nominally produces.
	Scarf struct {
		Fabric
	}

	// Shawl is what ScarfArchetype actually produces.
	Shawl struct {
		Fabric
		Length int
	}

	// Thread has no archetype family and uses the default factory.
	Thread struct {
		universe.ModelBase
		Ply int
	}
)

// ArchetypeFamily implements universe.FamilyMember.
func (*Fabric) ArchetypeFamily() reflect.Type { return reflect.TypeFor[FabricArchetype]() }

// Initialize implements universe.Initializer.
func (t *Tapestry) Initialize(params universe.Params) error {
	t.Panels = universe.Param(params, "panels", DefaultPanels)
	t.Fiber = universe.Param(params, "fiber", "wool")
	return nil
}

// Validate implements universe.Validator.
func (t *Tapestry) Validate() error {
	if t.Panels <= 0 {
		return errNoPanels
	}
	return nil
}

func (s *Shawl) Initialize(params universe.Params) error {
	s.Length = universe.Param(params, "length", 180)
	return nil
}

func (t *Thread) Initialize(params universe.Params) error {
	t.Ply = universe.Param(params, "ply", 2)
	return nil
}
