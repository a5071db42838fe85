// SPDX-License-Identifier: MPL-2.0

package samplepack

import (
	"fmt"

	"github.com/loomkit/loom/pkg/loommod"
	"github.com/loomkit/loom/pkg/universe"
)

// Module names.
const (
	CoreModule     = "core"
	GarmentsModule = "garments"
	TweaksModule   = "tweaks"
)

// Modules returns fresh instances of every module in dependency order.
func Modules() []loommod.Module {
	return []loommod.Module{Core(), Garments(), Tweaks()}
}

// Core declares the fibers, both components and the fabric family root.
func Core() loommod.Module {
	fibers := NewFibers()
	return loommod.New(CoreModule, func(m *loommod.Manifest) {
		m.Add(
			loommod.DeclareValues(fibers),
			loommod.Declare[Dye](),
			loommod.Declare[Weave](),
			loommod.Declare[FabricArchetype](
				loommod.WithConstructor(NewFabricArchetype),
				loommod.WithBootstrap(requireWool),
			),
			loommod.Declare[Fabric](loommod.After[FabricArchetype]()),
			loommod.Declare[Thread](loommod.After[Fibers]()),
		)
	})
}

// Garments declares the tapestry and scarf archetypes and their models.
func Garments() loommod.Module {
	return loommod.New(GarmentsModule, func(m *loommod.Manifest) {
		m.Add(
			loommod.Declare[TapestryArchetype](
				loommod.WithConstructor(NewTapestryArchetype),
				loommod.After[Weave](),
				loommod.WithTestParams(universe.Params{"panels": 2}),
			),
			loommod.Declare[ScarfArchetype](
				loommod.WithConstructor(NewScarfArchetype),
				loommod.After[FabricArchetype](),
			),
			loommod.Declare[Tapestry](loommod.After[TapestryArchetype]()),
			loommod.Declare[Shawl](loommod.After[ScarfArchetype]()),
			loommod.Declare[Scarf](loommod.Exclude(loommod.ExcludeSelf)),
		)
	})
}

// Tweaks declares the dyeworks modification.
func Tweaks() loommod.Module {
	return loommod.New(TweaksModule, func(m *loommod.Manifest) {
		m.Add(loommod.Declare[Dyeworks](loommod.After[TapestryArchetype]()))
	})
}

// requireWool keeps the fabric family from bootstrapping before the fiber
// enumeration is realized.
func requireWool(u *universe.Universe) error {
	if _, err := universe.EnumerationOf[*Fiber](u, "wool"); err != nil {
		return fmt.Errorf("fabric needs wool: %w", err)
	}
	return nil
}
