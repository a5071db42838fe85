// SPDX-License-Identifier: MPL-2.0

package samplepack

import (
	"reflect"

	"github.com/loomkit/loom/pkg/universe"
)

// DyeworksColor is the color the dyeworks applies.
const DyeworksColor = "indigo"

// Dyeworks is the tweaks module's modification. It dyes the tapestry.
type Dyeworks struct{}

// Initialize implements universe.Modification.
func (*Dyeworks) Initialize(m *universe.Modifier) error {
	a, err := m.Archetype(reflect.TypeFor[TapestryArchetype]())
	if err != nil {
		return err
	}
	return m.AddComponent(a, &Dye{Color: DyeworksColor})
}
