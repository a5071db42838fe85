// SPDX-License-Identifier: MPL-2.0

package samplepack

import "github.com/loomkit/loom/pkg/universe"

type (
	// Fiber is a raw material. Warmth is a rough insulation score.
	Fiber struct {
		Name   string
		Warmth int
	}

	// Fibers is the enumeration set of every fiber.
	Fibers struct {
		Wool   *universe.Lazy[*Fiber]
		Cotton *universe.Lazy[*Fiber]
		Silk   *universe.Lazy[*Fiber]
	}
)

// EnumKey implements universe.Enumeration.
func (f *Fiber) EnumKey() string { return f.Name }

// NewFibers returns a fresh fiber set. Each load needs its own set since a
// Lazy caches the value it realized.
func NewFibers() *Fibers {
	return &Fibers{
		Wool:   universe.Enum(&Fiber{Name: "wool", Warmth: 8}),
		Cotton: universe.Enum(&Fiber{Name: "cotton", Warmth: 4}),
		Silk:   universe.Enum(&Fiber{Name: "silk", Warmth: 3}),
	}
}
