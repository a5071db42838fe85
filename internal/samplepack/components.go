// SPDX-License-Identifier: MPL-2.0

package samplepack

import (
	"errors"
	"fmt"

	"github.com/loomkit/loom/pkg/universe"
)

// MaxDyeableDensity is the densest weave that still takes dye.
const MaxDyeableDensity = 10

// ErrDyeRejected is returned by the weave/dye contract.
var ErrDyeRejected = errors.New("weave rejects dye")

type (
	// Dye colors a fabric.
	Dye struct {
		universe.ComponentBase
		Color string
	}

	// Weave describes how threads are interlaced.
	Weave struct {
		universe.ComponentBase
		Pattern string
		// Density is threads per centimeter.
		Density int
	}
)

// ComponentKey implements universe.Keyed.
func (*Dye) ComponentKey() string { return "dye" }

// ComponentKey implements universe.Keyed.
func (*Weave) ComponentKey() string { return "weave" }

// ContractDye checks that d can be applied to the weave.
func (w *Weave) ContractDye(d *Dye) error {
	if d.Color == "" {
		return fmt.Errorf("%w: dye has no color", ErrDyeRejected)
	}
	if w.Density > MaxDyeableDensity {
		return fmt.Errorf("%w: %s weave at density %d is too dense for %s", ErrDyeRejected, w.Pattern, w.Density, d.Color)
	}
	return nil
}
