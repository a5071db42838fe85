// SPDX-License-Identifier: MPL-2.0

// Package loommod defines how content modules declare their types to the loader.
//
// A module implements Module. Its Declare method receives a Manifest and adds one
// Declaration per type, in the order the module wants them considered:
//
//	func (coreModule) Declare(m *loommod.Manifest) {
//		m.Add(
//			loommod.Declare[Item](loommod.Abstract()),
//			loommod.Declare[ItemArchetype](loommod.WithConstructor(NewItemArchetype)),
//			loommod.DeclareValues(&Rarities),
//		)
//	}
//
// Declarations carry what other languages would express with attributes:
// dependencies, exclusion, late initialization and the static bootstrap hook.
package loommod
