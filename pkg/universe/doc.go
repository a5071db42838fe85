// SPDX-License-Identifier: MPL-2.0

// Package universe holds the shared registry that a load assembles and the small
// set of interfaces content types implement to take part in it.
//
// Content is expressed with four building blocks:
//
//   - Archetypes embed ArchetypeBase. Each archetype is a singleton factory for
//     one data-model family and is registered under an Identity.
//   - Models embed ModelBase. They are produced by an archetype or, when no
//     family is declared, by the universe's DefaultFactory.
//   - Components embed ComponentBase. They are models that can be attached to an
//     archetype or to another model through a ComponentSet.
//   - Enumerations are values exposed through Lazy fields of an enumeration set
//     struct. Realizing a Lazy value registers it.
//
// Go has no class hierarchy, so ancestry is expressed by embedding: the lineage
// of a type is the chain of first anonymous struct fields, most-ancestral first.
// See Lineage.
//
// A Universe is append-only while a load runs and is sealed with Freeze once the
// load finishes. After that every registration fails with ErrFrozen unless the
// type was marked late-initializable before the freeze.
package universe
