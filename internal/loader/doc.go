// SPDX-License-Identifier: MPL-2.0

// Package loader assembles a universe from content modules.
//
// A load runs these phases in order:
//
//  1. Ordering: filter the modules, merge configured and file priorities, and
//     resolve a total order (package loadorder).
//  2. Discovery: categorize every declaration (package catalog).
//  3. Enumerations: realize every enumeration value once.
//  4. Initialization: repeated passes over components, then archetypes, then
//     models. A type is attempted only when every declared dependency was
//     initialized before the pass began; transient failures stay pending for the
//     next pass, fatal ones are reported and dropped.
//  5. Modification: each module's modification runs once.
//  6. Finalization: archetypes implementing universe.Finisher finish, with the
//     same retry rules.
//  7. Freeze.
//
// Every unresolved or fatal item ends up in the report.Report of the Result.
//
// File organization:
//   - loader.go: Loader, Load, Result
//   - scheduler.go: enumeration and initialization passes
//   - constructors.go: per-category construction
//   - lifecycle.go: modification, finalization and late initialization
//   - errors.go: error types and classification
package loader
