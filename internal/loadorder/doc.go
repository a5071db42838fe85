// SPDX-License-Identifier: MPL-2.0

// Package loadorder decides the order in which content modules are loaded.
//
// Priorities come from two places: the explicit map in the loom config and an
// optional order file (loadorder.cue or loadorder.toml) holding a flat
// module-name to priority map. Explicit priorities win. Modules with a priority
// load first in ascending priority; everything else follows in discovery order.
package loadorder
