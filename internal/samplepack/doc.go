// SPDX-License-Identifier: MPL-2.0

// Package samplepack is a small textile content pack. It gives the CLI
// something to load and the end-to-end tests a universe that touches every
// loader phase.
//
// The pack has three modules:
//
//	core      fibers (enumeration), dye and weave (components), the fabric
//	          family root archetype, plain fabric and thread
//	garments  tapestry (configurable, finished) and scarf (branches to shawl)
//	tweaks    the dyeworks modification, which dyes every tapestry
package samplepack
