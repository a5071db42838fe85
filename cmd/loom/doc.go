// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for loom.
//
// The App type is the composition root: every command handler receives it and
// reads configuration, the module set and the output streams through it.
package cmd
