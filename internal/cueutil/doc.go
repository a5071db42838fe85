// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against embedded schemas.
//
// Every CUE input loom reads (the config file and .cue load-order files) goes
// through the same flow: compile the embedded schema, compile the user data and
// unify it with the schema's root definition, then validate and decode.
//
//	//go:embed loadorder_schema.cue
//	var schema []byte
//
//	res, err := cueutil.ParseAndDecode[map[string]int](schema, data, "#LoadOrder",
//	    cueutil.WithFilename(path))
//
// Errors carry the file name and a JSON-style path to the offending value.
package cueutil
