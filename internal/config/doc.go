// SPDX-License-Identifier: MPL-2.0

// Package config handles loom configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/loom/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/loom/config.cue on macOS, %APPDATA%\loom\config.cue
// on Windows), falling back to ./config.cue. LOOM_* environment variables override
// file values (LOOM_LOADER_FAIL_FAST, LOOM_LOG_LEVEL, ...).
//
// Files are validated against the embedded CUE schema (config_schema.cue); rules CUE
// cannot express, such as unique priority entries, are checked in Go.
package config
