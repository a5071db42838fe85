// SPDX-License-Identifier: MPL-2.0

// Package report aggregates the failures of a load into one Report and renders
// it as plain or styled text, Markdown, JSON or YAML.
package report
