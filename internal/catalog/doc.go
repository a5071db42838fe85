// SPDX-License-Identifier: MPL-2.0

// Package catalog turns an ordered list of content modules into per-module
// candidate lists, one per loadable category, together with the explicit
// dependency edges between candidates.
//
// File organization:
//   - category.go: Category and structural categorization
//   - catalog.go: Build, Catalog, ModuleEntry and Descriptor
//   - diagnostic.go: non-fatal Diagnostic values returned to callers
package catalog
