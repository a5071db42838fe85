// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable, user-facing errors and the catalog of
// remediation pages shown by `loom explain`.
package issue
