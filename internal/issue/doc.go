// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the manifest involved and
// remediation hints. The issue catalog holds one Markdown page per resolution
// error kind, rendered with glamour by `cargoscope explain`.
package issue
