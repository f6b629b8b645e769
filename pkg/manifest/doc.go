// SPDX-License-Identifier: MPL-2.0

// Package manifest is the typed model of a Cargo.toml manifest and the binder
// that produces it from TOML text.
//
// Fields a package may take from its workspace are modeled as Inheritable
// values with three states: absent, set locally, or delegated with
// `key.workspace = true`. Parse keeps delegated values as they are; the
// workspace package resolves them and the autodiscover package adds
// convention-based targets.
//
// Every failure in this module is reported as an *Error whose Kind is one of
// the Err* sentinels, so callers can test with errors.Is.
package manifest
