// SPDX-License-Identifier: MPL-2.0

// Package testutil builds package source trees for tests: directories on
// disk, .crate archives and git repositories. Every helper fails the test
// immediately on error.
package testutil
