// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the cargoscope command line interface.
//
// Every command reads a manifest from one source (a directory, a .crate
// archive or a git revision), runs it through the resolution pipeline and
// prints the result as styled text, YAML or JSON.
package cmd
