// SPDX-License-Identifier: MPL-2.0

package manifest

import "strings"

const (
	// TargetLib is the library target kind.
	TargetLib TargetKind = "lib"
	// TargetBin is the binary target kind.
	TargetBin TargetKind = "bin"
	// TargetExample is the example target kind.
	TargetExample TargetKind = "example"
	// TargetTest is the integration test target kind.
	TargetTest TargetKind = "test"
	// TargetBench is the benchmark target kind.
	TargetBench TargetKind = "bench"
)

type (
	// TargetKind identifies a build target category.
	TargetKind string

	// Target is one [lib], [[bin]], [[example]], [[test]] or [[bench]] entry.
	Target struct {
		Kind TargetKind
		Name string
		// Path is relative to the package root, slash-separated.
		Path             string
		RequiredFeatures []string
		CrateTypes       []string
		// Edition overrides the package edition when set.
		Edition Edition

		Test      *bool
		Doctest   *bool
		Bench     *bool
		Doc       *bool
		Harness   *bool
		Plugin    *bool
		ProcMacro *bool

		// Discovered marks targets added by autodiscovery.
		Discovered bool
	}
)

// TargetKinds lists target kinds in manifest order.
func TargetKinds() []TargetKind {
	return []TargetKind{TargetLib, TargetBin, TargetExample, TargetTest, TargetBench}
}

// IsProcMacro reports whether the target is a procedural macro library.
func (t Target) IsProcMacro() bool {
	if t.ProcMacro != nil && *t.ProcMacro {
		return true
	}
	for _, ct := range t.CrateTypes {
		if ct == "proc-macro" {
			return true
		}
	}
	return false
}

// HasHarness reports whether the target uses the default test harness.
func (t Target) HasHarness() bool { return flagOr(t.Harness, true) }

// LibName returns the library crate name derived from a package name.
func LibName(packageName string) string {
	return strings.ReplaceAll(packageName, "-", "_")
}
