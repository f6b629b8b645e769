// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"maps"
	"slices"
)

const (
	// FileName is the conventional manifest file name.
	FileName = "Cargo.toml"

	// DefaultVersion is the version assumed when [package] omits one.
	DefaultVersion = "0.0.0"

	// Edition2015 is the edition assumed when [package] omits one.
	Edition2015 Edition = "2015"
	// Edition2018 is the 2018 edition.
	Edition2018 Edition = "2018"
	// Edition2021 is the 2021 edition.
	Edition2021 Edition = "2021"
	// Edition2024 is the 2024 edition.
	Edition2024 Edition = "2024"
)

type (
	// Edition is a language edition year.
	Edition string

	// DepsSet maps dependency keys (as written in the manifest) to their declarations.
	DepsSet map[string]Dependency

	// PlatformDependencies holds the dependency tables of one
	// [target.'<platform>'] section.
	PlatformDependencies struct {
		Dependencies      DepsSet
		DevDependencies   DepsSet
		BuildDependencies DepsSet
	}

	// Manifest is the typed model of one Cargo.toml. A freshly parsed Manifest
	// may still contain delegated fields; see NeedsWorkspaceInheritance.
	Manifest struct {
		// Package is nil for virtual (workspace-only) manifests.
		Package *Package
		// Workspace is non-nil when the manifest is a workspace root.
		Workspace *Workspace

		Dependencies      DepsSet
		DevDependencies   DepsSet
		BuildDependencies DepsSet
		// Target holds platform-specific dependency tables keyed by cfg expression or triple.
		Target map[string]PlatformDependencies

		Features map[string][]string
		Patch    map[string]DepsSet
		Replace  DepsSet

		// Lib is the single library target, if declared or discovered.
		Lib     *Target
		Bin     []Target
		Example []Target
		Test    []Target
		Bench   []Target

		Profile Profiles
		Badges  map[string]map[string]any
		Lints   *Lints

		// Extra holds unknown top-level keys.
		Extra map[string]any
	}

	// SharedFields is the set of package fields a member may inherit from
	// [workspace.package]. It is embedded in Package and used on its own as
	// the workspace template.
	SharedFields struct {
		Version       Inheritable[string]
		Edition       Inheritable[Edition]
		RustVersion   Inheritable[string]
		Authors       Inheritable[[]string]
		Description   Inheritable[string]
		Documentation Inheritable[string]
		Homepage      Inheritable[string]
		License       Inheritable[string]
		LicenseFile   Inheritable[string]
		Repository    Inheritable[string]
		Readme        Inheritable[OptionalFile]
		Keywords      Inheritable[[]string]
		Categories    Inheritable[[]string]
		Exclude       Inheritable[[]string]
		Include       Inheritable[[]string]
		Publish       Inheritable[Publish]
	}

	// Package is the [package] table (or its legacy [project] alias).
	Package struct {
		Name string
		SharedFields

		// Build is the build script setting; nil means "detect build.rs".
		Build *OptionalFile
		// Workspace is an explicit path to the workspace root directory.
		Workspace  string
		Links      string
		DefaultRun string
		Resolver   string

		Autolib      *bool
		Autobins     *bool
		Autoexamples *bool
		Autotests    *bool
		Autobenches  *bool

		Metadata map[string]any
	}

	// Workspace is the [workspace] table.
	Workspace struct {
		Members        []string
		DefaultMembers []string
		Exclude        []string
		Resolver       string
		// Package holds [workspace.package] shared defaults.
		Package      *SharedFields
		Dependencies DepsSet
		// Lints holds [workspace.lints]; nil when absent.
		Lints    LintGroups
		Metadata map[string]any
	}

	// OptionalFile is a setting that is either a boolean flag or a file path,
	// used by `readme` and `build`.
	OptionalFile struct {
		// Enabled is false for `= false`.
		Enabled bool
		// Path is set for `= "path"`.
		Path string
	}

	// Publish is either a boolean flag or a list of allowed registries.
	Publish struct {
		Enabled    bool
		Registries []string
	}
)

// FileFlag returns an OptionalFile for a boolean setting.
func FileFlag(enabled bool) OptionalFile { return OptionalFile{Enabled: enabled} }

// FilePath returns an OptionalFile pointing at path.
func FilePath(path string) OptionalFile { return OptionalFile{Enabled: true, Path: path} }

// IsKnown reports whether e is an edition this module understands.
func (e Edition) IsKnown() bool {
	switch e {
	case Edition2015, Edition2018, Edition2021, Edition2024:
		return true
	default:
		return false
	}
}

// IsVirtual reports whether the manifest is a workspace root without a package.
func (m *Manifest) IsVirtual() bool {
	return m.Package == nil && m.Workspace != nil
}

// AutoBins reports whether binaries may be discovered.
func (p *Package) AutoBins() bool { return flagOr(p.Autobins, true) }

// AutoExamples reports whether examples may be discovered.
func (p *Package) AutoExamples() bool { return flagOr(p.Autoexamples, true) }

// AutoTests reports whether integration tests may be discovered.
func (p *Package) AutoTests() bool { return flagOr(p.Autotests, true) }

// AutoBenches reports whether benchmarks may be discovered.
func (p *Package) AutoBenches() bool { return flagOr(p.Autobenches, true) }

// AutoDiscover reports whether targets of kind may be discovered. The library
// follows file presence alone; Autolib is kept as written but never gates it.
func (p *Package) AutoDiscover(kind TargetKind) bool {
	switch kind {
	case TargetLib:
		return true
	case TargetBin:
		return p.AutoBins()
	case TargetExample:
		return p.AutoExamples()
	case TargetTest:
		return p.AutoTests()
	case TargetBench:
		return p.AutoBenches()
	default:
		return false
	}
}

// NeedsWorkspaceInheritance reports whether any package field, dependency or
// the lints table still delegates to the workspace.
func (m *Manifest) NeedsWorkspaceInheritance() bool {
	if m.Package != nil && len(m.Package.DelegatedFields()) > 0 {
		return true
	}
	if m.Lints != nil && m.Lints.Workspace {
		return true
	}
	found := false
	m.EachDependencyTable(func(_ string, deps DepsSet) {
		for _, d := range deps {
			if d.Workspace {
				found = true
			}
		}
	})
	return found
}

// EachDependencyTable calls fn for every dependency table in a stable order,
// with the dotted key that names it.
func (m *Manifest) EachDependencyTable(fn func(key string, deps DepsSet)) {
	fn("dependencies", m.Dependencies)
	fn("dev-dependencies", m.DevDependencies)
	fn("build-dependencies", m.BuildDependencies)
	for _, platform := range slices.Sorted(maps.Keys(m.Target)) {
		pd := m.Target[platform]
		prefix := "target." + platform + "."
		fn(prefix+"dependencies", pd.Dependencies)
		fn(prefix+"dev-dependencies", pd.DevDependencies)
		fn(prefix+"build-dependencies", pd.BuildDependencies)
	}
}

// Targets returns the target list of kind. The library is returned as a
// one-element list.
func (m *Manifest) Targets(kind TargetKind) []Target {
	switch kind {
	case TargetLib:
		if m.Lib == nil {
			return nil
		}
		return []Target{*m.Lib}
	case TargetBin:
		return m.Bin
	case TargetExample:
		return m.Example
	case TargetTest:
		return m.Test
	case TargetBench:
		return m.Bench
	default:
		return nil
	}
}

// SetTargets replaces the target list of kind. Only the first entry is used
// for the library.
func (m *Manifest) SetTargets(kind TargetKind, targets []Target) {
	switch kind {
	case TargetLib:
		if len(targets) == 0 {
			m.Lib = nil
			return
		}
		lib := targets[0]
		m.Lib = &lib
	case TargetBin:
		m.Bin = targets
	case TargetExample:
		m.Example = targets
	case TargetTest:
		m.Test = targets
	case TargetBench:
		m.Bench = targets
	}
}

func flagOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
