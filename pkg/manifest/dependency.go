// SPDX-License-Identifier: MPL-2.0

package manifest

const (
	// DependencySimple is a bare version requirement: `serde = "1.0"`.
	DependencySimple DependencyForm = iota
	// DependencyDetailed is a table: `serde = { version = "1.0", features = [...] }`.
	DependencyDetailed
)

type (
	// DependencyForm tells how a dependency was written.
	DependencyForm uint8

	// Dependency is one entry of a dependency table. Versions are opaque strings.
	Dependency struct {
		Form DependencyForm

		Version       string
		Path          string
		Git           string
		Branch        string
		Tag           string
		Rev           string
		Registry      string
		RegistryIndex string
		// Package is the real package name when the key is a rename.
		Package string

		Features        []string
		Optional        *bool
		DefaultFeatures *bool

		// Workspace is the `workspace = true` delegation marker.
		Workspace bool
		// FromWorkspace records that the entry was filled in from
		// [workspace.dependencies] by the resolver.
		FromWorkspace bool

		// Unstable holds keys this module does not know.
		Unstable map[string]any
	}
)

// SimpleDependency returns a dependency written as a bare version requirement.
func SimpleDependency(version string) Dependency {
	return Dependency{Form: DependencySimple, Version: version}
}

// IsOptional reports whether the dependency is declared optional.
func (d Dependency) IsOptional() bool {
	return d.Optional != nil && *d.Optional
}

// UsesDefaultFeatures reports whether the dependency's default features are enabled.
func (d Dependency) UsesDefaultFeatures() bool {
	return d.DefaultFeatures == nil || *d.DefaultFeatures
}

// PackageName returns the name of the depended-upon package for the entry at key.
func (d Dependency) PackageName(key string) string {
	if d.Package != "" {
		return d.Package
	}
	return key
}

// HasSource reports whether the dependency says where it comes from.
func (d Dependency) HasSource() bool {
	return d.Version != "" || d.Path != "" || d.Git != ""
}

// Detailed returns d in table form, so that feature lists and flags can be attached.
func (d Dependency) Detailed() Dependency {
	d.Form = DependencyDetailed
	return d
}
