// SPDX-License-Identifier: MPL-2.0

package features

import (
	"maps"
	"slices"
	"strings"

	"github.com/cargoscope/cargoscope/pkg/manifest"
)

type (
	// DeclaredDependency summarizes a dependency key across all tables that
	// declare it.
	DeclaredDependency struct {
		// Optional is true when any non-dev table declares the key optional.
		Optional bool
		// Package is the real package name when the key renames it.
		Package string
		// Tables lists the dependency tables declaring the key.
		Tables []string
	}

	// DependencySet maps dependency keys to their declarations.
	DependencySet map[string]DeclaredDependency
)

// DependencySetOf collects the dependency keys declared by m in every
// dependency table, including platform-specific ones.
func DependencySetOf(m *manifest.Manifest) DependencySet {
	set := make(DependencySet)
	m.EachDependencyTable(func(table string, deps manifest.DepsSet) {
		dev := strings.HasSuffix(table, "dev-dependencies")
		for _, key := range slices.Sorted(maps.Keys(deps)) {
			dep := deps[key]
			d := set[key]
			if !dev && dep.IsOptional() {
				d.Optional = true
			}
			if d.Package == "" && dep.Package != "" {
				d.Package = dep.Package
			}
			d.Tables = append(d.Tables, table)
			set[key] = d
		}
	})
	return set
}

// Declared reports whether key is a dependency of any kind.
func (s DependencySet) Declared(key string) bool {
	_, ok := s[key]
	return ok
}

// IsOptional reports whether key is a declared optional dependency.
func (s DependencySet) IsOptional(key string) bool {
	return s[key].Optional
}

// Optional returns the optional dependency keys in sorted order.
func (s DependencySet) Optional() []string {
	var out []string
	for _, key := range slices.Sorted(maps.Keys(s)) {
		if s[key].Optional {
			out = append(out, key)
		}
	}
	return out
}
