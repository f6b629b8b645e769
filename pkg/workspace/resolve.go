// SPDX-License-Identifier: MPL-2.0

// Package workspace resolves workspace inheritance: fields and dependencies a
// member delegates with `workspace = true` are filled in from the workspace
// root's [workspace.package], [workspace.dependencies] and [workspace.lints].
package workspace

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/cargoscope/cargoscope/pkg/fspath"
	"github.com/cargoscope/cargoscope/pkg/manifest"
)

type (
	// Option configures Resolve.
	Option func(*options)

	options struct {
		rootDir string
	}
)

// WithRootDir rebases inherited path values (readme, license-file and
// dependency paths) onto the root's directory, given relative to the member's
// directory (for example "../.."). Without it, values are copied verbatim.
func WithRootDir(rel string) Option {
	return func(o *options) { o.rootDir = rel }
}

// Resolve returns a copy of member with every delegated package field,
// dependency and lints table replaced by the root's value. Neither input is
// modified. Resolving an already resolved manifest returns an equal copy.
func Resolve(member, root *manifest.Manifest, opts ...Option) (*manifest.Manifest, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	if root == nil || root.Workspace == nil {
		return nil, manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "workspace", "workspace root has no [workspace] table")
	}
	if err := ValidateRoot(root.Workspace); err != nil {
		return nil, err
	}
	ws := root.Workspace

	out := member.Clone()
	if out.Package != nil {
		if err := inheritFields(out.Package, ws.Package, cfg); err != nil {
			return nil, err
		}
	}

	var err error
	out.EachDependencyTable(func(key string, deps manifest.DepsSet) {
		if err == nil {
			err = inheritDependencies(key, deps, ws.Dependencies, cfg)
		}
	})
	if err != nil {
		return nil, err
	}

	if out.Lints != nil && out.Lints.Workspace {
		if ws.Lints == nil {
			return nil, manifest.Errorf(manifest.ErrMissingWorkspaceField, "lints", "not defined in [workspace.lints]")
		}
		out.Lints = &manifest.Lints{Groups: ws.Lints.Clone()}
	}
	return out, nil
}

// ResolveSelf resolves a manifest that is both a package and its own
// workspace root.
func ResolveSelf(m *manifest.Manifest) (*manifest.Manifest, error) {
	return Resolve(m, m)
}

// ValidateRoot reports an InvalidWorkspaceRoot error when the workspace's
// shared defaults themselves delegate to a workspace.
func ValidateRoot(ws *manifest.Workspace) error {
	if ws.Package != nil {
		if delegated := ws.Package.DelegatedFields(); len(delegated) > 0 {
			return manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "workspace.package."+delegated[0],
				"workspace defaults cannot be inherited from another workspace")
		}
	}
	for _, name := range slices.Sorted(maps.Keys(ws.Dependencies)) {
		if ws.Dependencies[name].Workspace {
			return manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "workspace.dependencies."+name,
				"workspace dependencies cannot be inherited from another workspace")
		}
	}
	return nil
}

func inheritFields(pkg *manifest.Package, template *manifest.SharedFields, cfg options) error {
	for _, field := range pkg.InheritableFields() {
		if !field.Delegated(&pkg.SharedFields) {
			continue
		}
		if template == nil || !field.IsSet(template) {
			return manifest.Errorf(manifest.ErrMissingWorkspaceField, "package."+field.Key, "not defined in [workspace.package]")
		}
		field.Inherit(&pkg.SharedFields, template)
		if cfg.rootDir != "" && field.PathValued {
			field.Rebase(&pkg.SharedFields, func(p string) string { return fspath.Join(cfg.rootDir, p) })
		}
		slog.Debug("inherited workspace field", "package", pkg.Name, "field", field.Key)
	}
	return nil
}

func inheritDependencies(tableKey string, deps, shared manifest.DepsSet, cfg options) error {
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		local := deps[name]
		if !local.Workspace {
			continue
		}
		key := tableKey + "." + name
		base, ok := shared[name]
		if !ok {
			return manifest.Errorf(manifest.ErrMissingWorkspaceDependency, key, "not defined in [workspace.dependencies]")
		}
		if conflict := conflictingKey(local); conflict != "" {
			return manifest.Errorf(manifest.ErrConflictingDependencySpec, key,
				"`%s` cannot be set on a dependency inherited from the workspace", conflict)
		}
		deps[name] = mergeDependency(base, local, cfg)
		slog.Debug("inherited workspace dependency", "table", tableKey, "dependency", name)
	}
	return nil
}

// conflictingKey returns the first workspace-reserved key set on local.
func conflictingKey(local manifest.Dependency) string {
	reserved := []struct {
		key string
		set bool
	}{
		{"version", local.Version != ""},
		{"path", local.Path != ""},
		{"git", local.Git != ""},
		{"branch", local.Branch != ""},
		{"tag", local.Tag != ""},
		{"rev", local.Rev != ""},
		{"registry", local.Registry != ""},
		{"registry-index", local.RegistryIndex != ""},
		{"package", local.Package != ""},
	}
	for _, r := range reserved {
		if r.set {
			return r.key
		}
	}
	return ""
}

func mergeDependency(base, local manifest.Dependency, cfg options) manifest.Dependency {
	merged := base.Clone()
	if len(local.Features) > 0 || local.Optional != nil || local.DefaultFeatures != nil || len(local.Unstable) > 0 {
		merged = merged.Detailed()
	}
	merged.Features = unionFeatures(merged.Features, local.Features)
	if local.Optional != nil {
		v := *local.Optional
		merged.Optional = &v
	}
	if local.DefaultFeatures != nil {
		v := *local.DefaultFeatures
		merged.DefaultFeatures = &v
	}
	for k, v := range local.Unstable {
		if merged.Unstable == nil {
			merged.Unstable = make(map[string]any)
		}
		merged.Unstable[k] = v
	}
	if cfg.rootDir != "" && merged.Path != "" {
		merged.Path = fspath.Join(cfg.rootDir, merged.Path)
	}
	merged.Workspace = false
	merged.FromWorkspace = true
	return merged
}

// unionFeatures appends extra to base, dropping duplicates and keeping first occurrences.
func unionFeatures(base, extra []string) []string {
	if len(base) == 0 && len(extra) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, f := range slices.Concat(base, extra) {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
