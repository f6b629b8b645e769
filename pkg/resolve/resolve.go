// SPDX-License-Identifier: MPL-2.0

// Package resolve runs the full manifest pipeline: workspace inheritance,
// then target autodiscovery, then feature normalization.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cargoscope/cargoscope/pkg/autodiscover"
	"github.com/cargoscope/cargoscope/pkg/features"
	"github.com/cargoscope/cargoscope/pkg/fspath"
	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/storage"
	"github.com/cargoscope/cargoscope/pkg/workspace"
)

type (
	// Result is a fully resolved manifest.
	Result struct {
		// Manifest has every delegated value filled in and every target listed.
		Manifest *manifest.Manifest
		// Features is the validated feature table.
		Features *features.Spec
		// Dir is the package directory within the storage, "" for its root.
		Dir string
		// Root is the workspace root the manifest inherited from, if any.
		Root *workspace.Root
	}

	// Options configures Load.
	Options struct {
		// ManifestDir is the storage directory holding the Cargo.toml to load.
		ManifestDir string
		// SkipDirs overrides the directory names pruned when expanding
		// workspace members. Nil keeps workspace.DefaultSkipDirs.
		SkipDirs []string
	}
)

// Complete resolves member against root and discovers targets through store,
// which must be rooted at the member's package directory. root may be nil
// when member delegates nothing or is its own workspace root.
//
// Every target's required-features must name a feature, an optional
// dependency with an implicit feature, or a dependency feature.
func Complete(member, root *manifest.Manifest, store storage.Storage, opts ...workspace.Option) (*Result, error) {
	m := member
	switch {
	case root != nil:
		resolved, err := workspace.Resolve(member, root, opts...)
		if err != nil {
			return nil, err
		}
		m = resolved
	case member.NeedsWorkspaceInheritance() && member.Workspace != nil:
		resolved, err := workspace.ResolveSelf(member)
		if err != nil {
			return nil, err
		}
		m = resolved
	case member.NeedsWorkspaceInheritance():
		return nil, manifest.Errorf(manifest.ErrMissingWorkspaceField, "workspace",
			"manifest inherits from a workspace but no workspace root was given")
	}

	discovered, err := autodiscover.Discover(m, store)
	if err != nil {
		return nil, err
	}

	spec, err := features.FromManifest(discovered)
	if err != nil {
		return nil, err
	}
	if err := checkRequiredFeatures(discovered, spec); err != nil {
		return nil, err
	}
	return &Result{Manifest: discovered, Features: spec}, nil
}

// Load reads the Cargo.toml in opts.ManifestDir, locates its workspace root
// when it inherits anything, and completes it.
func Load(store storage.Storage, opts Options) (*Result, error) {
	dir, err := fspath.Clean(opts.ManifestDir)
	if err != nil {
		return nil, manifest.StorageFailure(opts.ManifestDir, err)
	}
	name := fspath.Join(dir, manifest.FileName)
	slog.Debug("loading manifest", "path", name)

	data, err := store.ReadFile(name)
	if err != nil {
		return nil, manifest.StorageFailure(name, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, withPath(err, name)
	}

	var (
		root   *workspace.Root
		wsOpts []workspace.Option
	)
	switch {
	case m.Workspace != nil:
		root = &workspace.Root{Manifest: m, Dir: dir}
	case m.NeedsWorkspaceInheritance():
		var hint string
		if m.Package != nil {
			hint = m.Package.Workspace
		}
		root, err = workspace.Locate(store, dir, hint)
		if err != nil {
			return nil, withPath(err, name)
		}
		wsOpts = append(wsOpts, workspace.WithRootDir(root.RelativeTo(dir)))
	}

	pkgStore, err := storage.Sub(store, dir)
	if err != nil {
		return nil, manifest.StorageFailure(dir, err)
	}
	var rootManifest *manifest.Manifest
	if root != nil {
		rootManifest = root.Manifest
	}
	res, err := Complete(m, rootManifest, pkgStore, wsOpts...)
	if err != nil {
		return nil, withPath(err, name)
	}
	res.Dir = dir
	res.Root = root
	return res, nil
}

// LoadWorkspace loads the workspace root in opts.ManifestDir and every
// member it lists, in member order. The root itself is included only when it
// is also a package.
func LoadWorkspace(store storage.Storage, opts Options) ([]*Result, error) {
	dir, err := fspath.Clean(opts.ManifestDir)
	if err != nil {
		return nil, manifest.StorageFailure(opts.ManifestDir, err)
	}
	name := fspath.Join(dir, manifest.FileName)
	data, err := store.ReadFile(name)
	if err != nil {
		return nil, manifest.StorageFailure(name, err)
	}
	root, err := manifest.Parse(data)
	if err != nil {
		return nil, withPath(err, name)
	}
	if root.Workspace == nil {
		return nil, manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "workspace", "not a workspace root").WithPath(name)
	}

	var memberOpts []workspace.MembersOption
	if opts.SkipDirs != nil {
		memberOpts = append(memberOpts, workspace.WithSkipDirs(opts.SkipDirs...))
	}
	members, err := workspace.Members(root, dir, store, memberOpts...)
	if err != nil {
		return nil, withPath(err, name)
	}

	results := make([]*Result, 0, len(members))
	for _, member := range members {
		res, err := Load(store, Options{ManifestDir: fspath.Join(dir, member)})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func checkRequiredFeatures(m *manifest.Manifest, spec *features.Spec) error {
	deps := spec.DependencySet()
	for _, kind := range manifest.TargetKinds() {
		for _, t := range m.Targets(kind) {
			for i, req := range t.RequiredFeatures {
				if requirementDefined(req, spec, deps) {
					continue
				}
				key := fmt.Sprintf("%s.%s.required-features[%d]", kind, t.Name, i)
				return manifest.Errorf(manifest.ErrUndefinedReference, key,
					"%s target %q requires %q, which is not a feature of this package", kind, t.Name, req)
			}
		}
	}
	return nil
}

func requirementDefined(req string, spec *features.Spec, deps features.DependencySet) bool {
	if dep, feature, ok := strings.Cut(req, "/"); ok {
		return feature != "" && deps.Declared(dep)
	}
	return spec.Has(req)
}

func withPath(err error, name string) error {
	var me *manifest.Error
	if errors.As(err, &me) && me.Path == "" {
		return me.WithPath(name)
	}
	return err
}
