// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"log/slog"

	"github.com/cargoscope/cargoscope/pkg/fspath"
	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/storage"
)

// Root is a workspace root manifest and the storage directory it lives in.
type Root struct {
	Manifest *manifest.Manifest
	Dir      string
}

// RelativeTo returns the path from memberDir to the root's directory, suitable
// for WithRootDir.
func (r *Root) RelativeTo(memberDir string) string {
	return fspath.Rel(memberDir, r.Dir)
}

// Locate finds the workspace root for the package in memberDir. With a hint
// (the member's `package.workspace` value) only that directory is tried;
// otherwise each strict ancestor of memberDir is searched, nearest first, for
// a Cargo.toml with a [workspace] table.
func Locate(store storage.Storage, memberDir, hint string) (*Root, error) {
	if hint != "" {
		dir, err := fspath.Clean(fspath.Join(memberDir, hint))
		if err != nil {
			return nil, manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "package.workspace", "%q leaves the storage root", hint)
		}
		m, err := readManifest(store, dir)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil, manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "package.workspace", "no %s in %q", manifest.FileName, hint)
			}
			return nil, err
		}
		if m.Workspace == nil {
			return nil, manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "package.workspace", "%q has no [workspace] table", hint)
		}
		return &Root{Manifest: m, Dir: dir}, nil
	}

	for _, dir := range fspath.Ancestors(memberDir) {
		m, err := readManifest(store, dir)
		if err != nil {
			if storage.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if m.Workspace == nil {
			continue
		}
		slog.Debug("located workspace root", "member", memberDir, "root", dir)
		return &Root{Manifest: m, Dir: dir}, nil
	}
	return nil, manifest.Errorf(manifest.ErrMissingWorkspaceField, "workspace", "no workspace root found above %q", memberDir)
}

// readManifest reads and parses dir/Cargo.toml. Not-found is returned as is;
// other storage failures become StorageError.
func readManifest(store storage.Storage, dir string) (*manifest.Manifest, error) {
	name := fspath.Join(dir, manifest.FileName)
	data, err := store.ReadFile(name)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, err
		}
		return nil, manifest.StorageFailure(name, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, withPath(err, name)
	}
	return m, nil
}

func withPath(err error, name string) error {
	if me, ok := err.(*manifest.Error); ok {
		return me.WithPath(name)
	}
	return err
}
