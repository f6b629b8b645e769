// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cargoscope/cargoscope/pkg/fspath"
	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/storage"
)

const maxWalkDepth = 16

type (
	// MembersOption configures Members.
	MembersOption func(*membersConfig)

	membersConfig struct {
		skipDirs []string
	}
)

// DefaultSkipDirs are directory names never searched for members.
func DefaultSkipDirs() []string {
	return []string{"target", ".git"}
}

// WithSkipDirs replaces the directory names pruned while expanding globs.
func WithSkipDirs(names ...string) MembersOption {
	return func(c *membersConfig) { c.skipDirs = names }
}

// Members expands the root's `members` patterns (doublestar syntax) into the
// directories, relative to rootDir, that contain a Cargo.toml, drops those
// matched by `exclude`, and returns them sorted. A root that is also a
// package is listed as "".
func Members(root *manifest.Manifest, rootDir string, store storage.Storage, opts ...MembersOption) ([]string, error) {
	cfg := membersConfig{skipDirs: DefaultSkipDirs()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if root.Workspace == nil {
		return nil, manifest.Errorf(manifest.ErrInvalidWorkspaceRoot, "workspace", "manifest has no [workspace] table")
	}

	found := make(map[string]struct{})
	if root.Package != nil {
		found[""] = struct{}{}
	}

	for _, pattern := range root.Workspace.Members {
		clean, err := fspath.Clean(pattern)
		if err != nil {
			return nil, manifest.Errorf(manifest.ErrSchemaViolation, "workspace.members", "%q leaves the workspace", pattern)
		}
		if !doublestar.ValidatePattern(clean) {
			return nil, manifest.Errorf(manifest.ErrSchemaViolation, "workspace.members", "invalid glob %q", pattern)
		}

		if !strings.ContainsAny(clean, "*?[{") {
			ok, err := hasManifest(store, fspath.Join(rootDir, clean))
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, manifest.Errorf(manifest.ErrSchemaViolation, "workspace.members", "member %q has no %s", pattern, manifest.FileName)
			}
			found[clean] = struct{}{}
			continue
		}

		base, glob := doublestar.SplitPattern(clean)
		if base == "." {
			base = ""
		}
		depth := maxWalkDepth
		if !strings.Contains(glob, "**") {
			depth = strings.Count(glob, "/") + 1
		}
		err = walkDirs(store, rootDir, base, depth, cfg.skipDirs, func(rel string) {
			if ok, _ := doublestar.Match(clean, rel); ok {
				found[rel] = struct{}{}
			}
		})
		if err != nil {
			return nil, err
		}
	}

	members := make([]string, 0, len(found))
	for rel := range found {
		if !excluded(root.Workspace.Exclude, rel) {
			members = append(members, rel)
		}
	}
	slices.Sort(members)
	return members, nil
}

// IsMember reports whether memberDir belongs to the workspace rooted at rootDir.
func IsMember(root *manifest.Manifest, rootDir, memberDir string) bool {
	if root.Workspace == nil {
		return false
	}
	rel := fspath.Rel(rootDir, memberDir)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	if rel == "" {
		return root.Package != nil
	}
	if excluded(root.Workspace.Exclude, rel) {
		return false
	}
	for _, pattern := range root.Workspace.Members {
		clean, err := fspath.Clean(pattern)
		if err != nil {
			continue
		}
		if ok, _ := doublestar.Match(clean, rel); ok {
			return true
		}
	}
	return false
}

// excluded reports whether rel is an excluded path, lies below one, or
// matches an exclude glob.
func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		clean, err := fspath.Clean(p)
		if err != nil || clean == "" {
			continue
		}
		if rel == clean || strings.HasPrefix(rel, clean+"/") {
			return true
		}
		if ok, _ := doublestar.Match(clean, rel); ok {
			return true
		}
	}
	return false
}

// walkDirs visits every directory below rootDir/start (start included) that
// contains a manifest, descending at most depth levels.
func walkDirs(store storage.Storage, rootDir, start string, depth int, skip []string, visit func(rel string)) error {
	entries, err := store.ListEntries(fspath.Join(rootDir, start))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return manifest.StorageFailure(fspath.Join(rootDir, start), err)
	}
	if slices.Contains(entries, manifest.FileName) {
		visit(start)
	}
	if depth <= 0 {
		return nil
	}
	slices.Sort(entries)
	for _, name := range entries {
		if name == manifest.FileName || slices.Contains(skip, name) || strings.HasPrefix(name, ".") {
			continue
		}
		if err := walkDirs(store, rootDir, fspath.Join(start, name), depth-1, skip, visit); err != nil {
			return err
		}
	}
	return nil
}

func hasManifest(store storage.Storage, dir string) (bool, error) {
	entries, err := store.ListEntries(dir)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, manifest.StorageFailure(dir, err)
	}
	return slices.Contains(entries, manifest.FileName), nil
}
