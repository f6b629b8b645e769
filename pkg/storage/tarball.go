// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/cargoscope/cargoscope/pkg/fspath"
)

// MaxArchiveSize bounds the total uncompressed size Tarball will hold in memory.
const MaxArchiveSize = 256 << 20

// ErrArchiveTooLarge is returned when an archive exceeds MaxArchiveSize.
var ErrArchiveTooLarge = errors.New("archive exceeds size limit")

type (
	// TarballOption configures Tarball.
	TarballOption func(*tarballConfig)

	tarballConfig struct {
		stripRoot bool
	}

	// memTree is an immutable in-memory file tree.
	memTree struct {
		files map[string][]byte
		dirs  map[string][]string
	}
)

// StripRootDir removes the single top-level directory that package archives
// (`<name>-<version>/`) wrap their contents in. Archives with more than one
// top-level entry are left as they are.
func StripRootDir() TarballOption {
	return func(c *tarballConfig) { c.stripRoot = true }
}

// Tarball reads a gzip-compressed tar archive, such as a .crate file, fully
// into memory. Only regular files and directories are kept; links and other
// entry types are skipped, as are entries whose names leave the archive root.
func Tarball(r io.Reader, opts ...TarballOption) (Storage, error) {
	var cfg tarballConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip reader failed: %w", err)
	}
	defer gzr.Close()

	files := make(map[string][]byte)
	dirs := make(map[string]struct{})
	var total int64

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			slog.Debug("skipping archive entry", "name", header.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tar read failed: %w", err)
		}

		name, err := fspath.Clean(header.Name)
		if err != nil || name == "" {
			slog.Debug("skipping archive entry", "name", header.Name)
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			dirs[name] = struct{}{}
		case tar.TypeReg:
			total += header.Size
			if total > MaxArchiveSize {
				return nil, ErrArchiveTooLarge
			}
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("tar read failed: %s: %w", name, err)
			}
			files[name] = data
		}
	}

	if cfg.stripRoot {
		files, dirs = stripRoot(files, dirs)
	}
	return newMemTree(files, dirs), nil
}

func stripRoot(files map[string][]byte, dirs map[string]struct{}) (map[string][]byte, map[string]struct{}) {
	root := ""
	for name := range files {
		top, _, nested := strings.Cut(name, "/")
		if !nested || (root != "" && top != root) {
			return files, dirs
		}
		root = top
	}
	if root == "" {
		return files, dirs
	}

	prefix := root + "/"
	strippedFiles := make(map[string][]byte, len(files))
	for name, data := range files {
		strippedFiles[strings.TrimPrefix(name, prefix)] = data
	}
	strippedDirs := make(map[string]struct{}, len(dirs))
	for name := range dirs {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			strippedDirs[rest] = struct{}{}
		}
	}
	return strippedFiles, strippedDirs
}

func newMemTree(files map[string][]byte, explicitDirs map[string]struct{}) *memTree {
	t := &memTree{files: files, dirs: map[string][]string{"": nil}}
	children := make(map[string]map[string]struct{})
	addChild := func(dir, name string) {
		if children[dir] == nil {
			children[dir] = make(map[string]struct{})
		}
		children[dir][name] = struct{}{}
	}
	// Register every ancestor so that directories implied by file paths exist.
	var register func(p string)
	register = func(p string) {
		parent := fspath.Dir(p)
		addChild(parent, fspath.Base(p))
		if parent != "" {
			register(parent)
		}
	}
	for name := range files {
		register(name)
	}
	for name := range explicitDirs {
		register(name)
		if children[name] == nil {
			children[name] = make(map[string]struct{})
		}
	}
	for dir, names := range children {
		t.dirs[dir] = slices.Sorted(maps.Keys(names))
	}
	return t
}

func (t *memTree) ListEntries(dir string) ([]string, error) {
	dir, err := clean("list", dir)
	if err != nil {
		return nil, err
	}
	names, ok := t.dirs[dir]
	if !ok {
		return nil, notFound("list", dir)
	}
	return slices.Clone(names), nil
}

func (t *memTree) ReadFile(name string) ([]byte, error) {
	name, err := clean("read", name)
	if err != nil {
		return nil, err
	}
	data, ok := t.files[name]
	if !ok {
		return nil, notFound("read", name)
	}
	return slices.Clone(data), nil
}
