// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cargoscope/cargoscope/internal/cache"
	"github.com/cargoscope/cargoscope/internal/issue"
	"github.com/cargoscope/cargoscope/pkg/fspath"
	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/storage"
)

var (
	errUsage  = errors.New("invalid usage")
	errSource = errors.New("source unavailable")
)

type (
	// sourceFlags selects where manifests are read from.
	sourceFlags struct {
		crate string
		git   string
		rev   string
		pkg   string
	}

	// source is an opened manifest source.
	source struct {
		store storage.Storage
		// dir is the package directory inside store.
		dir string
		// key identifies immutable sources in the cache; empty for directories.
		key cache.Key
		// label names the source in messages.
		label string
	}
)

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.crate, "crate", "", "read from a .crate archive instead of a directory")
	cmd.Flags().StringVar(&f.git, "git", "", "read from a git repository (local path or URL)")
	cmd.Flags().StringVar(&f.rev, "rev", "", "git revision to read (default HEAD)")
	cmd.Flags().StringVarP(&f.pkg, "package", "p", "", "package directory inside the source")
	cmd.MarkFlagsMutuallyExclusive("crate", "git")
}

// open opens the source selected by the flags, or the directory in args.
func (f *sourceFlags) open(ctx context.Context, args []string) (*source, error) {
	if len(args) > 0 && (f.crate != "" || f.git != "") {
		return nil, fmt.Errorf("%w: a path argument cannot be combined with --crate or --git", errUsage)
	}
	if f.rev != "" && f.git == "" {
		return nil, fmt.Errorf("%w: --rev requires --git", errUsage)
	}
	pkg, err := fspath.Clean(filepath.ToSlash(f.pkg))
	if err != nil {
		return nil, fmt.Errorf("%w: --package %q: %w", errUsage, f.pkg, err)
	}

	switch {
	case f.crate != "":
		return openCrate(f.crate, pkg)
	case f.git != "":
		return openGit(ctx, f.git, f.rev, pkg)
	default:
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		return openDir(path, pkg)
	}
}

func openCrate(path, pkg string) (*source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sourceError(path, err)
	}
	store, err := storage.Tarball(bytes.NewReader(data), storage.StripRootDir())
	if err != nil {
		return nil, sourceError(path, err)
	}
	return &source{store: store, dir: pkg, key: cache.TarballKey(data, pkg), label: path}, nil
}

func openGit(ctx context.Context, location, rev, pkg string) (*source, error) {
	repo, err := storage.OpenRepository(ctx, location)
	if err != nil {
		return nil, sourceError(location, err)
	}
	tree, err := storage.GitTree(repo, rev, "")
	if err != nil {
		return nil, sourceError(location, err)
	}
	label := location
	if rev != "" {
		label += "@" + rev
	}
	return &source{store: tree, dir: pkg, key: cache.GitKey(tree.Commit(), pkg), label: label}, nil
}

// openDir roots the storage at the outermost ancestor holding a Cargo.toml,
// so that workspace roots above path stay reachable.
func openDir(path, pkg string) (*source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, sourceError(path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, sourceError(path, err)
	}
	if !info.IsDir() {
		if filepath.Base(abs) != manifest.FileName {
			return nil, fmt.Errorf("%w: %s is neither a directory nor a %s", errUsage, path, manifest.FileName)
		}
		abs = filepath.Dir(abs)
	}

	top := searchRoot(abs)
	rel, err := filepath.Rel(top, abs)
	if err != nil {
		return nil, sourceError(path, err)
	}
	return &source{
		store: storage.NewCached(storage.Dir(top)),
		dir:   fspath.Join(filepath.ToSlash(rel), pkg),
		label: filepath.Join(abs, filepath.FromSlash(pkg)),
	}, nil
}

func searchRoot(dir string) string {
	top := dir
	for current := dir; ; {
		if _, err := os.Stat(filepath.Join(current, manifest.FileName)); err == nil {
			top = current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return top
		}
		current = parent
	}
}

func sourceError(resource string, err error) error {
	return issue.NewErrorContext().
		WithOperation("open source").
		WithResource(resource).
		WithSuggestion("Check that the path, archive or repository exists and is readable").
		WithIssue(issue.SourceFetchFailedId).
		Wrap(fmt.Errorf("%w: %w", errSource, err)).
		BuildError()
}
