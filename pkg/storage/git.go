// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// Git is a Storage over the tree of one commit. It never touches a worktree,
// so uncommitted changes are invisible and the content is immutable.
type Git struct {
	root   *object.Tree
	commit plumbing.Hash
}

// OpenRepository opens a local repository, or clones a remote one into
// memory when location does not exist on disk.
func OpenRepository(ctx context.Context, location string) (*git.Repository, error) {
	if _, err := os.Stat(location); err == nil {
		repo, err := git.PlainOpenWithOptions(location, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, fmt.Errorf("open repository %s: %w", location, err)
		}
		return repo, nil
	}
	repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, &git.CloneOptions{
		URL:        location,
		NoCheckout: true,
	})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", location, err)
	}
	return repo, nil
}

// GitTree returns a Storage over subdir of the tree at revision, which may be
// anything git rev-parse understands (branch, tag, hash, HEAD~1, ...).
func GitTree(repo *git.Repository, revision, subdir string) (*Git, error) {
	if revision == "" {
		revision = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", revision, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree of %s: %w", hash, err)
	}

	subdir, err = clean("open", subdir)
	if err != nil {
		return nil, err
	}
	if subdir != "" {
		if tree, err = subtree(tree, subdir); err != nil {
			return nil, err
		}
	}
	return &Git{root: tree, commit: *hash}, nil
}

// Commit returns the hex hash of the commit the storage reads from.
func (g *Git) Commit() string {
	return g.commit.String()
}

// ListEntries implements Storage.
func (g *Git) ListEntries(dir string) ([]string, error) {
	dir, err := clean("list", dir)
	if err != nil {
		return nil, err
	}
	tree := g.root
	if dir != "" {
		if tree, err = subtree(g.root, dir); err != nil {
			return nil, err
		}
	}
	names := make([]string, len(tree.Entries))
	for i, e := range tree.Entries {
		names[i] = e.Name
	}
	return names, nil
}

// ReadFile implements Storage.
func (g *Git) ReadFile(name string) ([]byte, error) {
	name, err := clean("read", name)
	if err != nil {
		return nil, err
	}
	entry, err := g.root.FindEntry(name)
	if err != nil {
		if isAbsent(err) {
			return nil, notFound("read", name)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if !entry.Mode.IsFile() {
		return nil, notFound("read", name)
	}
	// The entry exists, so a failed lookup here means the blob is missing.
	file, err := g.root.File(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if file.Size > MaxArchiveSize {
		return nil, fmt.Errorf("%s: %w", name, ErrArchiveTooLarge)
	}
	r, err := file.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func subtree(root *object.Tree, dir string) (*object.Tree, error) {
	entry, err := root.FindEntry(dir)
	if err != nil {
		if isAbsent(err) {
			return nil, notFound("list", dir)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if entry.Mode != filemode.Dir {
		return nil, notFound("list", dir)
	}
	// The entry exists, so a failed lookup here means the tree object is missing.
	tree, err := root.Tree(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return tree, nil
}

// isAbsent reports whether FindEntry failed because the path is not in the
// tree. Missing or corrupt objects are storage failures, not absence.
func isAbsent(err error) bool {
	return errors.Is(err, object.ErrEntryNotFound) ||
		errors.Is(err, object.ErrDirectoryNotFound) ||
		errors.Is(err, object.ErrFileNotFound)
}
