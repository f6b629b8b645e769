// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/klauspost/compress/gzip"
)

// commitTime keeps commit hashes stable across runs.
var commitTime = time.Unix(1700000000, 0)

// WriteTree writes files (slash-separated names to contents) into a new
// temporary directory and returns it.
func WriteTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return root
}

// CrateArchive returns a gzip-compressed tar archive of files, every name
// prefixed with prefix (for example "demo-0.1.0/"). Entries are written in
// name order so that equal inputs produce equal archives.
func CrateArchive(t testing.TB, prefix string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	for _, name := range sortedNames(files) {
		content := files[name]
		hdr := &tar.Header{Name: prefix + name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header for %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write tar entry %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// MemoryRepo returns an in-memory git repository with files committed on HEAD.
func MemoryRepo(t testing.TB, files map[string]string) *git.Repository {
	t.Helper()
	wtfs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), wtfs)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	commitFiles(t, repo, wtfs, files)
	return repo
}

// DropObject deletes the git object that path names at HEAD from a repository
// created by MemoryRepo. The tree entry stays behind, pointing at nothing.
func DropObject(t testing.TB, repo *git.Repository, path string) {
	t.Helper()
	mem, ok := repo.Storer.(*memory.Storage)
	if !ok {
		t.Fatalf("DropObject needs an in-memory repository, got %T", repo.Storer)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("failed to resolve HEAD: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("failed to load HEAD commit: %v", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		t.Fatalf("failed to load HEAD tree: %v", err)
	}
	entry, err := tree.FindEntry(path)
	if err != nil {
		t.Fatalf("failed to find %s: %v", path, err)
	}
	delete(mem.Objects, entry.Hash)
	delete(mem.Trees, entry.Hash)
	delete(mem.Blobs, entry.Hash)
}

// DiskRepo creates a git repository in a new temporary directory, commits
// files on HEAD and returns the directory.
func DiskRepo(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	wtfs := osfs.New(dir)
	dotgit, err := wtfs.Chroot(git.GitDirName)
	if err != nil {
		t.Fatalf("failed to create git directory: %v", err)
	}
	repo, err := git.Init(filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault()), wtfs)
	if err != nil {
		t.Fatalf("failed to init repository: %v", err)
	}
	commitFiles(t, repo, wtfs, files)
	return dir
}

func commitFiles(t testing.TB, repo *git.Repository, wtfs billy.Filesystem, files map[string]string) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to open worktree: %v", err)
	}
	for _, name := range sortedNames(files) {
		if err := util.WriteFile(wtfs, name, []byte(files[name]), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatalf("failed to stage %s: %v", name, err)
		}
	}
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: commitTime},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
