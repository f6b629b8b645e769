// SPDX-License-Identifier: MPL-2.0

package storage_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"

	"github.com/cargoscope/cargoscope/internal/testutil"
	"github.com/cargoscope/cargoscope/pkg/storage"
)

var fixture = map[string]string{
	"Cargo.toml":              "[package]\nname = \"demo\"\n",
	"src/main.rs":             "fn main() {}\n",
	"src/bin/tool.rs":         "fn main() {}\n",
	"src/bin/extra/main.rs":   "fn main() {}\n",
	"examples/hello.rs":       "fn main() {}\n",
	"crates/inner/Cargo.toml": "[package]\nname = \"inner\"\n",
}

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func aferoFS(t *testing.T, root string, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(fs, filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func adapters(t *testing.T) map[string]storage.Storage {
	t.Helper()

	tb, err := storage.Tarball(bytes.NewReader(testutil.CrateArchive(t, "demo-0.1.0/", fixture)), storage.StripRootDir())
	if err != nil {
		t.Fatalf("Tarball() error: %v", err)
	}
	gt, err := storage.GitTree(testutil.MemoryRepo(t, fixture), "HEAD", "")
	if err != nil {
		t.Fatalf("GitTree() error: %v", err)
	}
	nested := map[string]string{}
	for name, content := range fixture {
		nested["outer/"+name] = content
	}
	sub, err := storage.Sub(storage.FromFS(mapFS(nested)), "outer")
	if err != nil {
		t.Fatalf("Sub() error: %v", err)
	}

	return map[string]storage.Storage{
		"fs":      storage.FromFS(mapFS(fixture)),
		"dir":     storage.Dir(testutil.WriteTree(t, fixture)),
		"afero":   storage.Afero(aferoFS(t, "/ws", fixture), "/ws"),
		"tarball": tb,
		"git":     gt,
		"sub":     sub,
		"cached":  storage.NewCached(storage.FromFS(mapFS(fixture))),
	}
}

func TestAdapters_AgreeOnListings(t *testing.T) {
	t.Parallel()

	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := store.ListEntries("src/bin")
			if err != nil {
				t.Fatalf("ListEntries() error: %v", err)
			}
			slices.Sort(got)
			if want := []string{"extra", "tool.rs"}; !slices.Equal(got, want) {
				t.Errorf("ListEntries(src/bin) = %v, want %v", got, want)
			}

			root, err := store.ListEntries("")
			if err != nil {
				t.Fatalf("ListEntries(root) error: %v", err)
			}
			slices.Sort(root)
			if want := []string{"Cargo.toml", "crates", "examples", "src"}; !slices.Equal(root, want) {
				t.Errorf("ListEntries(root) = %v, want %v", root, want)
			}

			dot, err := store.ListEntries(".")
			if err != nil || len(dot) != len(root) {
				t.Errorf("ListEntries(.) = %v, %v; want same as root", dot, err)
			}

			data, err := store.ReadFile("src/bin/tool.rs")
			if err != nil || string(data) != "fn main() {}\n" {
				t.Errorf("ReadFile() = %q, %v", data, err)
			}
			if _, err := store.ReadFile("./crates/inner/Cargo.toml"); err != nil {
				t.Errorf("ReadFile(./crates/inner/Cargo.toml) error: %v", err)
			}
		})
	}
}

func TestAdapters_NotFound(t *testing.T) {
	t.Parallel()

	for name, store := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := store.ListEntries("benches"); !storage.IsNotFound(err) {
				t.Errorf("ListEntries(missing) error = %v, want not-found", err)
			}
			if _, err := store.ListEntries("src/main.rs"); !storage.IsNotFound(err) {
				t.Errorf("ListEntries(file) error = %v, want not-found", err)
			}
			if _, err := store.ReadFile("build.rs"); !storage.IsNotFound(err) {
				t.Errorf("ReadFile(missing) error = %v, want not-found", err)
			}
			if _, err := store.ReadFile("src"); !storage.IsNotFound(err) {
				t.Errorf("ReadFile(dir) error = %v, want not-found", err)
			}
			if _, err := store.ReadFile("../secret"); !errors.Is(err, storage.ErrInvalidPath) {
				t.Errorf("ReadFile(../secret) error = %v, want ErrInvalidPath", err)
			}
			if _, err := store.ListEntries("/etc"); !errors.Is(err, storage.ErrInvalidPath) {
				t.Errorf("ListEntries(/etc) error = %v, want ErrInvalidPath", err)
			}
		})
	}
}

func TestTarball_KeepsRootWithoutStrip(t *testing.T) {
	t.Parallel()

	store, err := storage.Tarball(bytes.NewReader(testutil.CrateArchive(t, "demo-0.1.0/", fixture)))
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.ListEntries("")
	if err != nil || !slices.Equal(got, []string{"demo-0.1.0"}) {
		t.Errorf("ListEntries(root) = %v, %v; want [demo-0.1.0]", got, err)
	}
}

func TestTarball_StripNeedsSingleRoot(t *testing.T) {
	t.Parallel()

	files := map[string]string{"a/Cargo.toml": "", "b/Cargo.toml": ""}
	store, err := storage.Tarball(bytes.NewReader(testutil.CrateArchive(t, "", files)), storage.StripRootDir())
	if err != nil {
		t.Fatal(err)
	}
	got, _ := store.ListEntries("")
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("ListEntries(root) = %v, want [a b]", got)
	}
}

func TestTarball_SkipsEscapingEntries(t *testing.T) {
	t.Parallel()

	store, err := storage.Tarball(bytes.NewReader(testutil.CrateArchive(t, "", map[string]string{"../evil.rs": "x", "ok.rs": "y"})))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := store.ListEntries("")
	if !slices.Equal(got, []string{"ok.rs"}) {
		t.Errorf("ListEntries(root) = %v, want [ok.rs]", got)
	}
}

func TestTarball_NotGzip(t *testing.T) {
	t.Parallel()

	if _, err := storage.Tarball(bytes.NewReader([]byte("plain text"))); err == nil {
		t.Error("Tarball() should reject non-gzip input")
	}
}

func TestGitTree_SubdirAndCommit(t *testing.T) {
	t.Parallel()

	repo := testutil.MemoryRepo(t, fixture)
	store, err := storage.GitTree(repo, "", "crates/inner")
	if err != nil {
		t.Fatalf("GitTree() error: %v", err)
	}
	if len(store.Commit()) != 40 {
		t.Errorf("Commit() = %q, want a 40-char hash", store.Commit())
	}
	got, err := store.ListEntries("")
	if err != nil || !slices.Equal(got, []string{"Cargo.toml"}) {
		t.Errorf("ListEntries(root) = %v, %v", got, err)
	}

	if _, err := storage.GitTree(repo, "", "missing"); !storage.IsNotFound(err) {
		t.Errorf("GitTree(missing subdir) error = %v, want not-found", err)
	}
	if _, err := storage.GitTree(repo, "no-such-branch", ""); err == nil {
		t.Error("GitTree(unknown revision) should fail")
	}
}

func TestGitTree_MissingObjectIsNotAbsence(t *testing.T) {
	t.Parallel()

	repo := testutil.MemoryRepo(t, fixture)
	testutil.DropObject(t, repo, "src/bin")
	testutil.DropObject(t, repo, "Cargo.toml")
	store, err := storage.GitTree(repo, "", "")
	if err != nil {
		t.Fatalf("GitTree() error: %v", err)
	}

	for _, dir := range []string{"src/bin", "src/bin/extra"} {
		if _, err := store.ListEntries(dir); err == nil || storage.IsNotFound(err) {
			t.Errorf("ListEntries(%s) error = %v, want a storage failure", dir, err)
		}
	}
	if _, err := store.ReadFile("Cargo.toml"); err == nil || storage.IsNotFound(err) {
		t.Errorf("ReadFile(Cargo.toml) error = %v, want a storage failure", err)
	}

	if _, err := store.ListEntries("src/nothing"); !storage.IsNotFound(err) {
		t.Errorf("ListEntries(src/nothing) error = %v, want not-found", err)
	}
	if _, err := store.ReadFile("src/nothing.rs"); !storage.IsNotFound(err) {
		t.Errorf("ReadFile(src/nothing.rs) error = %v, want not-found", err)
	}
}

func TestSub_Nested(t *testing.T) {
	t.Parallel()

	base := storage.FromFS(mapFS(fixture))
	outer, err := storage.Sub(base, "crates")
	if err != nil {
		t.Fatal(err)
	}
	inner, err := storage.Sub(outer, "inner")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inner.ReadFile("Cargo.toml"); err != nil {
		t.Errorf("ReadFile() through nested Sub error: %v", err)
	}
	if _, err := inner.ReadFile("../../Cargo.toml"); !errors.Is(err, storage.ErrInvalidPath) {
		t.Errorf("escaping read error = %v, want ErrInvalidPath", err)
	}
	if _, err := storage.Sub(base, "../x"); !errors.Is(err, storage.ErrInvalidPath) {
		t.Errorf("Sub(../x) error = %v, want ErrInvalidPath", err)
	}
}
