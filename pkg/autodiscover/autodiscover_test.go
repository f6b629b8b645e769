// SPDX-License-Identifier: MPL-2.0

package autodiscover

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/mock"

	"github.com/cargoscope/cargoscope/internal/testutil"
	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/storage"
)

type failingStorage struct {
	mock.Mock
}

func (m *failingStorage) ListEntries(dir string) ([]string, error) {
	args := m.Called(dir)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *failingStorage) ReadFile(name string) ([]byte, error) {
	args := m.Called(name)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func files(paths ...string) storage.Storage {
	fsys := fstest.MapFS{}
	for _, p := range paths {
		fsys[p] = &fstest.MapFile{Data: []byte("fn main() {}\n")}
	}
	return storage.FromFS(fsys)
}

func parse(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return m
}

type nameAndPath struct {
	name, path string
}

func summarize(targets []manifest.Target) []nameAndPath {
	out := make([]nameAndPath, len(targets))
	for i, t := range targets {
		out[i] = nameAndPath{t.Name, t.Path}
	}
	return out
}

func assertTargets(t *testing.T, kind string, got []manifest.Target, want []nameAndPath) {
	t.Helper()
	g := summarize(got)
	if len(g) != len(want) {
		t.Fatalf("%s targets = %v, want %v", kind, g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Errorf("%s target %d = %v, want %v", kind, i, g[i], want[i])
		}
	}
}

func TestDiscover_BinaryOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"demo\"\n")
	out, err := Discover(m, files("src/main.rs", "src/bin/tool.rs", "src/bin/extra/main.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	assertTargets(t, "bin", out.Bin, []nameAndPath{
		{"demo", "src/main.rs"},
		{"extra", "src/bin/extra/main.rs"},
		{"tool", "src/bin/tool.rs"},
	})
	for _, b := range out.Bin {
		if !b.Discovered || b.Kind != manifest.TargetBin {
			t.Errorf("target %+v should be a discovered bin", b)
		}
	}
}

func TestDiscover_ExplicitSuppressesDiscovered(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"demo\"\n[[bin]]\nname = \"foo\"\npath = \"src/bin/foo.rs\"\n")
	out, err := Discover(m, files("src/bin/foo.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	assertTargets(t, "bin", out.Bin, []nameAndPath{{"foo", "src/bin/foo.rs"}})
	if out.Bin[0].Discovered {
		t.Error("explicit target must not be marked discovered")
	}
}

func TestDiscover_SuppressionByNameAndPath(t *testing.T) {
	t.Parallel()

	m := parse(t, `
[package]
name = "demo"

[[bin]]
name = "tool"
path = "cmd/tool.rs"

[[bin]]
name = "renamed"
path = "./src/bin/other.rs"
`)
	out, err := Discover(m, files("src/bin/tool.rs", "src/bin/other.rs", "src/bin/new.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	assertTargets(t, "bin", out.Bin, []nameAndPath{
		{"tool", "cmd/tool.rs"},
		{"renamed", "./src/bin/other.rs"},
		{"new", "src/bin/new.rs"},
	})
}

func TestDiscover_PartialOverride(t *testing.T) {
	t.Parallel()

	m := parse(t, `
[package]
name = "demo"

[[bin]]
name = "extra"
required-features = ["cli"]

[[bin]]
name = "demo"
test = false

[[example]]
name = "missing"
`)
	out, err := Discover(m, files("src/main.rs", "src/bin/extra/main.rs", "src/bin/a.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	assertTargets(t, "bin", out.Bin, []nameAndPath{
		{"extra", "src/bin/extra/main.rs"},
		{"demo", "src/main.rs"},
		{"a", "src/bin/a.rs"},
	})
	if out.Bin[0].RequiredFeatures[0] != "cli" || out.Bin[0].Discovered {
		t.Errorf("partial override lost its settings: %+v", out.Bin[0])
	}
	assertTargets(t, "example", out.Example, []nameAndPath{{"missing", "examples/missing.rs"}})
}

func TestDiscover_DisabledKeepsDeclarations(t *testing.T) {
	t.Parallel()

	m := parse(t, `
[package]
name = "demo"
autobins = false
autotests = false

[[bin]]
name = "only"
path = "src/only.rs"

[[test]]
name = "declared"
`)
	out, err := Discover(m, files("src/main.rs", "src/bin/tool.rs", "tests/it.rs", "examples/ex.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	assertTargets(t, "bin", out.Bin, []nameAndPath{{"only", "src/only.rs"}})
	assertTargets(t, "test", out.Test, []nameAndPath{{"declared", ""}})
	assertTargets(t, "example", out.Example, []nameAndPath{{"ex", "examples/ex.rs"}})
}

func TestDiscover_OtherKinds(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"demo\"\n")
	out, err := Discover(m, files(
		"examples/hello world.rs",
		"examples/multi/main.rs",
		"examples/multi/helper.rs",
		"examples/notes/README.md",
		"tests/integration.rs",
		"benches/speed.rs",
	))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	assertTargets(t, "example", out.Example, []nameAndPath{
		{"hello-world", "examples/hello world.rs"},
		{"multi", "examples/multi/main.rs"},
	})
	assertTargets(t, "test", out.Test, []nameAndPath{{"integration", "tests/integration.rs"}})
	assertTargets(t, "bench", out.Bench, []nameAndPath{{"speed", "benches/speed.rs"}})
	if out.Lib != nil || len(out.Bin) != 0 {
		t.Errorf("nothing else should be discovered: lib=%+v bin=%+v", out.Lib, out.Bin)
	}
}

func TestDiscover_Library(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"auto-lib\"\n")
	out, err := Discover(m, files("src/lib.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if out.Lib == nil || out.Lib.Name != "auto_lib" || out.Lib.Path != "src/lib.rs" || !out.Lib.Discovered {
		t.Fatalf("Lib = %+v", out.Lib)
	}
	if len(out.Lib.CrateTypes) != 1 || out.Lib.CrateTypes[0] != "rlib" {
		t.Errorf("crate types = %v, want [rlib]", out.Lib.CrateTypes)
	}
}

func TestDiscover_LibraryFollowsFilePresence(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"demo\"\nautolib = false\n")
	out, err := Discover(m, files("src/lib.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if out.Lib == nil || out.Lib.Path != "src/lib.rs" {
		t.Errorf("Lib = %+v, want src/lib.rs discovered", out.Lib)
	}
}

func TestDiscover_EditionAndLibraryRequirements(t *testing.T) {
	t.Parallel()

	m := parse(t, `
[package]
name = "demo"
edition = "2021"

[lib]
required-features = ["std"]

[[bin]]
name = "pinned"
path = "src/pinned.rs"
edition = "2018"
`)
	out, err := Discover(m, files("src/lib.rs", "src/main.rs", "examples/hello.rs"))
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if out.Lib.Edition != manifest.Edition2021 || out.Lib.RequiredFeatures != nil {
		t.Errorf("Lib = %+v, want edition 2021 and no required features", out.Lib)
	}
	if len(out.Bin) != 2 || out.Bin[0].Edition != manifest.Edition2018 || out.Bin[1].Edition != manifest.Edition2021 {
		t.Errorf("Bin = %+v, want the explicit edition kept and the package edition on src/main.rs", out.Bin)
	}
	if len(out.Example) != 1 || out.Example[0].Edition != manifest.Edition2021 {
		t.Errorf("Example = %+v, want edition 2021", out.Example)
	}
}

func TestDiscover_GitMissingObject(t *testing.T) {
	t.Parallel()

	repo := testutil.MemoryRepo(t, map[string]string{
		"Cargo.toml":      "[package]\nname = \"demo\"\n",
		"src/main.rs":     "fn main() {}\n",
		"src/bin/tool.rs": "// tool\n",
	})
	testutil.DropObject(t, repo, "src/bin")
	store, err := storage.GitTree(repo, "", "")
	if err != nil {
		t.Fatalf("GitTree() error: %v", err)
	}

	_, err = Discover(parse(t, "[package]\nname = \"demo\"\n"), store)
	if !errors.Is(err, manifest.ErrStorage) {
		t.Fatalf("Discover() error = %v, want ErrStorage", err)
	}
}

func TestDiscover_ExplicitLibrary(t *testing.T) {
	t.Parallel()

	withPath := parse(t, "[package]\nname = \"a\"\n[lib]\npath = \"lib.rs\"\n")
	out, err := Discover(withPath, files("src/lib.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Lib.Path != "lib.rs" || out.Lib.Name != "" || out.Lib.CrateTypes != nil {
		t.Errorf("explicit lib with path should be untouched: %+v", out.Lib)
	}

	macro := parse(t, "[package]\nname = \"my-macros\"\n[lib]\nproc-macro = true\n")
	out, err = Discover(macro, files())
	if err != nil {
		t.Fatal(err)
	}
	if out.Lib.Path != "src/lib.rs" || out.Lib.Name != "my_macros" || out.Lib.CrateTypes[0] != "proc-macro" || out.Lib.Discovered {
		t.Errorf("explicit lib without path = %+v", out.Lib)
	}
}

func TestDiscover_BuildScriptAndReadme(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"a\"\n")
	out, err := Discover(m, files("build.rs", "README.txt", "README"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Package.Build == nil || out.Package.Build.Path != "build.rs" {
		t.Errorf("Build = %+v, want build.rs", out.Package.Build)
	}
	if got := out.Package.Readme.Value().Path; got != "README.txt" {
		t.Errorf("Readme = %q, want README.txt", got)
	}

	disabled := parse(t, "[package]\nname = \"a\"\nbuild = false\nreadme = false\n")
	out, err = Discover(disabled, files("build.rs", "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Package.Build.Enabled || out.Package.Readme.Value().Enabled {
		t.Error("disabled build script and readme must stay disabled")
	}
}

func TestDiscover_DuplicateDiscoveredNames(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"a\"\n")
	_, err := Discover(m, files("src/bin/x.rs", "src/bin/x/main.rs"))
	if !errors.Is(err, manifest.ErrDuplicateTarget) {
		t.Errorf("Discover() error = %v, want ErrDuplicateTarget", err)
	}
}

func TestDiscover_StorageFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("permission denied")
	store := &failingStorage{}
	store.On("ListEntries", "src").Return([]string{"bin"}, nil)
	store.On("ListEntries", "src/bin").Return(nil, boom)
	store.On("ListEntries", mock.Anything).Return(nil, fs.ErrNotExist)

	_, err := Discover(parse(t, "[package]\nname = \"a\"\n"), store)
	if !errors.Is(err, manifest.ErrStorage) || !errors.Is(err, boom) {
		t.Fatalf("Discover() error = %v, want ErrStorage wrapping the cause", err)
	}
	var me *manifest.Error
	if errors.As(err, &me) && me.Path != "src/bin" {
		t.Errorf("error path = %q, want src/bin", me.Path)
	}
}

func TestDiscover_MissingDirectoriesAreEmpty(t *testing.T) {
	t.Parallel()

	store := &failingStorage{}
	store.On("ListEntries", mock.Anything).Return(nil, fs.ErrNotExist)

	out, err := Discover(parse(t, "[package]\nname = \"a\"\n"), store)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if out.Lib != nil || len(out.Bin)+len(out.Example)+len(out.Test)+len(out.Bench) != 0 {
		t.Error("an empty tree should yield no targets")
	}
	store.AssertNotCalled(t, "ReadFile", mock.Anything)
}

func TestDiscover_VirtualManifest(t *testing.T) {
	t.Parallel()

	m := parse(t, "[workspace]\nmembers = [\"a\"]\n")
	out, err := Discover(m, files("src/main.rs"))
	if err != nil || out.Package != nil || len(out.Bin) != 0 {
		t.Errorf("Discover(virtual) = %+v, %v", out, err)
	}
}

func TestDiscover_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	m := parse(t, "[package]\nname = \"demo\"\n[[bin]]\nname = \"extra\"\n")
	if _, err := Discover(m, files("src/main.rs", "src/bin/extra.rs")); err != nil {
		t.Fatal(err)
	}
	if len(m.Bin) != 1 || m.Bin[0].Path != "" {
		t.Errorf("input manifest changed: %+v", m.Bin)
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"tool":        "tool",
		"my_tool":     "my-tool",
		"with-dash":   "with-dash",
		"hello world": "hello-world",
		"v1.2":        "v1-2",
		"héllo":       "héllo",
	}
	for in, want := range tests {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
