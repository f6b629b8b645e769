// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/cargoscope/cargoscope/pkg/fspath"
)

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{".", ""},
		{"./", ""},
		{"src", "src"},
		{"./src/bin/", "src/bin"},
		{"src//bin", "src/bin"},
		{"src/./main.rs", "src/main.rs"},
		{"src/bin/../lib.rs", "src/lib.rs"},
		{`src\bin\tool.rs`, "src/bin/tool.rs"},
	}

	for _, tt := range tests {
		got, err := fspath.Clean(tt.in)
		if err != nil {
			t.Errorf("Clean(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClean_EscapesRoot(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"/etc/passwd", "..", "../Cargo.toml", "src/../../x"} {
		_, err := fspath.Clean(in)
		if !errors.Is(err, fspath.ErrEscapesRoot) {
			t.Errorf("Clean(%q) error = %v, want ErrEscapesRoot", in, err)
		}
	}
}

func TestJoinAndDir(t *testing.T) {
	t.Parallel()

	if got := fspath.Join("", "src", "bin"); got != "src/bin" {
		t.Errorf("Join() = %q, want %q", got, "src/bin")
	}
	if got := fspath.Join("", ""); got != "" {
		t.Errorf("Join() of empties = %q, want empty", got)
	}
	if got := fspath.Dir("Cargo.toml"); got != "" {
		t.Errorf("Dir(top-level) = %q, want empty", got)
	}
	if got := fspath.Dir("crates/a/Cargo.toml"); got != "crates/a" {
		t.Errorf("Dir() = %q, want %q", got, "crates/a")
	}
}

func TestStem(t *testing.T) {
	t.Parallel()

	if got := fspath.Stem("src/bin/my_tool.rs"); got != "my_tool" {
		t.Errorf("Stem() = %q, want %q", got, "my_tool")
	}
	if got := fspath.Stem("extra"); got != "extra" {
		t.Errorf("Stem() = %q, want %q", got, "extra")
	}
}

func TestAncestors(t *testing.T) {
	t.Parallel()

	got := fspath.Ancestors("crates/core/macros")
	want := []string{"crates/core", "crates", ""}
	if !slices.Equal(got, want) {
		t.Errorf("Ancestors() = %v, want %v", got, want)
	}
	if got := fspath.Ancestors(""); got != nil {
		t.Errorf("Ancestors(root) = %v, want nil", got)
	}
}

func TestRel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, target, want string
	}{
		{"crates/a", "", "../.."},
		{"", "crates/a", "crates/a"},
		{"crates/a", "crates/b", "../b"},
		{"crates/a", "crates/a", ""},
	}
	for _, tt := range tests {
		if got := fspath.Rel(tt.from, tt.target); got != tt.want {
			t.Errorf("Rel(%q, %q) = %q, want %q", tt.from, tt.target, got, tt.want)
		}
	}
}
