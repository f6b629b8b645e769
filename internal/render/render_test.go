// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cargoscope/cargoscope/internal/config"
	"github.com/cargoscope/cargoscope/pkg/resolve"
	"github.com/cargoscope/cargoscope/pkg/storage"
)

const demoManifest = `
[package]
name = "demo"
version = "0.3.0"
edition = "2021"
license = "MIT"

[dependencies]
serde = { version = "1", optional = true }
log = "0.4"

[dev-dependencies]
rand = "0.8"

[features]
default = ["std"]
std = ["log/std"]
`

func demoView(t *testing.T) View {
	t.Helper()
	tree := fstest.MapFS{
		"Cargo.toml":  {Data: []byte(demoManifest)},
		"src/lib.rs":  {Data: []byte("")},
		"src/main.rs": {Data: []byte("fn main() {}")},
	}
	res, err := resolve.Load(storage.FromFS(tree), resolve.Options{})
	require.NoError(t, err)
	return NewView(res)
}

func TestNewView(t *testing.T) {
	t.Parallel()

	v := demoView(t)
	require.NotNil(t, v.Package)
	assert.Equal(t, "demo", v.Package.Name)
	assert.Equal(t, "0.3.0", v.Package.Version)
	assert.Equal(t, "2021", v.Package.Edition)
	assert.True(t, v.Package.Publish)
	assert.Nil(t, v.WorkspaceRoot)

	var deps []string
	for _, d := range v.Dependencies {
		deps = append(deps, d.Table+":"+d.Name)
	}
	assert.Equal(t, []string{"dependencies:log", "dependencies:serde", "dev-dependencies:rand"}, deps)

	assert.Equal(t, []FeatureView{
		{Name: "default", Enables: []string{"std"}},
		{Name: "std", Enables: []string{"log/std"}},
	}, v.Features)
	assert.Equal(t, []string{"serde"}, v.ImplicitFeatures)

	require.Len(t, v.Targets, 2)
	assert.Equal(t, TargetView{Kind: "lib", Name: "demo", Path: "src/lib.rs", CrateTypes: []string{"rlib"}, Discovered: true}, v.Targets[0])
	assert.Equal(t, TargetView{Kind: "bin", Name: "demo", Path: "src/main.rs", Discovered: true}, v.Targets[1])
	assert.Len(t, v.TargetsOf("bin"), 1)
	assert.Len(t, v.TargetsOf(""), 2)
	assert.Empty(t, v.TargetsOf("bench"))
}

func TestEncode(t *testing.T) {
	t.Parallel()

	v := demoView(t)

	var js bytes.Buffer
	require.NoError(t, Encode(&js, config.FormatJSON, v))
	var decoded View
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, v, decoded)

	var ym bytes.Buffer
	require.NoError(t, Encode(&ym, config.FormatYAML, v))
	assert.Contains(t, ym.String(), "name: demo")
	var generic map[string]any
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &generic))
	assert.Contains(t, generic, "targets")

	err := Encode(&bytes.Buffer{}, config.FormatText, v)
	assert.ErrorIs(t, err, config.ErrInvalidOutputFormat)
}

func TestText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, demoView(t)))
	out := buf.String()
	for _, want := range []string{"demo", "0.3.0", "edition 2021", "MIT", "Dependencies", "Features", "default = [std]", "(optional dependency)", "Targets", "src/main.rs", "(discovered)"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "publish")
}

func TestText_Virtual(t *testing.T) {
	t.Parallel()

	tree := fstest.MapFS{
		"Cargo.toml": {Data: []byte("[workspace]\nmembers = []\n")},
	}
	res, err := resolve.Load(storage.FromFS(tree), resolve.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, NewView(res)))
	assert.True(t, strings.HasPrefix(buf.String(), "virtual manifest"))
}

func TestMembers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Members(&buf, MembersView{Root: "", Members: []string{"", "crates/core"}}))
	assert.Equal(t, "workspace .\n  .\n  crates/core\n", buf.String())
}
