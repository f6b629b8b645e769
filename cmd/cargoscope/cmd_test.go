// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargoscope/cargoscope/internal/cache"
	"github.com/cargoscope/cargoscope/internal/config"
	"github.com/cargoscope/cargoscope/internal/render"
	"github.com/cargoscope/cargoscope/internal/testutil"
)

// Tests in this file are not parallel: every command run installs the
// process-wide slog logger.

const (
	wsRoot = `
[workspace]
members = ["crates/*"]

[workspace.package]
version = "2.1.0"
edition = "2021"

[workspace.dependencies]
anyhow = "1"
`
	wsMember = `
[package]
name = "app"
version.workspace = true
edition.workspace = true

[dependencies]
anyhow.workspace = true

[features]
default = ["cli"]
cli = []
`
	standalone = `
[package]
name = "demo"
version = "0.1.0"
edition = "2021"
`
)

type (
	staticConfig struct {
		cfg *config.Config
	}

	runResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	cfg := *s.cfg
	return &cfg, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func run(t *testing.T, cfg *config.Config, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Config: staticConfig{cfg: cfg}, Stdout: &stdout, Stderr: &stderr})
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func workspaceFiles() map[string]string {
	return map[string]string{
		"Cargo.toml":                wsRoot,
		"crates/app/Cargo.toml":     wsMember,
		"crates/app/src/main.rs":    "fn main() {}",
		"crates/app/src/bin/aux.rs": "fn main() {}",
	}
}

func workspaceDir(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, workspaceFiles())
}

func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "error %v is not an ExitError", err)
	return exitErr.Code
}

func TestResolve_WorkspaceMemberJSON(t *testing.T) {
	dir := workspaceDir(t)

	res := run(t, testConfig(t), "resolve", filepath.Join(dir, "crates", "app"), "-f", "json")
	require.NoError(t, res.err, res.stderr)

	var v render.View
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &v))
	require.NotNil(t, v.Package)
	assert.Equal(t, "2.1.0", v.Package.Version)
	assert.Equal(t, "2021", v.Package.Edition)
	assert.Equal(t, "crates/app", v.Dir)
	require.NotNil(t, v.WorkspaceRoot)
	assert.Equal(t, "", *v.WorkspaceRoot)
	require.Len(t, v.Dependencies, 1)
	assert.True(t, v.Dependencies[0].FromWorkspace)
}

func TestResolve_Workspace(t *testing.T) {
	dir := workspaceDir(t)

	res := run(t, testConfig(t), "resolve", dir, "--workspace", "-f", "yaml")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "name: app")

	res = run(t, testConfig(t), "resolve", dir, "--workspace")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "app")
}

func TestTargets(t *testing.T) {
	dir := workspaceDir(t)

	res := run(t, testConfig(t), "targets", filepath.Join(dir, "crates", "app"), "--kind", "bin")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "src/main.rs")
	assert.Contains(t, res.stdout, "src/bin/aux.rs")

	res = run(t, testConfig(t), "targets", dir, "--kind", "plugin")
	assert.Equal(t, ExitUsage, exitCodeOf(t, res.err))
}

func TestFeatures(t *testing.T) {
	dir := workspaceDir(t)

	res := run(t, testConfig(t), "features", filepath.Join(dir, "crates", "app"), "-f", "json")
	require.NoError(t, res.err, res.stderr)

	var out featuresOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, []render.FeatureView{
		{Name: "cli", Enables: []string{}},
		{Name: "default", Enables: []string{"cli"}},
	}, out.Features)
}

func TestWorkspaceMembers(t *testing.T) {
	dir := workspaceDir(t)

	for _, path := range []string{dir, filepath.Join(dir, "crates", "app")} {
		res := run(t, testConfig(t), "workspace", "members", path, "-f", "json")
		require.NoError(t, res.err, res.stderr)

		var v render.MembersView
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &v))
		assert.Equal(t, render.MembersView{Root: "", Members: []string{"crates/app"}}, v)
	}
}

func TestResolve_Errors(t *testing.T) {
	missingField := testutil.WriteTree(t, map[string]string{
		"Cargo.toml": "[package]\nname = \"lonely\"\nversion.workspace = true\n",
	})

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{
			name:     "inherits without a workspace",
			args:     []string{"resolve", missingField},
			wantCode: ExitFailure,
			wantErr:  "cargoscope explain",
		},
		{
			name:     "missing directory",
			args:     []string{"resolve", filepath.Join(missingField, "nope")},
			wantCode: ExitSource,
			wantErr:  "SourceFetchFailed",
		},
		{
			name:     "bad format",
			args:     []string{"resolve", missingField, "-f", "toml"},
			wantCode: ExitUsage,
			wantErr:  "invalid output format",
		},
		{
			name:     "rev without git",
			args:     []string{"resolve", "--rev", "main"},
			wantCode: ExitUsage,
			wantErr:  "--rev requires --git",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, testConfig(t), tt.args...)
			require.Error(t, res.err)
			assert.Equal(t, tt.wantCode, exitCodeOf(t, res.err))
			assert.Contains(t, res.stderr, tt.wantErr)
		})
	}
}

func TestResolve_CrateIsCached(t *testing.T) {
	archive := testutil.CrateArchive(t, "demo-0.1.0/", map[string]string{
		"Cargo.toml": standalone,
		"src/lib.rs": "",
	})
	path := filepath.Join(t.TempDir(), "demo-0.1.0.crate")
	require.NoError(t, os.WriteFile(path, archive, 0o644))
	cfg := testConfig(t)

	for range 2 {
		res := run(t, cfg, "resolve", "--crate", path, "-f", "json")
		require.NoError(t, res.err, res.stderr)
		var v render.View
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &v))
		assert.Equal(t, "demo", v.Package.Name)
	}

	store, err := cache.Open(cache.Options{Dir: cfg.Cache.Dir})
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var cached render.View
	require.NoError(t, store.GetJSON(cache.TarballKey(archive, ""), &cached))
	assert.Equal(t, "0.1.0", cached.Package.Version)
}

func TestResolve_CacheDisabled(t *testing.T) {
	archive := testutil.CrateArchive(t, "demo-0.1.0/", map[string]string{"Cargo.toml": standalone})
	path := filepath.Join(t.TempDir(), "demo.crate")
	require.NoError(t, os.WriteFile(path, archive, 0o644))
	cfg := testConfig(t)
	cfg.Cache.Enabled = false

	res := run(t, cfg, "resolve", "--crate", path)
	require.NoError(t, res.err, res.stderr)
	_, err := os.Stat(cfg.Cache.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_GitRevision(t *testing.T) {
	dir := testutil.DiskRepo(t, workspaceFiles())

	// Uncommitted edits are invisible to a git source.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crates", "app", "src", "bin", "extra.rs"), []byte(""), 0o644))

	res := run(t, testConfig(t), "targets", "--git", dir, "--rev", "HEAD", "-p", "crates/app", "-f", "json")
	require.NoError(t, res.err, res.stderr)

	var targets []render.TargetView
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &targets))
	var paths []string
	for _, target := range targets {
		paths = append(paths, target.Path)
	}
	assert.Equal(t, []string{"src/main.rs", "src/bin/aux.rs"}, paths)
}

func TestExplain(t *testing.T) {
	res := run(t, testConfig(t), "explain")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "CyclicFeature")
	assert.Contains(t, res.stdout, "MissingWorkspaceField")

	res = run(t, testConfig(t), "explain", "cyclic-feature")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, strings.ToLower(res.stdout), "cycle")

	res = run(t, testConfig(t), "explain", "NoSuchKind")
	assert.Equal(t, ExitUsage, exitCodeOf(t, res.err))
	assert.Contains(t, res.stderr, "cargoscope explain")
}

func TestConfigShow(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	res := run(t, testConfig(t), "config", "show", "-f", "json")
	require.NoError(t, res.err, res.stderr)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &cfg))
	assert.Equal(t, config.FormatText, cfg.Output.Format)

	res = run(t, testConfig(t), "config", "show")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "(using defaults)")
}

func TestConfigInit(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	res := run(t, testConfig(t), "config", "init")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Created configuration")
	assert.FileExists(t, filepath.Join(home, "cargoscope", "config.cue"))

	res = run(t, testConfig(t), "config", "init")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "already exists")
}

func TestGetVersionString(t *testing.T) {
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-01-02T03:04:05Z"
	if got, want := getVersionString(), "v1.2.3 (commit: abc1234, built: 2026-01-02T03:04:05Z)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}

	Version = "dev"
	if got, want := getVersionString(), "dev (built from source)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}
