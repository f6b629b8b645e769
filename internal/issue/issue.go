// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"errors"
	"io/fs"
	"maps"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/cargoscope/cargoscope/pkg/manifest"
)

const (
	ManifestNotFoundId Id = iota + 1
	MalformedSourceId
	SchemaViolationId
	MissingWorkspaceFieldId
	MissingWorkspaceDependencyId
	InvalidWorkspaceRootId
	ConflictingDependencySpecId
	UndefinedReferenceId
	StorageErrorId
	DuplicateTargetId
	CyclicFeatureId
	DelegatedValueId
	SourceFetchFailedId
	ConfigLoadFailedId
)

const cargoReference = "https://doc.rust-lang.org/cargo/reference/"

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		name     string      // name accepted by `cargoscope explain`
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // reference pages for the manifest feature involved
	}
)

func (i *Issue) Id() Id {
	return i.id
}

// Name returns the error kind name the issue explains.
func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue page with the glamour style at stylePath
// ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id:   ManifestNotFoundId,
		name: "ManifestNotFound",
		mdMsg: `
# No Cargo.toml found!

The source does not contain a manifest in the selected package directory.

## Things you can try:
- Point cargoscope at the package directory:
~~~
$ cargoscope resolve path/to/crate
~~~

- For a workspace member inside an archive or repository, select it with ` + "`--package`" + `:
~~~
$ cargoscope resolve --git https://github.com/owner/repo --package crates/core
~~~`,
		docLinks: []HttpLink{cargoReference + "manifest.html"},
	}

	malformedSourceIssue = &Issue{
		id:   MalformedSourceId,
		name: "MalformedSource",
		mdMsg: `
# The manifest is not valid TOML!

The file could not be decoded. The error above shows the line and column
where decoding stopped.

## Common issues:
- A table header is missing its closing bracket
- A key is defined twice in the same table
- A string is missing its closing quote
- The file is not UTF-8 encoded`,
		docLinks: []HttpLink{"https://toml.io/en/v1.0.0"},
	}

	schemaViolationIssue = &Issue{
		id:   SchemaViolationId,
		name: "SchemaViolation",
		mdMsg: `
# A manifest key has the wrong shape!

The TOML is valid but a known key holds a value of the wrong type, or a
required key is missing.

## Common issues:
- ` + "`[package]`" + ` without a ` + "`name`" + `
- ` + "`edition = 2021`" + ` instead of ` + "`edition = \"2021\"`" + `
- A detailed dependency without ` + "`version`" + `, ` + "`path`" + ` or ` + "`git`" + `
- A feature with the same name as an optional dependency that is never
  activated with ` + "`dep:`" + `
- ` + "`[[bin]]`" + ` entries without a ` + "`name`",
		docLinks: []HttpLink{cargoReference + "manifest.html"},
	}

	missingWorkspaceFieldIssue = &Issue{
		id:   MissingWorkspaceFieldId,
		name: "MissingWorkspaceField",
		mdMsg: `
# An inherited field is not defined by the workspace!

The package sets ` + "`field.workspace = true`" + ` but the workspace root has
no value for it in ` + "`[workspace.package]`" + `, or no workspace root could be
found above the package.

## Things you can try:
- Define the field in the root manifest:
~~~toml
[workspace.package]
license = "MIT OR Apache-2.0"
~~~

- Or set the value directly in the member's ` + "`[package]`" + ` table
- Check that the member lives below the workspace root, or set
  ` + "`package.workspace`" + ` to the root's directory`,
		docLinks: []HttpLink{cargoReference + "workspaces.html#the-package-table"},
	}

	missingWorkspaceDependencyIssue = &Issue{
		id:   MissingWorkspaceDependencyId,
		name: "MissingWorkspaceDependency",
		mdMsg: `
# An inherited dependency is not defined by the workspace!

A dependency is declared with ` + "`workspace = true`" + ` but
` + "`[workspace.dependencies]`" + ` in the root manifest has no entry with that key.

## Things you can try:
~~~toml
[workspace.dependencies]
serde = { version = "1", features = ["derive"] }
~~~`,
		docLinks: []HttpLink{cargoReference + "workspaces.html#the-dependencies-table"},
	}

	invalidWorkspaceRootIssue = &Issue{
		id:   InvalidWorkspaceRootId,
		name: "InvalidWorkspaceRoot",
		mdMsg: `
# The workspace root cannot be inherited from!

Workspace defaults are final: ` + "`[workspace.package]`" + ` and
` + "`[workspace.dependencies]`" + ` must hold concrete values and may not use
` + "`workspace = true`" + ` themselves. The manifest used as a root must also have a
` + "`[workspace]`" + ` table.

## Things you can try:
- Replace the ` + "`workspace = true`" + ` markers in the root with values
- Check the ` + "`package.workspace`" + ` path of the member`,
		docLinks: []HttpLink{cargoReference + "workspaces.html"},
	}

	conflictingDependencySpecIssue = &Issue{
		id:   ConflictingDependencySpecId,
		name: "ConflictingDependencySpec",
		mdMsg: `
# An inherited dependency redefines its source!

A member that inherits a dependency with ` + "`workspace = true`" + ` may only add
` + "`features`" + `, ` + "`optional`" + ` and ` + "`default-features`" + `. The version and
source (` + "`path`" + `, ` + "`git`" + `, ` + "`registry`" + `, ...) belong to the workspace.

## Things you can try:
~~~toml
[dependencies]
serde = { workspace = true, features = ["rc"] }
~~~`,
		docLinks: []HttpLink{cargoReference + "specifying-dependencies.html#inheriting-a-dependency-from-a-workspace"},
	}

	undefinedReferenceIssue = &Issue{
		id:   UndefinedReferenceId,
		name: "UndefinedReference",
		mdMsg: `
# A feature refers to something that does not exist!

| Token | Requires |
|---|---|
| ` + "`name`" + ` | a feature, or an optional dependency never used with ` + "`dep:`" + ` |
| ` + "`dep:name`" + ` | an optional dependency |
| ` + "`name/feature`" + ` | a dependency |
| ` + "`name?/feature`" + ` | an optional dependency |

Target ` + "`required-features`" + ` entries follow the same rules.`,
		docLinks: []HttpLink{cargoReference + "features.html"},
	}

	storageErrorIssue = &Issue{
		id:   StorageErrorId,
		name: "StorageError",
		mdMsg: `
# The source could not be read!

Reading a file or listing a directory failed for a reason other than the
entry not existing.

## Things you can try:
- Check file and directory permissions
- For archives, check that the file is a gzip-compressed tarball
- Run with ` + "`--verbose`" + ` to see the full error chain`,
	}

	duplicateTargetIssue = &Issue{
		id:   DuplicateTargetId,
		name: "DuplicateTarget",
		mdMsg: `
# Two targets share a name!

Target names must be unique within a kind. This also happens when both
` + "`src/bin/tool.rs`" + ` and ` + "`src/bin/tool/main.rs`" + ` exist.

## Things you can try:
- Rename one of the files or targets
- Declare the target explicitly with a ` + "`path`" + ``,
		docLinks: []HttpLink{cargoReference + "cargo-targets.html#target-auto-discovery"},
	}

	cyclicFeatureIssue = &Issue{
		id:   CyclicFeatureId,
		name: "CyclicFeature",
		mdMsg: `
# Features enable each other in a cycle!

The error above lists the features along the cycle. Remove one of the
entries so that the feature graph has no loop.`,
		docLinks: []HttpLink{cargoReference + "features.html"},
	}

	delegatedValueIssue = &Issue{
		id:   DelegatedValueId,
		name: "DelegatedValue",
		mdMsg: `
# A value still points at the workspace!

The manifest was read before workspace inheritance was resolved. Resolve it
against its workspace root first.`,
		docLinks: []HttpLink{cargoReference + "workspaces.html"},
	}

	sourceFetchFailedIssue = &Issue{
		id:   SourceFetchFailedId,
		name: "SourceFetchFailed",
		mdMsg: `
# The source could not be opened!

## Things you can try:
- Check the repository URL and your network connection
- Check that ` + "`--rev`" + ` names an existing branch, tag or commit
- Check that the ` + "`.crate`" + ` file exists and is not truncated`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "ConfigLoadFailed",
		mdMsg: `
# Failed to load the configuration!

## Things you can try:
- Show the effective configuration:
~~~
$ cargoscope config show
~~~

- Write a fresh configuration file:
~~~
$ cargoscope config init
~~~

- Allowed values for ` + "`output.format`" + ` are ` + "`text`" + `, ` + "`yaml`" + ` and ` + "`json`" + ``,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():           manifestNotFoundIssue,
		malformedSourceIssue.Id():            malformedSourceIssue,
		schemaViolationIssue.Id():            schemaViolationIssue,
		missingWorkspaceFieldIssue.Id():      missingWorkspaceFieldIssue,
		missingWorkspaceDependencyIssue.Id(): missingWorkspaceDependencyIssue,
		invalidWorkspaceRootIssue.Id():       invalidWorkspaceRootIssue,
		conflictingDependencySpecIssue.Id():  conflictingDependencySpecIssue,
		undefinedReferenceIssue.Id():         undefinedReferenceIssue,
		storageErrorIssue.Id():               storageErrorIssue,
		duplicateTargetIssue.Id():            duplicateTargetIssue,
		cyclicFeatureIssue.Id():              cyclicFeatureIssue,
		delegatedValueIssue.Id():             delegatedValueIssue,
		sourceFetchFailedIssue.Id():          sourceFetchFailedIssue,
		configLoadFailedIssue.Id():           configLoadFailedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for issue := range maps.Values(issues) {
		out = append(out, issue)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by name, ignoring case and dashes, so that
// "missing-workspace-field" and "MissingWorkspaceField" are equivalent.
func Lookup(name string) (*Issue, bool) {
	want := foldName(name)
	for _, issue := range issues {
		if foldName(issue.name) == want {
			return issue, true
		}
	}
	return nil, false
}

// ForError returns the issue explaining err, or nil.
func ForError(err error) *Issue {
	if err == nil {
		return nil
	}
	if errors.Is(err, manifest.ErrStorage) && errors.Is(err, fs.ErrNotExist) {
		return manifestNotFoundIssue
	}
	if name := manifest.KindName(err); name != "" {
		issue, _ := Lookup(name)
		return issue
	}
	return nil
}

func foldName(name string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
}
