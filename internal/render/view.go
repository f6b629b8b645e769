// SPDX-License-Identifier: MPL-2.0

// Package render turns resolved manifests into YAML, JSON or styled text.
//
// Every output goes through View, a flat, order-stable copy of a resolve.Result
// that also serves as the cached form of results of immutable sources.
package render

import (
	"maps"
	"slices"

	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/resolve"
)

type (
	// View is the rendered form of one resolved manifest.
	View struct {
		// Dir is the package directory relative to the source root.
		Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
		// WorkspaceRoot is the directory of the workspace root the package
		// inherited from, relative to the source root.
		WorkspaceRoot *string          `json:"workspace_root,omitempty" yaml:"workspace_root,omitempty"`
		Package       *PackageView     `json:"package,omitempty" yaml:"package,omitempty"`
		Dependencies  []DependencyView `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
		Features      []FeatureView    `json:"features,omitempty" yaml:"features,omitempty"`
		// ImplicitFeatures lists optional dependencies that act as features.
		ImplicitFeatures []string     `json:"implicit_features,omitempty" yaml:"implicit_features,omitempty"`
		Targets          []TargetView `json:"targets,omitempty" yaml:"targets,omitempty"`
	}

	// PackageView holds the resolved [package] fields.
	PackageView struct {
		Name          string   `json:"name" yaml:"name"`
		Version       string   `json:"version" yaml:"version"`
		Edition       string   `json:"edition" yaml:"edition"`
		RustVersion   string   `json:"rust_version,omitempty" yaml:"rust_version,omitempty"`
		Authors       []string `json:"authors,omitempty" yaml:"authors,omitempty"`
		Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
		Documentation string   `json:"documentation,omitempty" yaml:"documentation,omitempty"`
		Homepage      string   `json:"homepage,omitempty" yaml:"homepage,omitempty"`
		Repository    string   `json:"repository,omitempty" yaml:"repository,omitempty"`
		License       string   `json:"license,omitempty" yaml:"license,omitempty"`
		LicenseFile   string   `json:"license_file,omitempty" yaml:"license_file,omitempty"`
		Readme        string   `json:"readme,omitempty" yaml:"readme,omitempty"`
		Keywords      []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
		Categories    []string `json:"categories,omitempty" yaml:"categories,omitempty"`
		Publish       bool     `json:"publish" yaml:"publish"`
		Registries    []string `json:"registries,omitempty" yaml:"registries,omitempty"`
		Build         string   `json:"build,omitempty" yaml:"build,omitempty"`
		Links         string   `json:"links,omitempty" yaml:"links,omitempty"`
		DefaultRun    string   `json:"default_run,omitempty" yaml:"default_run,omitempty"`
	}

	// DependencyView is one dependency entry with its table.
	DependencyView struct {
		Table           string   `json:"table" yaml:"table"`
		Name            string   `json:"name" yaml:"name"`
		Package         string   `json:"package,omitempty" yaml:"package,omitempty"`
		Version         string   `json:"version,omitempty" yaml:"version,omitempty"`
		Path            string   `json:"path,omitempty" yaml:"path,omitempty"`
		Git             string   `json:"git,omitempty" yaml:"git,omitempty"`
		Branch          string   `json:"branch,omitempty" yaml:"branch,omitempty"`
		Tag             string   `json:"tag,omitempty" yaml:"tag,omitempty"`
		Rev             string   `json:"rev,omitempty" yaml:"rev,omitempty"`
		Registry        string   `json:"registry,omitempty" yaml:"registry,omitempty"`
		Features        []string `json:"features,omitempty" yaml:"features,omitempty"`
		Optional        bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
		DefaultFeatures bool     `json:"default_features" yaml:"default_features"`
		FromWorkspace   bool     `json:"from_workspace,omitempty" yaml:"from_workspace,omitempty"`
	}

	// FeatureView is one declared feature and its activation list.
	FeatureView struct {
		Name    string   `json:"name" yaml:"name"`
		Enables []string `json:"enables" yaml:"enables"`
	}

	// TargetView is one build target.
	TargetView struct {
		Kind             string   `json:"kind" yaml:"kind"`
		Name             string   `json:"name" yaml:"name"`
		Path             string   `json:"path" yaml:"path"`
		Edition          string   `json:"edition,omitempty" yaml:"edition,omitempty"`
		CrateTypes       []string `json:"crate_types,omitempty" yaml:"crate_types,omitempty"`
		RequiredFeatures []string `json:"required_features,omitempty" yaml:"required_features,omitempty"`
		Discovered       bool     `json:"discovered,omitempty" yaml:"discovered,omitempty"`
	}

	// MembersView lists the packages of a workspace.
	MembersView struct {
		Root    string   `json:"root" yaml:"root"`
		Members []string `json:"members" yaml:"members"`
	}
)

// NewView flattens r.
func NewView(r *resolve.Result) View {
	m := r.Manifest
	v := View{Dir: r.Dir}
	if r.Root != nil {
		dir := r.Root.Dir
		v.WorkspaceRoot = &dir
	}
	if m.Package != nil {
		v.Package = packageView(m.Package)
	}

	m.EachDependencyTable(func(table string, deps manifest.DepsSet) {
		for _, name := range slices.Sorted(maps.Keys(deps)) {
			v.Dependencies = append(v.Dependencies, dependencyView(table, name, deps[name]))
		}
	})

	if r.Features != nil {
		for _, name := range r.Features.Names() {
			tokens, _ := r.Features.Tokens(name)
			enables := make([]string, 0, len(tokens))
			for _, tok := range tokens {
				enables = append(enables, tok.String())
			}
			v.Features = append(v.Features, FeatureView{Name: name, Enables: enables})
		}
		v.ImplicitFeatures = r.Features.Implicit()
	}

	for _, kind := range manifest.TargetKinds() {
		for _, t := range m.Targets(kind) {
			v.Targets = append(v.Targets, TargetView{
				Kind:             string(t.Kind),
				Name:             t.Name,
				Path:             t.Path,
				Edition:          string(t.Edition),
				CrateTypes:       slices.Clone(t.CrateTypes),
				RequiredFeatures: slices.Clone(t.RequiredFeatures),
				Discovered:       t.Discovered,
			})
		}
	}
	return v
}

func packageView(p *manifest.Package) *PackageView {
	publish := p.Publish.Value()
	pv := &PackageView{
		Name:          p.Name,
		Version:       p.Version.Value(),
		Edition:       string(p.Edition.Value()),
		RustVersion:   p.RustVersion.Value(),
		Authors:       slices.Clone(p.Authors.Value()),
		Description:   p.Description.Value(),
		Documentation: p.Documentation.Value(),
		Homepage:      p.Homepage.Value(),
		Repository:    p.Repository.Value(),
		License:       p.License.Value(),
		LicenseFile:   p.LicenseFile.Value(),
		Readme:        p.Readme.Value().Path,
		Keywords:      slices.Clone(p.Keywords.Value()),
		Categories:    slices.Clone(p.Categories.Value()),
		Publish:       publish.Enabled,
		Registries:    slices.Clone(publish.Registries),
		Links:         p.Links,
		DefaultRun:    p.DefaultRun,
	}
	if p.Build != nil && p.Build.Enabled {
		pv.Build = p.Build.Path
	}
	return pv
}

func dependencyView(table, name string, d manifest.Dependency) DependencyView {
	return DependencyView{
		Table:           table,
		Name:            name,
		Package:         d.Package,
		Version:         d.Version,
		Path:            d.Path,
		Git:             d.Git,
		Branch:          d.Branch,
		Tag:             d.Tag,
		Rev:             d.Rev,
		Registry:        d.Registry,
		Features:        slices.Clone(d.Features),
		Optional:        d.IsOptional(),
		DefaultFeatures: d.UsesDefaultFeatures(),
		FromWorkspace:   d.FromWorkspace,
	}
}

// TargetsOf returns the targets of v, optionally limited to one kind.
func (v View) TargetsOf(kind string) []TargetView {
	if kind == "" {
		return v.Targets
	}
	var out []TargetView
	for _, t := range v.Targets {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}
