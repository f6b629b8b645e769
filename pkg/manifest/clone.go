// SPDX-License-Identifier: MPL-2.0

package manifest

import "maps"

// Clone returns a deep copy of m. Free-form values (metadata, badges, extra
// keys) are copied recursively.
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}
	out := &Manifest{
		Dependencies:      m.Dependencies.Clone(),
		DevDependencies:   m.DevDependencies.Clone(),
		BuildDependencies: m.BuildDependencies.Clone(),
		Features:          cloneFeatures(m.Features),
		Replace:           m.Replace.Clone(),
		Bin:               cloneTargets(m.Bin),
		Example:           cloneTargets(m.Example),
		Test:              cloneTargets(m.Test),
		Bench:             cloneTargets(m.Bench),
		Profile:           m.Profile.clone(),
		Extra:             cloneTable(m.Extra),
	}
	if m.Package != nil {
		out.Package = m.Package.clone()
	}
	if m.Workspace != nil {
		out.Workspace = m.Workspace.clone()
	}
	if m.Target != nil {
		out.Target = make(map[string]PlatformDependencies, len(m.Target))
		for k, pd := range m.Target {
			out.Target[k] = PlatformDependencies{
				Dependencies:      pd.Dependencies.Clone(),
				DevDependencies:   pd.DevDependencies.Clone(),
				BuildDependencies: pd.BuildDependencies.Clone(),
			}
		}
	}
	if m.Patch != nil {
		out.Patch = make(map[string]DepsSet, len(m.Patch))
		for k, deps := range m.Patch {
			out.Patch[k] = deps.Clone()
		}
	}
	if m.Lib != nil {
		lib := m.Lib.clone()
		out.Lib = &lib
	}
	if m.Badges != nil {
		out.Badges = make(map[string]map[string]any, len(m.Badges))
		for k, v := range m.Badges {
			out.Badges[k] = cloneTable(v)
		}
	}
	if m.Lints != nil {
		out.Lints = &Lints{Workspace: m.Lints.Workspace, Groups: m.Lints.Groups.Clone()}
	}
	return out
}

// Clone returns a deep copy of the dependency table.
func (d DepsSet) Clone() DepsSet {
	if d == nil {
		return nil
	}
	out := make(DepsSet, len(d))
	for k, dep := range d {
		out[k] = dep.Clone()
	}
	return out
}

// Clone returns a deep copy of the dependency.
func (d Dependency) Clone() Dependency {
	d.Features = cloneStrings(d.Features)
	d.Optional = cloneBool(d.Optional)
	d.DefaultFeatures = cloneBool(d.DefaultFeatures)
	d.Unstable = cloneTable(d.Unstable)
	return d
}

// Clone returns a deep copy of the lint groups.
func (g LintGroups) Clone() LintGroups {
	if g == nil {
		return nil
	}
	out := make(LintGroups, len(g))
	for tool, lints := range g {
		out[tool] = maps.Clone(lints)
	}
	return out
}

// Clone returns a deep copy of the shared fields.
func (s *SharedFields) Clone() *SharedFields {
	if s == nil {
		return nil
	}
	out := &SharedFields{}
	for _, d := range sharedFieldTable {
		d.Inherit(out, s)
	}
	return out
}

func (p *Package) clone() *Package {
	out := *p
	out.SharedFields = *p.SharedFields.Clone()
	if p.Build != nil {
		b := *p.Build
		out.Build = &b
	}
	out.Autolib = cloneBool(p.Autolib)
	out.Autobins = cloneBool(p.Autobins)
	out.Autoexamples = cloneBool(p.Autoexamples)
	out.Autotests = cloneBool(p.Autotests)
	out.Autobenches = cloneBool(p.Autobenches)
	out.Metadata = cloneTable(p.Metadata)
	return &out
}

func (w *Workspace) clone() *Workspace {
	return &Workspace{
		Members:        cloneStrings(w.Members),
		DefaultMembers: cloneStrings(w.DefaultMembers),
		Exclude:        cloneStrings(w.Exclude),
		Resolver:       w.Resolver,
		Package:        w.Package.Clone(),
		Dependencies:   w.Dependencies.Clone(),
		Lints:          w.Lints.Clone(),
		Metadata:       cloneTable(w.Metadata),
	}
}

func (t Target) clone() Target {
	t.RequiredFeatures = cloneStrings(t.RequiredFeatures)
	t.CrateTypes = cloneStrings(t.CrateTypes)
	t.Test = cloneBool(t.Test)
	t.Doctest = cloneBool(t.Doctest)
	t.Bench = cloneBool(t.Bench)
	t.Doc = cloneBool(t.Doc)
	t.Harness = cloneBool(t.Harness)
	t.Plugin = cloneBool(t.Plugin)
	t.ProcMacro = cloneBool(t.ProcMacro)
	return t
}

func (p Profiles) clone() Profiles {
	out := Profiles{
		Release: p.Release.clone(),
		Dev:     p.Dev.clone(),
		Test:    p.Test.clone(),
		Bench:   p.Bench.clone(),
		Doc:     p.Doc.clone(),
	}
	if p.Custom != nil {
		out.Custom = make(map[string]*Profile, len(p.Custom))
		for k, v := range p.Custom {
			out.Custom[k] = v.clone()
		}
	}
	return out
}

func (p *Profile) clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Package = cloneTable(p.Package)
	out.BuildOverride = cloneValue(p.BuildOverride)
	if p.CodegenUnits != nil {
		n := *p.CodegenUnits
		out.CodegenUnits = &n
	}
	out.Incremental = cloneBool(p.Incremental)
	out.OverflowChecks = cloneBool(p.OverflowChecks)
	out.DebugAssertions = cloneBool(p.DebugAssertions)
	out.Rpath = cloneBool(p.Rpath)
	return &out
}

func cloneTargets(ts []Target) []Target {
	if ts == nil {
		return nil
	}
	out := make([]Target, len(ts))
	for i, t := range ts {
		out[i] = t.clone()
	}
	return out
}

func cloneFeatures(f map[string][]string) map[string][]string {
	if f == nil {
		return nil
	}
	out := make(map[string][]string, len(f))
	for k, v := range f {
		out[k] = cloneStrings(v)
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneTable(t map[string]any) map[string]any {
	if t == nil {
		return nil
	}
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneTable(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
