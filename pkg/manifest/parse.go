// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
)

// MaxManifestSize is the largest manifest Parse accepts, in bytes.
const MaxManifestSize = 10 << 20

// Parse decodes manifest text into a Manifest. Inheritance markers are kept
// as delegated values and no targets are discovered; see the workspace and
// autodiscover packages for those steps.
//
// Errors are *Error values of kind ErrMalformedSource (syntax, encoding, size)
// or ErrSchemaViolation / ErrDuplicateTarget (shape of known keys).
func Parse(data []byte) (*Manifest, error) {
	if len(data) > MaxManifestSize {
		return nil, Errorf(ErrMalformedSource, "", "manifest is larger than %d bytes", MaxManifestSize)
	}
	if !utf8.Valid(data) {
		return nil, Errorf(ErrMalformedSource, "", "manifest is not valid UTF-8")
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			line, col := decodeErr.Position()
			return nil, &Error{
				Kind:   ErrMalformedSource,
				Key:    strings.Join(decodeErr.Key(), "."),
				Line:   line,
				Column: col,
				Cause:  err,
			}
		}
		return nil, &Error{Kind: ErrMalformedSource, Cause: err}
	}
	return bindManifest(raw)
}

//nolint:gocyclo // flat dispatch over top-level keys
func bindManifest(raw map[string]any) (*Manifest, error) {
	m := &Manifest{}
	var err error

	pkgKey := "package"
	pkgRaw, hasPackage := raw["package"]
	if projRaw, hasProject := raw["project"]; hasProject {
		if hasPackage {
			return nil, Errorf(ErrSchemaViolation, "project", "both [package] and its legacy alias [project] are present")
		}
		pkgKey, pkgRaw, hasPackage = "project", projRaw, true
	}

	for _, key := range sortedKeys(raw) {
		v := raw[key]
		switch key {
		case "package", "project":
			continue
		case "workspace":
			m.Workspace, err = bindWorkspace(v, key)
		case "dependencies":
			m.Dependencies, err = bindDepsSet(v, key)
		case "dev-dependencies", "dev_dependencies":
			m.DevDependencies, err = mergeDepsTable(m.DevDependencies, v, key)
		case "build-dependencies", "build_dependencies":
			m.BuildDependencies, err = mergeDepsTable(m.BuildDependencies, v, key)
		case "target":
			m.Target, err = bindPlatformTables(v, key)
		case "features":
			m.Features, err = bindFeatures(v, key)
		case "patch":
			m.Patch, err = bindPatch(v, key)
		case "replace":
			m.Replace, err = bindDepsSet(v, key)
		case "lib":
			m.Lib, err = bindLib(v, key)
		case "bin":
			m.Bin, err = bindTargets(v, key, TargetBin)
		case "example":
			m.Example, err = bindTargets(v, key, TargetExample)
		case "test":
			m.Test, err = bindTargets(v, key, TargetTest)
		case "bench":
			m.Bench, err = bindTargets(v, key, TargetBench)
		case "profile":
			m.Profile, err = bindProfiles(v, key)
		case "badges":
			m.Badges, err = bindBadges(v, key)
		case "lints":
			m.Lints, err = bindLints(v, key)
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key] = v
		}
		if err != nil {
			return nil, err
		}
	}

	if hasPackage {
		if m.Package, err = bindPackage(pkgRaw, pkgKey); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func mergeDepsTable(into DepsSet, v any, key string) (DepsSet, error) {
	deps, err := bindDepsSet(v, key)
	if err != nil || into == nil {
		return deps, err
	}
	for _, name := range sortedKeys(deps) {
		d := deps[name]
		if _, dup := into[name]; dup {
			return nil, Errorf(ErrSchemaViolation, joinKey(key, name), "dependency declared under both spellings of the table name")
		}
		into[name] = d
	}
	return into, nil
}

//nolint:gocyclo // flat dispatch over package keys
func bindPackage(v any, prefix string) (*Package, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	p := &Package{}
	if err := bindShared(t, prefix, &p.SharedFields); err != nil {
		return nil, err
	}

	nameRaw, ok := t["name"]
	if !ok {
		return nil, Errorf(ErrSchemaViolation, joinKey(prefix, "name"), "missing required key")
	}
	if p.Name, err = bindString(nameRaw, joinKey(prefix, "name")); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, Errorf(ErrSchemaViolation, joinKey(prefix, "name"), "package name cannot be empty")
	}

	for _, key := range sortedKeys(t) {
		val := t[key]
		k := joinKey(prefix, key)
		switch key {
		case "build":
			var f OptionalFile
			if f, err = bindOptionalFile(val, k); err == nil {
				p.Build = &f
			}
		case "workspace":
			p.Workspace, err = bindString(val, k)
		case "links":
			p.Links, err = bindString(val, k)
		case "default-run":
			p.DefaultRun, err = bindString(val, k)
		case "resolver":
			p.Resolver, err = bindString(val, k)
		case "autolib":
			p.Autolib, err = bindBoolPtr(val, k)
		case "autobins":
			p.Autobins, err = bindBoolPtr(val, k)
		case "autoexamples":
			p.Autoexamples, err = bindBoolPtr(val, k)
		case "autotests":
			p.Autotests, err = bindBoolPtr(val, k)
		case "autobenches":
			p.Autobenches, err = bindBoolPtr(val, k)
		case "metadata":
			p.Metadata, err = bindTable(val, k)
		}
		if err != nil {
			return nil, err
		}
	}

	applyPackageDefaults(p, t)
	return p, nil
}

// applyPackageDefaults fills in the values the build tool assumes for absent
// keys. Delegated values are left alone.
func applyPackageDefaults(p *Package, t map[string]any) {
	_, hasVersion := t["version"]
	if !hasVersion {
		p.Version = Local(DefaultVersion)
	}
	if p.Edition.IsUnset() {
		p.Edition = Local(Edition2015)
	}
	if p.Readme.IsUnset() {
		p.Readme = Local(FileFlag(true))
	}
	if p.Publish.IsUnset() {
		// A package without a version is not publishable.
		p.Publish = Local(Publish{Enabled: hasVersion})
	}
}

//nolint:gocyclo // flat dispatch over the inheritable key set
func bindShared(t map[string]any, prefix string, s *SharedFields) error {
	var err error
	for _, key := range sortedKeys(t) {
		val := t[key]
		k := joinKey(prefix, key)
		switch key {
		case "version":
			s.Version, err = bindInheritable(val, k, bindString)
		case "edition":
			s.Edition, err = bindInheritable(val, k, bindEdition)
		case "rust-version":
			s.RustVersion, err = bindInheritable(val, k, bindString)
		case "authors":
			s.Authors, err = bindInheritable(val, k, bindStrings)
		case "description":
			s.Description, err = bindInheritable(val, k, bindString)
		case "documentation":
			s.Documentation, err = bindInheritable(val, k, bindString)
		case "homepage":
			s.Homepage, err = bindInheritable(val, k, bindString)
		case "license":
			s.License, err = bindInheritable(val, k, bindString)
		case "license-file":
			s.LicenseFile, err = bindInheritable(val, k, bindString)
		case "repository":
			s.Repository, err = bindInheritable(val, k, bindString)
		case "readme":
			s.Readme, err = bindInheritable(val, k, bindOptionalFile)
		case "keywords":
			s.Keywords, err = bindInheritable(val, k, bindStrings)
		case "categories":
			s.Categories, err = bindInheritable(val, k, bindStrings)
		case "exclude":
			s.Exclude, err = bindInheritable(val, k, bindStrings)
		case "include":
			s.Include, err = bindInheritable(val, k, bindStrings)
		case "publish":
			s.Publish, err = bindInheritable(val, k, bindPublish)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func bindWorkspace(v any, prefix string) (*Workspace, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	w := &Workspace{}
	for _, key := range sortedKeys(t) {
		val := t[key]
		k := joinKey(prefix, key)
		switch key {
		case "members":
			w.Members, err = bindStrings(val, k)
		case "default-members":
			w.DefaultMembers, err = bindStrings(val, k)
		case "exclude":
			w.Exclude, err = bindStrings(val, k)
		case "resolver":
			w.Resolver, err = bindString(val, k)
		case "package":
			var pt map[string]any
			if pt, err = bindTable(val, k); err == nil {
				w.Package = &SharedFields{}
				err = bindShared(pt, k, w.Package)
			}
		case "dependencies":
			w.Dependencies, err = bindDepsSet(val, k)
		case "lints":
			w.Lints, err = bindLintGroups(val, k)
		case "metadata":
			w.Metadata, err = bindTable(val, k)
		}
		if err != nil {
			return nil, err
		}
	}
	return w, nil
}

func bindDepsSet(v any, prefix string) (DepsSet, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	deps := make(DepsSet, len(t))
	for _, name := range sortedKeys(t) {
		val := t[name]
		d, err := bindDependency(val, joinKey(prefix, name))
		if err != nil {
			return nil, err
		}
		deps[name] = d
	}
	return deps, nil
}

//nolint:gocyclo // flat dispatch over dependency keys
func bindDependency(v any, key string) (Dependency, error) {
	switch val := v.(type) {
	case string:
		return SimpleDependency(val), nil
	case map[string]any:
		d := Dependency{Form: DependencyDetailed}
		var err error
		for _, k := range sortedKeys(val) {
			field := val[k]
			fk := joinKey(key, k)
			switch k {
			case "version":
				d.Version, err = bindString(field, fk)
			case "path":
				d.Path, err = bindString(field, fk)
			case "git":
				d.Git, err = bindString(field, fk)
			case "branch":
				d.Branch, err = bindString(field, fk)
			case "tag":
				d.Tag, err = bindString(field, fk)
			case "rev":
				d.Rev, err = bindString(field, fk)
			case "registry":
				d.Registry, err = bindString(field, fk)
			case "registry-index":
				d.RegistryIndex, err = bindString(field, fk)
			case "package":
				d.Package, err = bindString(field, fk)
			case "features":
				d.Features, err = bindStrings(field, fk)
			case "optional":
				d.Optional, err = bindBoolPtr(field, fk)
			case "default-features", "default_features":
				d.DefaultFeatures, err = bindBoolPtr(field, fk)
			case "workspace":
				d.Workspace, err = bindBool(field, fk)
			default:
				if d.Unstable == nil {
					d.Unstable = make(map[string]any)
				}
				d.Unstable[k] = field
			}
			if err != nil {
				return Dependency{}, err
			}
		}
		if !d.Workspace && !d.HasSource() {
			return Dependency{}, Errorf(ErrSchemaViolation, key, "dependency must specify a version, path or git source")
		}
		return d, nil
	default:
		return Dependency{}, shapeError(key, "a version string or a table", v)
	}
}

func bindPlatformTables(v any, prefix string) (map[string]PlatformDependencies, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]PlatformDependencies, len(t))
	for _, platform := range sortedKeys(t) {
		val := t[platform]
		pk := joinKey(prefix, platform)
		pt, err := bindTable(val, pk)
		if err != nil {
			return nil, err
		}
		var pd PlatformDependencies
		for _, key := range sortedKeys(pt) {
			deps := pt[key]
			k := joinKey(pk, key)
			switch key {
			case "dependencies":
				pd.Dependencies, err = bindDepsSet(deps, k)
			case "dev-dependencies", "dev_dependencies":
				pd.DevDependencies, err = mergeDepsTable(pd.DevDependencies, deps, k)
			case "build-dependencies", "build_dependencies":
				pd.BuildDependencies, err = mergeDepsTable(pd.BuildDependencies, deps, k)
			}
			if err != nil {
				return nil, err
			}
		}
		out[platform] = pd
	}
	return out, nil
}

func bindFeatures(v any, prefix string) (map[string][]string, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(t))
	for _, name := range sortedKeys(t) {
		val := t[name]
		tokens, err := bindStrings(val, joinKey(prefix, name))
		if err != nil {
			return nil, err
		}
		out[name] = tokens
	}
	return out, nil
}

func bindPatch(v any, prefix string) (map[string]DepsSet, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]DepsSet, len(t))
	for _, source := range sortedKeys(t) {
		val := t[source]
		deps, err := bindDepsSet(val, joinKey(prefix, source))
		if err != nil {
			return nil, err
		}
		out[source] = deps
	}
	return out, nil
}

func bindBadges(v any, prefix string) (map[string]map[string]any, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]any, len(t))
	for _, name := range sortedKeys(t) {
		val := t[name]
		badge, err := bindTable(val, joinKey(prefix, name))
		if err != nil {
			return nil, err
		}
		out[name] = badge
	}
	return out, nil
}

func bindLints(v any, prefix string) (*Lints, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	l := &Lints{}
	if marker, ok := t["workspace"]; ok {
		if err := checkWorkspaceMarker(t, marker, prefix); err != nil {
			return nil, err
		}
		l.Workspace = true
		return l, nil
	}
	if l.Groups, err = bindLintGroups(t, prefix); err != nil {
		return nil, err
	}
	return l, nil
}

func bindLintGroups(v any, prefix string) (LintGroups, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	groups := make(LintGroups, len(t))
	for _, tool := range sortedKeys(t) {
		val := t[tool]
		tk := joinKey(prefix, tool)
		lt, err := bindTable(val, tk)
		if err != nil {
			return nil, err
		}
		lints := make(map[string]Lint, len(lt))
		for _, name := range sortedKeys(lt) {
			setting := lt[name]
			lint, err := bindLint(setting, joinKey(tk, name))
			if err != nil {
				return nil, err
			}
			lints[name] = lint
		}
		groups[tool] = lints
	}
	return groups, nil
}

func bindLint(v any, key string) (Lint, error) {
	switch val := v.(type) {
	case string:
		return Lint{Level: val}, nil
	case map[string]any:
		var lint Lint
		var err error
		if level, ok := val["level"]; ok {
			if lint.Level, err = bindString(level, joinKey(key, "level")); err != nil {
				return Lint{}, err
			}
		} else {
			return Lint{}, Errorf(ErrSchemaViolation, key, "lint table requires a `level`")
		}
		if prio, ok := val["priority"]; ok {
			if lint.Priority, err = bindInt(prio, joinKey(key, "priority")); err != nil {
				return Lint{}, err
			}
		}
		return lint, nil
	default:
		return Lint{}, shapeError(key, "a lint level or a table", v)
	}
}

func duplicateTarget(kind TargetKind, name string) *Error {
	return &Error{Kind: ErrDuplicateTarget, Key: string(kind), Message: fmt.Sprintf("target %q is declared more than once", name)}
}
