// SPDX-License-Identifier: MPL-2.0

// Package autodiscover adds the build targets a package declares implicitly
// through file layout: src/lib.rs, src/main.rs, src/bin/, examples/, tests/
// and benches/, plus the build script and README conventions.
package autodiscover

import (
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/cargoscope/cargoscope/pkg/fspath"
	"github.com/cargoscope/cargoscope/pkg/manifest"
	"github.com/cargoscope/cargoscope/pkg/storage"
)

const (
	libPath  = "src/lib.rs"
	mainPath = "src/main.rs"
	buildRS  = "build.rs"
	entryRS  = "main.rs"
)

type (
	// convention describes where targets of one kind live.
	convention struct {
		kind manifest.TargetKind
		dir  string
	}

	candidate struct {
		name string
		path string
	}

	discoverer struct {
		store    storage.Storage
		listings map[string][]string
		// edition is stamped on every discovered target.
		edition manifest.Edition
	}
)

var (
	conventions = []convention{
		{kind: manifest.TargetBin, dir: "src/bin"},
		{kind: manifest.TargetExample, dir: "examples"},
		{kind: manifest.TargetTest, dir: "tests"},
		{kind: manifest.TargetBench, dir: "benches"},
	}

	readmeNames = []string{"README.md", "README.txt", "README"}
)

// Discover returns a copy of m with convention-based targets added. Paths are
// relative to the package root, which is the root of store.
//
// Explicit targets keep their declaration order and are never replaced. A
// discovered target is dropped when an explicit target of the same kind has
// the same name or path; an explicit target with a name but no path takes the
// discovered path. New targets are appended with the conventional single-file
// target (src/main.rs) first and the rest in lexicographic path order. When a
// kind's auto flag is off its list is left exactly as declared.
//
// A missing directory or file is not an error. Any other storage failure
// aborts discovery with an ErrStorage error.
func Discover(m *manifest.Manifest, store storage.Storage) (*manifest.Manifest, error) {
	out := m.Clone()
	pkg := out.Package
	if pkg == nil {
		return out, nil
	}
	d := &discoverer{store: store, listings: make(map[string][]string)}
	if pkg.Edition.IsSet() {
		d.edition = pkg.Edition.Value()
	}

	if err := d.library(out); err != nil {
		return nil, err
	}

	for _, conv := range conventions {
		if !pkg.AutoDiscover(conv.kind) {
			continue
		}
		cands, err := d.candidates(conv, pkg.Name)
		if err != nil {
			return nil, err
		}
		targets, err := d.merge(conv, out.Targets(conv.kind), cands)
		if err != nil {
			return nil, err
		}
		out.SetTargets(conv.kind, targets)
	}

	if err := d.packageFiles(pkg); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *discoverer) library(m *manifest.Manifest) error {
	if m.Lib != nil {
		// A library is always built, so required-features never apply to it.
		m.Lib.RequiredFeatures = nil
	}
	var lib manifest.Target
	switch {
	case m.Lib != nil && m.Lib.Path != "":
		return nil
	case m.Lib != nil:
		lib = *m.Lib
	default:
		ok, err := d.exists(libPath)
		if err != nil || !ok {
			return err
		}
		lib = manifest.Target{Kind: manifest.TargetLib, Discovered: true}
	}
	if lib.Edition == "" {
		lib.Edition = d.edition
	}
	lib.Path = libPath
	if lib.Name == "" {
		lib.Name = manifest.LibName(m.Package.Name)
	}
	if len(lib.CrateTypes) == 0 {
		if lib.IsProcMacro() {
			lib.CrateTypes = []string{"proc-macro"}
		} else {
			lib.CrateTypes = []string{"rlib"}
		}
	}
	slog.Debug("discovered target", "kind", lib.Kind, "name", lib.Name, "path", lib.Path)
	m.Lib = &lib
	return nil
}

// candidates lists the conventional target files of one kind. The package's
// src/main.rs comes first; the rest are sorted by path.
func (d *discoverer) candidates(conv convention, packageName string) ([]candidate, error) {
	var out []candidate
	if conv.kind == manifest.TargetBin {
		ok, err := d.exists(mainPath)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, candidate{name: packageName, path: mainPath})
		}
	}

	entries, err := d.list(conv.dir)
	if err != nil {
		return nil, err
	}
	var found []candidate
	for _, name := range entries {
		rel := fspath.Join(conv.dir, name)
		if strings.HasSuffix(name, ".rs") {
			found = append(found, candidate{name: Sanitize(fspath.Stem(name)), path: rel})
			continue
		}
		sub, err := d.list(rel)
		if err != nil {
			return nil, err
		}
		if slices.Contains(sub, entryRS) {
			found = append(found, candidate{name: Sanitize(name), path: fspath.Join(rel, entryRS)})
		}
	}
	slices.SortFunc(found, func(a, b candidate) int { return strings.Compare(a.path, b.path) })
	return append(out, found...), nil
}

// merge combines explicit targets with discovered candidates.
func (d *discoverer) merge(conv convention, explicit []manifest.Target, cands []candidate) ([]manifest.Target, error) {
	out := slices.Clone(explicit)
	byName := make(map[string]int, len(out))
	byPath := make(map[string]struct{}, len(out))
	for i, t := range out {
		byName[t.Name] = i
		if t.Path != "" {
			byPath[normalize(t.Path)] = struct{}{}
		}
	}

	for _, c := range cands {
		if _, dup := byPath[c.path]; dup {
			continue
		}
		if i, ok := byName[c.name]; ok {
			if out[i].Discovered {
				return nil, &manifest.Error{
					Kind:    manifest.ErrDuplicateTarget,
					Key:     string(conv.kind),
					Message: "both " + out[i].Path + " and " + c.path + " define target " + c.name,
				}
			}
			if out[i].Path == "" {
				out[i].Path = c.path
				byPath[c.path] = struct{}{}
			}
			continue
		}
		byName[c.name] = len(out)
		byPath[c.path] = struct{}{}
		out = append(out, manifest.Target{Kind: conv.kind, Name: c.name, Path: c.path, Edition: d.edition, Discovered: true})
		slog.Debug("discovered target", "kind", conv.kind, "name", c.name, "path", c.path)
	}

	// Named targets with no file on disk get the path the build tool would try first.
	for i := range out {
		if out[i].Path == "" {
			out[i].Path = fspath.Join(conv.dir, out[i].Name+".rs")
		}
	}
	return out, nil
}

func (d *discoverer) packageFiles(pkg *manifest.Package) error {
	root, err := d.list("")
	if err != nil {
		return err
	}

	if (pkg.Build == nil || (pkg.Build.Enabled && pkg.Build.Path == "")) && slices.Contains(root, buildRS) {
		build := manifest.FilePath(buildRS)
		pkg.Build = &build
	}

	if readme := pkg.Readme; readme.IsSet() && readme.Value().Enabled && readme.Value().Path == "" {
		for _, name := range readmeNames {
			if slices.Contains(root, name) {
				pkg.Readme = manifest.Local(manifest.FilePath(name))
				break
			}
		}
	}
	return nil
}

// list returns the entries of dir, or nil when it does not exist.
func (d *discoverer) list(dir string) ([]string, error) {
	if names, ok := d.listings[dir]; ok {
		return names, nil
	}
	names, err := d.store.ListEntries(dir)
	if err != nil {
		if !storage.IsNotFound(err) {
			return nil, manifest.StorageFailure(dir, err)
		}
		names = nil
	}
	slices.Sort(names)
	d.listings[dir] = names
	return names, nil
}

func (d *discoverer) exists(name string) (bool, error) {
	entries, err := d.list(fspath.Dir(name))
	if err != nil {
		return false, err
	}
	return slices.Contains(entries, fspath.Base(name)), nil
}

func normalize(p string) string {
	if cleaned, err := fspath.Clean(p); err == nil {
		return cleaned
	}
	return p
}

// Sanitize turns a file or directory stem into a target name: letters and
// digits are kept and everything else becomes '-'.
func Sanitize(stem string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, stem)
}
