// SPDX-License-Identifier: MPL-2.0

// Package features validates the [features] table of a manifest and turns
// every activation entry into a typed token.
//
// Normalization is structural only. The set of features transitively enabled
// by a selection is left to consumers walking the returned Spec.
package features

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cargoscope/cargoscope/internal/dag"
	"github.com/cargoscope/cargoscope/pkg/manifest"
)

// DefaultFeature is the feature enabled unless a consumer opts out.
const DefaultFeature = "default"

// Spec is a validated feature table. It is read-only after Normalize returns.
type Spec struct {
	features map[string][]Token
	implicit []string
	deps     DependencySet
}

// Normalize validates table against deps and classifies every token.
//
// A bare name resolves to a feature when the table defines it, otherwise to
// the implicit feature of an optional dependency that is never referenced
// with "dep:". Feature-to-feature cycles are rejected.
func Normalize(table map[string][]string, deps DependencySet) (*Spec, error) {
	if deps == nil {
		deps = DependencySet{}
	}
	names := slices.Sorted(maps.Keys(table))
	lexed := make(map[string][]Token, len(table))
	explicit := make(map[string]bool)

	for _, name := range names {
		key := manifest.JoinKey("features", name)
		if err := checkName(name, key); err != nil {
			return nil, err
		}
		tokens := make([]Token, 0, len(table[name]))
		for i, raw := range table[name] {
			tok, err := lex(raw, fmt.Sprintf("%s[%d]", key, i))
			if err != nil {
				return nil, err
			}
			if tok.Kind == ExplicitOptionalDependencyActivation {
				explicit[tok.Name] = true
			}
			tokens = append(tokens, tok)
		}
		lexed[name] = tokens
	}

	for _, name := range names {
		if deps.IsOptional(name) && !explicit[name] {
			return nil, manifest.Errorf(manifest.ErrSchemaViolation, manifest.JoinKey("features", name),
				"feature %q has the same name as an optional dependency; activate the dependency with \"dep:%s\" to define it",
				name, name)
		}
	}

	for _, name := range names {
		for i, tok := range lexed[name] {
			key := fmt.Sprintf("%s[%d]", manifest.JoinKey("features", name), i)
			kind, err := classify(tok, table, deps, explicit)
			if err != nil {
				return nil, err.WithKey(key)
			}
			lexed[name][i].Kind = kind
		}
	}

	if err := checkCycles(names, lexed); err != nil {
		return nil, err
	}

	var implicit []string
	for _, dep := range deps.Optional() {
		if !explicit[dep] {
			implicit = append(implicit, dep)
		}
	}
	return &Spec{features: lexed, implicit: implicit, deps: deps}, nil
}

// FromManifest normalizes the features of m against its own dependencies.
func FromManifest(m *manifest.Manifest) (*Spec, error) {
	return Normalize(m.Features, DependencySetOf(m))
}

func checkName(name, key string) error {
	if name == "" {
		return manifest.Errorf(manifest.ErrSchemaViolation, key, "feature name must not be empty")
	}
	if strings.HasPrefix(name, depPrefix) || strings.ContainsAny(name, "/?") {
		return manifest.Errorf(manifest.ErrSchemaViolation, key, "invalid feature name %q", name)
	}
	return nil
}

func classify(tok Token, table map[string][]string, deps DependencySet, explicit map[string]bool) (TokenKind, *manifest.Error) {
	switch tok.Kind {
	case PlainFeature:
		if _, ok := table[tok.Name]; ok {
			return PlainFeature, nil
		}
		if deps.IsOptional(tok.Name) && !explicit[tok.Name] {
			return ImplicitOptionalDependency, nil
		}
		switch {
		case deps.IsOptional(tok.Name):
			return 0, undefined("%q is an optional dependency activated with \"dep:\" elsewhere; use \"dep:%s\"", tok.Name, tok.Name)
		case deps.Declared(tok.Name):
			return 0, undefined("%q is not a feature and the dependency of that name is not optional", tok.Name)
		default:
			return 0, undefined("%q is neither a feature nor an optional dependency", tok.Name)
		}
	case ExplicitOptionalDependencyActivation:
		if !deps.Declared(tok.Name) {
			return 0, undefined("%q is not a declared dependency", tok.String())
		}
		if !deps.IsOptional(tok.Name) {
			return 0, undefined("%q requires dependency %q to be optional", tok.String(), tok.Name)
		}
	case StrongDependencyFeature:
		if !deps.Declared(tok.Name) {
			return 0, undefined("%q refers to %q, which is not a declared dependency", tok.String(), tok.Name)
		}
	case WeakDependencyFeature:
		if !deps.IsOptional(tok.Name) {
			return 0, undefined("%q requires %q to be a declared optional dependency", tok.String(), tok.Name)
		}
	}
	return tok.Kind, nil
}

func undefined(format string, args ...any) *manifest.Error {
	return manifest.Errorf(manifest.ErrUndefinedReference, "", format, args...)
}

func checkCycles(names []string, lexed map[string][]Token) error {
	g := dag.New()
	for _, name := range names {
		g.AddNode(name)
		for _, tok := range lexed[name] {
			if tok.Kind == PlainFeature {
				g.AddEdge(name, tok.Name)
			}
		}
	}
	cycle := g.FindCycle()
	if cycle == nil {
		return nil
	}
	return &manifest.Error{
		Kind:  manifest.ErrCyclicFeature,
		Key:   manifest.JoinKey("features", cycle[0]),
		Cause: &dag.CycleError{Cycle: cycle},
	}
}

// Names returns the declared feature names in sorted order.
func (s *Spec) Names() []string {
	return slices.Sorted(maps.Keys(s.features))
}

// Len returns the number of declared features.
func (s *Spec) Len() int { return len(s.features) }

// Tokens returns the activation list of a declared feature.
func (s *Spec) Tokens(name string) ([]Token, bool) {
	tokens, ok := s.features[name]
	return slices.Clone(tokens), ok
}

// Has reports whether name is a declared or implicit feature.
func (s *Spec) Has(name string) bool {
	if _, ok := s.features[name]; ok {
		return true
	}
	_, ok := slices.BinarySearch(s.implicit, name)
	return ok
}

// Default returns the tokens of the "default" feature, or nil.
func (s *Spec) Default() []Token {
	tokens, _ := s.Tokens(DefaultFeature)
	return tokens
}

// Implicit returns the optional dependencies that define a feature of their
// own name because nothing activates them with "dep:".
func (s *Spec) Implicit() []string {
	return slices.Clone(s.implicit)
}

// EnabledBy returns the features that directly list name, sorted.
func (s *Spec) EnabledBy(name string) []string {
	var out []string
	for _, feature := range s.Names() {
		for _, tok := range s.features[feature] {
			if tok.Name == name && (tok.Kind == PlainFeature || tok.Kind == ImplicitOptionalDependency) {
				out = append(out, feature)
				break
			}
		}
	}
	return out
}

// Hidden returns the features whose names start with an underscore.
func (s *Spec) Hidden() []string {
	var out []string
	for _, name := range s.Names() {
		if strings.HasPrefix(name, "_") {
			out = append(out, name)
		}
	}
	return out
}

// Dependencies returns the dependency keys referenced by any token, sorted.
func (s *Spec) Dependencies() []string {
	seen := make(map[string]struct{})
	for _, tokens := range s.features {
		for _, tok := range tokens {
			if dep, ok := tok.Dependency(); ok {
				seen[dep] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// DependencySet returns the dependency declarations the spec was validated against.
func (s *Spec) DependencySet() DependencySet {
	return s.deps
}
