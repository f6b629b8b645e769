// SPDX-License-Identifier: MPL-2.0

package features

import (
	"strings"

	"github.com/cargoscope/cargoscope/pkg/manifest"
)

const (
	// PlainFeature enables another feature of the same package.
	PlainFeature TokenKind = iota
	// ImplicitOptionalDependency enables an optional dependency through its
	// implicit same-named feature.
	ImplicitOptionalDependency
	// ExplicitOptionalDependencyActivation is the "dep:name" form.
	ExplicitOptionalDependencyActivation
	// StrongDependencyFeature is "dep/feature": it enables the dependency and
	// forwards the feature to it.
	StrongDependencyFeature
	// WeakDependencyFeature is "dep?/feature": it forwards the feature only
	// when the dependency is enabled by something else.
	WeakDependencyFeature
)

const depPrefix = "dep:"

type (
	// TokenKind classifies an entry of a feature's activation list.
	TokenKind int

	// Token is one normalized activation entry.
	Token struct {
		Kind TokenKind
		// Name is the feature name for PlainFeature and the dependency key
		// for every other kind.
		Name string
		// Feature is the forwarded feature for the two dependency-feature kinds.
		Feature string
	}
)

var tokenKindNames = map[TokenKind]string{
	PlainFeature:                         "feature",
	ImplicitOptionalDependency:           "implicit-dependency",
	ExplicitOptionalDependencyActivation: "dependency",
	StrongDependencyFeature:              "dependency-feature",
	WeakDependencyFeature:                "weak-dependency-feature",
}

// String returns a short name for the kind.
func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// String renders the token in manifest syntax.
func (t Token) String() string {
	switch t.Kind {
	case ExplicitOptionalDependencyActivation:
		return depPrefix + t.Name
	case StrongDependencyFeature:
		return t.Name + "/" + t.Feature
	case WeakDependencyFeature:
		return t.Name + "?/" + t.Feature
	default:
		return t.Name
	}
}

// Dependency reports the dependency key the token refers to, if any.
func (t Token) Dependency() (string, bool) {
	if t.Kind == PlainFeature {
		return "", false
	}
	return t.Name, true
}

// lex splits raw into a token with its syntactic kind. Bare names come back
// as PlainFeature; classify decides whether they name a dependency instead.
func lex(raw, key string) (Token, error) {
	if raw == "" {
		return Token{}, manifest.Errorf(manifest.ErrSchemaViolation, key, "empty feature token")
	}
	if name, ok := strings.CutPrefix(raw, depPrefix); ok {
		if name == "" || strings.ContainsAny(name, "/?") {
			return Token{}, manifest.Errorf(manifest.ErrSchemaViolation, key, "malformed token %q: expected dep:<dependency>", raw)
		}
		return Token{Kind: ExplicitOptionalDependencyActivation, Name: name}, nil
	}
	if dep, feature, ok := strings.Cut(raw, "/"); ok {
		kind := StrongDependencyFeature
		if trimmed, weak := strings.CutSuffix(dep, "?"); weak {
			kind, dep = WeakDependencyFeature, trimmed
		}
		if dep == "" || feature == "" || strings.Contains(feature, "/") || strings.Contains(dep, "?") {
			return Token{}, manifest.Errorf(manifest.ErrSchemaViolation, key, "malformed token %q: expected <dependency>/<feature>", raw)
		}
		return Token{Kind: kind, Name: dep, Feature: feature}, nil
	}
	if strings.Contains(raw, "?") {
		return Token{}, manifest.Errorf(manifest.ErrSchemaViolation, key, "malformed token %q", raw)
	}
	return Token{Kind: PlainFeature, Name: raw}, nil
}
