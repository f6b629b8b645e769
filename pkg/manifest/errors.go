// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedSource is returned when manifest text is not valid TOML or not valid UTF-8.
	ErrMalformedSource = errors.New("malformed manifest source")
	// ErrSchemaViolation is returned when a known key holds a value of the wrong shape.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrMissingWorkspaceField is returned when a field inherited from the workspace
	// is not defined in [workspace.package] (or no workspace root can be found).
	ErrMissingWorkspaceField = errors.New("missing workspace field")
	// ErrMissingWorkspaceDependency is returned when a `workspace = true` dependency
	// has no entry in [workspace.dependencies].
	ErrMissingWorkspaceDependency = errors.New("missing workspace dependency")
	// ErrInvalidWorkspaceRoot is returned when a workspace root itself delegates
	// a field or a dependency, or has no [workspace] table at all.
	ErrInvalidWorkspaceRoot = errors.New("invalid workspace root")
	// ErrConflictingDependencySpec is returned when a workspace-inherited dependency
	// also sets keys that only the workspace may define.
	ErrConflictingDependencySpec = errors.New("conflicting dependency specification")
	// ErrUndefinedReference is returned when a feature token or required-features
	// entry names a feature or dependency that does not exist.
	ErrUndefinedReference = errors.New("undefined reference")
	// ErrStorage is returned when the storage backend fails with anything other than not-found.
	ErrStorage = errors.New("storage error")
	// ErrDuplicateTarget is returned when two targets of the same kind share a name.
	ErrDuplicateTarget = errors.New("duplicate target")
	// ErrCyclicFeature is returned when features enable each other in a cycle.
	ErrCyclicFeature = errors.New("cyclic feature")
	// ErrDelegatedValue is returned when reading an Inheritable that still
	// delegates to the workspace.
	ErrDelegatedValue = errors.New("value is inherited from the workspace and not resolved")
)

var kindNames = map[error]string{
	ErrMalformedSource:            "MalformedSource",
	ErrSchemaViolation:            "SchemaViolation",
	ErrMissingWorkspaceField:      "MissingWorkspaceField",
	ErrMissingWorkspaceDependency: "MissingWorkspaceDependency",
	ErrInvalidWorkspaceRoot:       "InvalidWorkspaceRoot",
	ErrConflictingDependencySpec:  "ConflictingDependencySpec",
	ErrUndefinedReference:         "UndefinedReference",
	ErrStorage:                    "StorageError",
	ErrDuplicateTarget:            "DuplicateTarget",
	ErrCyclicFeature:              "CyclicFeature",
	ErrDelegatedValue:             "DelegatedValue",
}

// Error is the single error type returned by the resolution engine. Kind is one
// of the Err* sentinels; errors.Is(err, ErrX) matches on it while Unwrap exposes
// the underlying cause (a TOML decode error, a storage error, ...).
type Error struct {
	// Kind is the sentinel identifying the failure class.
	Kind error
	// Path is the storage-relative file the error refers to (optional).
	Path string
	// Key is the dotted manifest key the error refers to (optional).
	Key string
	// Line and Column locate syntax errors; zero when unknown.
	Line   int
	Column int
	// Message is a human-readable detail.
	Message string
	// Cause is the underlying error (optional).
	Cause error
}

// Errorf builds an *Error of the given kind for a dotted key.
func Errorf(kind error, key, format string, args ...any) *Error {
	return &Error{Kind: kind, Key: key, Message: fmt.Sprintf(format, args...)}
}

// StorageFailure wraps a storage backend failure for the given path.
func StorageFailure(path string, cause error) *Error {
	return &Error{Kind: ErrStorage, Path: path, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
		if e.Line > 0 {
			b.WriteString(":")
			b.WriteString(strconv.Itoa(e.Line))
			if e.Column > 0 {
				b.WriteString(":")
				b.WriteString(strconv.Itoa(e.Column))
			}
		}
	} else if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d, column %d", e.Line, e.Column)
	}
	if e.Key != "" {
		b.WriteString(": ")
		b.WriteString(e.Key)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath returns a copy of e that refers to the given file.
func (e *Error) WithPath(path string) *Error {
	clone := *e
	clone.Path = path
	return &clone
}

// WithKey returns a copy of e located at the given dotted key.
func (e *Error) WithKey(key string) *Error {
	clone := *e
	clone.Key = key
	return &clone
}

// KindName returns the stable name of err's kind (e.g. "MissingWorkspaceField"),
// or "" when err was not produced by this module.
func KindName(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return kindNames[me.Kind]
	}
	for kind, name := range kindNames {
		if errors.Is(err, kind) {
			return name
		}
	}
	return ""
}

// KindNames lists every error kind name in a stable order.
func KindNames() []string {
	return []string{
		"MalformedSource",
		"SchemaViolation",
		"MissingWorkspaceField",
		"MissingWorkspaceDependency",
		"InvalidWorkspaceRoot",
		"ConflictingDependencySpec",
		"UndefinedReference",
		"StorageError",
		"DuplicateTarget",
		"CyclicFeature",
		"DelegatedValue",
	}
}
