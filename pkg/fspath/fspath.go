// SPDX-License-Identifier: MPL-2.0

// Package fspath provides helpers for the slash-separated, root-relative paths
// used by storage backends. The empty string denotes the storage root; paths
// never start with "/" and never climb above the root.
package fspath

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrEscapesRoot is returned when a relative path is absolute or climbs above
// the storage root with "..".
var ErrEscapesRoot = errors.New("path escapes storage root")

// EscapesRootError is returned by Clean for paths that leave the storage root.
// It wraps ErrEscapesRoot for errors.Is() compatibility.
type EscapesRootError struct {
	Path string
}

// Error implements the error interface.
func (e *EscapesRootError) Error() string {
	return fmt.Sprintf("%q: %s", e.Path, ErrEscapesRoot.Error())
}

// Unwrap returns ErrEscapesRoot.
func (e *EscapesRootError) Unwrap() error { return ErrEscapesRoot }

// Clean normalizes a root-relative path. "", "." and "./" all become "",
// duplicate separators and inner "." segments are removed, and backslashes are
// treated as separators so archive listings from Windows tools behave.
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return "", &EscapesRootError{Path: p}
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &EscapesRootError{Path: p}
	}
	return cleaned, nil
}

// Join joins root-relative segments. Empty segments are skipped and the root
// is returned as "".
func Join(elem ...string) string {
	joined := path.Join(elem...)
	if joined == "." {
		return ""
	}
	return joined
}

// Dir returns the parent of p, with "" for top-level entries.
func Dir(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// Base returns the last element of p.
func Base(p string) string {
	return path.Base(p)
}

// Stem returns the last element of p without its extension.
func Stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Ancestors returns the strict ancestors of dir, nearest first, ending with
// the root "". The root itself has no ancestors.
func Ancestors(dir string) []string {
	if dir == "" {
		return nil
	}
	var out []string
	for d := Dir(dir); ; d = Dir(d) {
		out = append(out, d)
		if d == "" {
			return out
		}
	}
}

// Rel returns the slash path that leads from directory from to target, both
// given relative to the same root. The result may start with "..".
func Rel(from, target string) string {
	fromParts := split(from)
	targetParts := split(target)

	common := 0
	for common < len(fromParts) && common < len(targetParts) && fromParts[common] == targetParts[common] {
		common++
	}

	parts := make([]string, 0, len(fromParts)-common+len(targetParts)-common)
	for range fromParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)
	return strings.Join(parts, "/")
}

func split(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
