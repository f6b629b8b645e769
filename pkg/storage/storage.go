// SPDX-License-Identifier: MPL-2.0

// Package storage abstracts the file tree a manifest lives in. The resolution
// engine only ever lists directories and reads files through the Storage
// interface, so a package can be inspected from a directory, an archive, a git
// object tree or an in-memory fixture alike.
//
// Paths are slash-separated and relative to the storage root; "" and "." name
// the root itself. A missing file or directory is reported with an error that
// matches fs.ErrNotExist; listing a regular file is reported the same way.
package storage

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/cargoscope/cargoscope/pkg/fspath"
)

// ErrInvalidPath is returned for paths that are absolute or escape the root.
var ErrInvalidPath = errors.New("invalid storage path")

// Storage lists directory entries and reads files relative to a root.
// Implementations that cache must synchronize internally; the engine may
// share one Storage between concurrent resolutions.
type Storage interface {
	// ListEntries returns the names (not paths) of the entries directly
	// inside dir, in no particular order.
	ListEntries(dir string) ([]string, error)
	// ReadFile returns the contents of the named file.
	ReadFile(name string) ([]byte, error)
}

// IsNotFound reports whether err means the path does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func notFound(op, name string) error {
	return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}

// clean normalizes p and rejects paths leaving the root.
func clean(op, p string) (string, error) {
	cleaned, err := fspath.Clean(p)
	if err != nil {
		return "", &fs.PathError{Op: op, Path: p, Err: fmt.Errorf("%w: %w", ErrInvalidPath, err)}
	}
	return cleaned, nil
}

// fsName maps a cleaned storage path onto io/fs naming, where the root is ".".
func fsName(p string) string {
	if p == "" {
		return "."
	}
	return p
}
