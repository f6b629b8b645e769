// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"io/fs"
	"os"
)

type fsStorage struct {
	fsys fs.FS
}

// FromFS adapts an io/fs file system, such as a *zip.Reader or fstest.MapFS.
func FromFS(fsys fs.FS) Storage {
	return &fsStorage{fsys: fsys}
}

// Dir returns a Storage backed by the OS directory at root.
func Dir(root string) Storage {
	return &fsStorage{fsys: os.DirFS(root)}
}

func (s *fsStorage) ListEntries(dir string) ([]string, error) {
	dir, err := clean("list", dir)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(s.fsys, fsName(dir))
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, notFound("list", dir)
	}
	entries, err := fs.ReadDir(s.fsys, fsName(dir))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (s *fsStorage) ReadFile(name string) ([]byte, error) {
	name, err := clean("read", name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, notFound("read", name)
	}
	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, notFound("read", name)
	}
	return fs.ReadFile(s.fsys, name)
}
