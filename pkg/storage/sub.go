// SPDX-License-Identifier: MPL-2.0

package storage

import "github.com/cargoscope/cargoscope/pkg/fspath"

type subStorage struct {
	parent Storage
	dir    string
}

// Sub returns a view of store rooted at dir. Paths given to the view cannot
// reach outside dir.
func Sub(store Storage, dir string) (Storage, error) {
	dir, err := clean("sub", dir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return store, nil
	}
	if inner, ok := store.(*subStorage); ok {
		return &subStorage{parent: inner.parent, dir: fspath.Join(inner.dir, dir)}, nil
	}
	return &subStorage{parent: store, dir: dir}, nil
}

func (s *subStorage) ListEntries(dir string) ([]string, error) {
	dir, err := clean("list", dir)
	if err != nil {
		return nil, err
	}
	return s.parent.ListEntries(fspath.Join(s.dir, dir))
}

func (s *subStorage) ReadFile(name string) ([]byte, error) {
	name, err := clean("read", name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, notFound("read", name)
	}
	return s.parent.ReadFile(fspath.Join(s.dir, name))
}
