// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"github.com/spf13/afero"

	"github.com/cargoscope/cargoscope/pkg/fspath"
)

type aferoStorage struct {
	fs   afero.Fs
	root string
}

// Afero adapts an afero file system, rooted at root inside it.
func Afero(fs afero.Fs, root string) Storage {
	return &aferoStorage{fs: fs, root: root}
}

func (s *aferoStorage) path(p string) string {
	if joined := fspath.Join(s.root, p); joined != "" {
		return joined
	}
	return "."
}

func (s *aferoStorage) ListEntries(dir string) ([]string, error) {
	dir, err := clean("list", dir)
	if err != nil {
		return nil, err
	}
	full := s.path(dir)
	isDir, err := afero.IsDir(s.fs, full)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, notFound("list", dir)
	}
	infos, err := afero.ReadDir(s.fs, full)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (s *aferoStorage) ReadFile(name string) ([]byte, error) {
	name, err := clean("read", name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, notFound("read", name)
	}
	full := s.path(name)
	isDir, err := afero.IsDir(s.fs, full)
	if err != nil {
		return nil, err
	}
	if isDir {
		return nil, notFound("read", name)
	}
	return afero.ReadFile(s.fs, full)
}
