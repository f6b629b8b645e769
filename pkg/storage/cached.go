// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"log/slog"
	"slices"
	"sync"
)

type (
	// Cached memoizes listings and reads of an underlying Storage, including
	// not-found results. Other errors are not cached. It is safe for
	// concurrent use.
	Cached struct {
		inner Storage

		mu       sync.Mutex
		listings map[string]cachedListing
		files    map[string]cachedFile
	}

	cachedListing struct {
		names []string
		err   error
	}

	cachedFile struct {
		data []byte
		err  error
	}
)

// NewCached wraps store with a memoizing cache.
func NewCached(store Storage) *Cached {
	return &Cached{
		inner:    store,
		listings: make(map[string]cachedListing),
		files:    make(map[string]cachedFile),
	}
}

// ListEntries implements Storage.
func (c *Cached) ListEntries(dir string) ([]string, error) {
	dir, err := clean("list", dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	hit, ok := c.listings[dir]
	c.mu.Unlock()
	if ok {
		return slices.Clone(hit.names), hit.err
	}

	names, err := c.inner.ListEntries(dir)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	slog.Debug("storage listing", "dir", dir, "entries", len(names), "found", err == nil)

	c.mu.Lock()
	c.listings[dir] = cachedListing{names: slices.Clone(names), err: err}
	c.mu.Unlock()
	return names, err
}

// ReadFile implements Storage.
func (c *Cached) ReadFile(name string) ([]byte, error) {
	name, err := clean("read", name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	hit, ok := c.files[name]
	c.mu.Unlock()
	if ok {
		return slices.Clone(hit.data), hit.err
	}

	data, err := c.inner.ReadFile(name)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	c.mu.Lock()
	c.files[name] = cachedFile{data: slices.Clone(data), err: err}
	c.mu.Unlock()
	return data, err
}
