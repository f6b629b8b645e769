// SPDX-License-Identifier: MPL-2.0

// Package cache stores resolved results of immutable sources (crate archives
// and git commits) in a badger database, keyed by a hash of the source identity.
// Directory sources change under the user's feet and are never cached.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// formatVersion is mixed into every key so that a change of the stored
// layout invalidates old entries.
const formatVersion = "v1"

const (
	prefixTarball = "crate"
	prefixGit     = "git"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache miss")

type (
	// Key identifies a cached result.
	Key string

	// Options configures Open.
	Options struct {
		// Dir is the database directory. Ignored when InMemory is set.
		Dir string
		// InMemory keeps the database in memory, for tests.
		InMemory bool
		// TTL expires entries after the given duration; zero keeps them forever.
		TTL time.Duration
		// Logger enables badger's own logging.
		Logger bool
	}

	// Store is a badger-backed cache.
	Store struct {
		db  *badger.DB
		ttl time.Duration
	}
)

// Open opens (creating if needed) the cache database.
func Open(opts Options) (*Store, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("cache directory is not set")
		}
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		badgerOpts = badger.DefaultOptions(opts.Dir).WithCompression(options.ZSTD)
	}
	if !opts.Logger {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &Store{db: db, ttl: opts.TTL}, nil
}

// TarballKey identifies a package inside a crate archive by the archive's bytes.
func TarballKey(archive []byte, packageDir string) Key {
	sum := sha256.Sum256(archive)
	return newKey(prefixTarball, hex.EncodeToString(sum[:]), packageDir)
}

// GitKey identifies a package inside a git repository at a resolved commit.
func GitKey(commit, packageDir string) Key {
	return newKey(prefixGit, commit, packageDir)
}

func newKey(prefix, identity, packageDir string) Key {
	sum := sha256.Sum256([]byte(formatVersion + "\x00" + identity + "\x00" + packageDir))
	return Key(prefix + ":" + hex.EncodeToString(sum[:]))
}

// Get returns the cached bytes for key, or ErrMiss.
func (s *Store) Get(key Key) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrMiss
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores value under key.
func (s *Store) Put(key Key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// GetJSON decodes the cached value for key into v.
func (s *Store) GetJSON(key Key, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		// A value we cannot read is as good as absent.
		slog.Debug("dropping unreadable cache entry", "key", key, "error", err)
		return ErrMiss
	}
	return nil
}

// PutJSON stores v encoded as JSON under key.
func (s *Store) PutJSON(key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return s.Put(key, data)
}

// Len returns the number of entries.
func (s *Store) Len() (int, error) {
	var count int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	return s.db.DropAll()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
