// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	key := GitKey("0123abcd", "crates/core")

	_, err := s.Get(key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Put(key, []byte("resolved")))
	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("resolved"), got)
	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Clear())
	n, err = s.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_LenAfterClose(t *testing.T) {
	t.Parallel()

	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Len()
	assert.ErrorIs(t, err, badger.ErrDBClosed)
}

func TestStore_JSON(t *testing.T) {
	t.Parallel()

	type view struct {
		Name     string   `json:"name"`
		Features []string `json:"features"`
	}
	s := openMemory(t)
	key := TarballKey([]byte("archive bytes"), "")

	require.NoError(t, s.PutJSON(key, view{Name: "demo", Features: []string{"std"}}))
	var got view
	require.NoError(t, s.GetJSON(key, &got))
	assert.Equal(t, view{Name: "demo", Features: []string{"std"}}, got)

	require.NoError(t, s.Put(key, []byte("{not json")))
	assert.True(t, errors.Is(s.GetJSON(key, &got), ErrMiss))
}

func TestKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, GitKey("abc", "a"), GitKey("abc", "a"))
	assert.NotEqual(t, GitKey("abc", "a"), GitKey("abc", "b"))
	assert.NotEqual(t, GitKey("abc", ""), GitKey("abd", ""))
	assert.NotEqual(t, TarballKey([]byte("x"), ""), TarballKey([]byte("y"), ""))
	assert.Contains(t, string(TarballKey([]byte("x"), "")), "crate:")
	assert.Contains(t, string(GitKey("abc", "")), "git:")
}

func TestOpen_OnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	key := GitKey("c0ffee", "")
	require.NoError(t, s.Put(key, []byte("v")))
	require.NoError(t, s.Close())

	reopened, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	_, err = Open(Options{})
	assert.Error(t, err)
}
