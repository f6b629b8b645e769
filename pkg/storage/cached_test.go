// SPDX-License-Identifier: MPL-2.0

package storage_test

import (
	"errors"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cargoscope/cargoscope/pkg/storage"
)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) ListEntries(dir string) ([]string, error) {
	args := m.Called(dir)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *mockStorage) ReadFile(name string) ([]byte, error) {
	args := m.Called(name)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func TestCached_MemoizesHitsAndMisses(t *testing.T) {
	t.Parallel()

	inner := &mockStorage{}
	inner.On("ListEntries", "src/bin").Return([]string{"a.rs"}, nil).Once()
	inner.On("ListEntries", "benches").Return(nil, fs.ErrNotExist).Once()
	inner.On("ReadFile", "Cargo.toml").Return([]byte("x"), nil).Once()

	c := storage.NewCached(inner)
	for range 3 {
		names, err := c.ListEntries("./src/bin")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.rs"}, names)

		_, err = c.ListEntries("benches")
		assert.True(t, storage.IsNotFound(err))

		data, err := c.ReadFile("Cargo.toml")
		require.NoError(t, err)
		assert.Equal(t, "x", string(data))
	}
	inner.AssertExpectations(t)
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	inner := &mockStorage{}
	inner.On("ReadFile", "Cargo.toml").Return(nil, boom).Twice()

	c := storage.NewCached(inner)
	for range 2 {
		_, err := c.ReadFile("Cargo.toml")
		assert.ErrorIs(t, err, boom)
	}
	inner.AssertNumberOfCalls(t, "ReadFile", 2)
}

func TestCached_ReturnsCopies(t *testing.T) {
	t.Parallel()

	inner := &mockStorage{}
	inner.On("ReadFile", "f").Return([]byte("abc"), nil).Once()

	c := storage.NewCached(inner)
	first, err := c.ReadFile("f")
	require.NoError(t, err)
	first[0] = 'z'

	second, err := c.ReadFile("f")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(second))
}

func TestCached_ConcurrentUse(t *testing.T) {
	t.Parallel()

	c := storage.NewCached(storage.FromFS(mapFS(fixture)))
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.ListEntries("src/bin"); err != nil {
				t.Errorf("ListEntries() error: %v", err)
			}
			if _, err := c.ReadFile("Cargo.toml"); err != nil {
				t.Errorf("ReadFile() error: %v", err)
			}
		}()
	}
	wg.Wait()
}
