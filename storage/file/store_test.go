package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/poiesic/medrank/catalog"
	"github.com/poiesic/medrank/core"
	"github.com/poiesic/medrank/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, seed uint64) *index.Index {
	t.Helper()
	idx, err := index.Build(catalog.Synthetic(seed))
	require.NoError(t, err)
	return idx
}

func TestStore_ExportImport(t *testing.T) {
	store, err := NewStore()
	require.NoError(t, err)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.mrix")
	idx := buildIndex(t, 42)

	require.NoError(t, store.Export(ctx, path, idx))

	imported, err := store.Import(ctx, path)
	require.NoError(t, err)
	assert.True(t, idx.Equal(imported))
}

func TestStore_ExportReplaces(t *testing.T) {
	store, err := NewStore()
	require.NoError(t, err)
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.mrix")

	require.NoError(t, store.Export(ctx, path, buildIndex(t, 1)))
	second := buildIndex(t, 2)
	require.NoError(t, store.Export(ctx, path, second))

	imported, err := store.Import(ctx, path)
	require.NoError(t, err)
	assert.True(t, second.Equal(imported))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"catalog.mrix", "catalog.mrix.lock"}, names)
}

func TestStore_ImportErrors(t *testing.T) {
	store, err := NewStore()
	require.NoError(t, err)
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Import(ctx, filepath.Join(dir, "absent.mrix"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.mrix")
		require.NoError(t, os.WriteFile(path, []byte("MRIX\x01garbage"), 0644))
		_, err := store.Import(ctx, path)
		assert.ErrorIs(t, err, core.ErrCorruptIndex)
	})
}

func TestStore_Locked(t *testing.T) {
	store, err := NewStore(WithLockTimeout(100 * time.Millisecond))
	require.NoError(t, err)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.mrix")
	idx := buildIndex(t, 1)
	require.NoError(t, store.Export(ctx, path, idx))

	holder := flock.New(path + lockSuffix)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	_, err = store.Import(ctx, path)
	assert.ErrorIs(t, err, ErrLocked)

	err = store.Export(ctx, path, idx)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestStore_SharedReaders(t *testing.T) {
	store, err := NewStore(WithLockTimeout(100 * time.Millisecond))
	require.NoError(t, err)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.mrix")
	idx := buildIndex(t, 1)
	require.NoError(t, store.Export(ctx, path, idx))

	reader := flock.New(path + lockSuffix)
	require.NoError(t, reader.RLock())
	defer reader.Unlock()

	imported, err := store.Import(ctx, path)
	require.NoError(t, err)
	assert.True(t, idx.Equal(imported))
}

func TestNewStore_Options(t *testing.T) {
	_, err := NewStore(WithLockTimeout(0))
	assert.Error(t, err)

	store, err := NewStore(WithLogger(nil), WithLockTimeout(time.Second))
	require.NoError(t, err)
	assert.NotNil(t, store.logger)
	assert.Equal(t, time.Second, store.lockTimeout)
}

func TestStore_ExportNilIndex(t *testing.T) {
	store, err := NewStore()
	require.NoError(t, err)
	assert.Error(t, store.Export(context.Background(), filepath.Join(t.TempDir(), "x"), nil))
}
